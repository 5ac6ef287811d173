package template

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// templateSchema validates the canonical on-disk template shape before it is
// written. Legacy shapes are migrated on load, so the schema only needs to
// describe the current format.
const templateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "keywords", "rois"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "keywords": {"type": "array", "items": {"type": "string"}},
    "rois": {
      "type": "object",
      "propertyNames": {"minLength": 1},
      "additionalProperties": {
        "type": "object",
        "required": ["box"],
        "properties": {
          "box": {
            "type": "array",
            "minItems": 4,
            "maxItems": 4,
            "items": {"type": "integer"}
          },
          "validation_rule": {"type": "string"}
        }
      }
    },
    "corrections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["wrong", "correct"],
        "properties": {
          "wrong": {"type": "string"},
          "correct": {"type": "string"}
        }
      }
    },
    "template_image_path": {"type": "string"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("template.schema.json", templateSchema)

// validateDocument checks marshalled template JSON against the schema.
func validateDocument(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid template JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("template does not match schema: %w", err)
	}
	return nil
}
