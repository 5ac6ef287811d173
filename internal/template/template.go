// Package template manages durable document-layout definitions: ROI boxes,
// detection keywords, validation rules, and the accumulated correction
// history from human review.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/formscan/internal/textproc"
	"github.com/jackzampolin/formscan/internal/vision"
)

// ROI is one named region of interest: a box in the reference image's
// coordinate space plus an optional validation rule for the extracted value.
type ROI struct {
	Box            vision.Box
	ValidationRule string
}

// roiJSON is the on-disk shape: box is the [x, y, w, h] array form.
type roiJSON struct {
	Box            [4]int `json:"box"`
	ValidationRule string `json:"validation_rule,omitempty"`
}

func (r ROI) MarshalJSON() ([]byte, error) {
	return json.Marshal(roiJSON{
		Box:            [4]int{r.Box.X, r.Box.Y, r.Box.W, r.Box.H},
		ValidationRule: r.ValidationRule,
	})
}

func (r *ROI) UnmarshalJSON(data []byte) error {
	var raw roiJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Box = vision.Box{X: raw.Box[0], Y: raw.Box[1], W: raw.Box[2], H: raw.Box[3]}
	r.ValidationRule = raw.ValidationRule
	return nil
}

// Template is the durable definition of a document layout.
type Template struct {
	Name              string         `json:"name"`
	Keywords          KeywordList    `json:"keywords"`
	ROIs              map[string]ROI `json:"rois"`
	Corrections       CorrectionList `json:"corrections,omitempty"`
	TemplateImagePath string         `json:"template_image_path,omitempty"`
}

// Clone returns a deep copy. The pipeline freezes a clone at run start so
// template edits cannot affect an in-flight document.
func (t *Template) Clone() *Template {
	out := &Template{
		Name:              t.Name,
		Keywords:          append(KeywordList(nil), t.Keywords...),
		ROIs:              make(map[string]ROI, len(t.ROIs)),
		Corrections:       append(CorrectionList(nil), t.Corrections...),
		TemplateImagePath: t.TemplateImagePath,
	}
	for name, roi := range t.ROIs {
		out.ROIs[name] = roi
	}
	return out
}

// KeywordList tolerates the legacy on-disk shape where keywords was stored
// as a scalar: anything that is not a JSON array of strings decodes to an
// empty list.
type KeywordList []string

func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*k = KeywordList{}
		return nil
	}
	*k = KeywordList(list)
	return nil
}

// CorrectionList is the ordered correction history. Corrections are only
// ever appended (repeated mistakes must never be silently dropped), so the
// canonical representation is a list, not a map.
//
// Legacy template files stored corrections as a single wrong→correct
// mapping; those decode into one entry per pair, preserving all pairs in the
// file's key order. The ambiguous shape never leaks past this boundary.
type CorrectionList []textproc.Correction

func (c *CorrectionList) UnmarshalJSON(data []byte) error {
	var list []textproc.Correction
	if err := json.Unmarshal(data, &list); err == nil {
		*c = CorrectionList(list)
		return nil
	}

	// Legacy mapping shape. Decoded via the token stream so the file's key
	// order is preserved (a map[string]string would randomize it).
	entries, err := decodeOrderedStringMap(data)
	if err != nil {
		return fmt.Errorf("corrections must be a list or a legacy mapping: %w", err)
	}
	out := make(CorrectionList, 0, len(entries))
	for _, e := range entries {
		out = append(out, textproc.Correction{Wrong: e[0], Correct: e[1]})
	}
	*c = out
	return nil
}

func decodeOrderedStringMap(data []byte) ([][2]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var out [][2]string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}
