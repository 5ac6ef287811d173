package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jackzampolin/formscan/internal/textproc"
)

// Store persists templates as one JSON file per template, addressed by name.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// List returns the available template names, sorted.
func (s *Store) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a template by name. Legacy on-disk shapes (scalar keywords,
// mapping-form corrections) are upgraded to the canonical representation as
// part of decoding, so callers never see the ambiguous shapes.
func (s *Store) Load(name string) (*Template, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %q not found", name)
		}
		return nil, fmt.Errorf("failed to read template %q: %w", name, err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}
	if t.Keywords == nil {
		t.Keywords = KeywordList{}
	}
	return &t, nil
}

// Save writes a template. Keywords are normalized to a (possibly empty)
// list, ROI invariants are enforced, and the canonical JSON is validated
// against the template schema before it reaches disk.
func (s *Store) Save(name string, t *Template) error {
	if t.Keywords == nil {
		t.Keywords = KeywordList{}
	}
	for roiName, roi := range t.ROIs {
		if roiName == "" {
			return fmt.Errorf("template %q: ROI names must be non-empty", name)
		}
		if roi.Box.W < 0 || roi.Box.H < 0 {
			return fmt.Errorf("template %q: ROI %q has negative dimensions", name, roiName)
		}
		if pattern, ok := strings.CutPrefix(roi.ValidationRule, "regex:"); ok {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("template %q: ROI %q has a malformed regex rule: %w", name, roiName, err)
			}
		}
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template %q: %w", name, err)
	}
	if err := validateDocument(data); err != nil {
		return fmt.Errorf("template %q: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write template %q: %w", name, err)
	}
	return nil
}

// GetKeywords returns a template's detection keywords.
func (s *Store) GetKeywords(name string) ([]string, error) {
	t, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return t.Keywords, nil
}

// DetectTemplate scores every stored template by how many of its keywords
// occur as substrings of text and returns the template with the strictly
// highest score. Ties resolve to the first template in enumeration order;
// a best score of zero means no detection and returns empty results.
func (s *Store) DetectTemplate(text string) (string, *Template, error) {
	names, err := s.List()
	if err != nil {
		return "", nil, err
	}
	bestScore := 0
	var bestName string
	var bestTemplate *Template
	for _, name := range names {
		t, err := s.Load(name)
		if err != nil {
			return "", nil, err
		}
		score := 0
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestName = name
			bestTemplate = t
		}
	}
	return bestName, bestTemplate, nil
}

// AppendCorrection appends a wrong→correct pair to the template's correction
// history. The history only ever grows: duplicates are preserved so repeated
// mistakes keep their full record.
func (s *Store) AppendCorrection(name, wrong, correct string) error {
	t, err := s.Load(name)
	if err != nil {
		return err
	}
	t.Corrections = append(t.Corrections, textproc.Correction{Wrong: wrong, Correct: correct})
	return s.Save(name, t)
}
