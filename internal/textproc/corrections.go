package textproc

import "strings"

// Correction is one learned substitution from human review: occurrences of
// Wrong are replaced by Correct.
type Correction struct {
	Wrong   string `json:"wrong"`
	Correct string `json:"correct"`
}

// ApplyCorrections applies each correction in list order as a literal
// substring replacement. Order matters: later entries may depend on the
// output of earlier (legacy-migrated) ones. Entries with an empty Wrong are
// skipped.
func ApplyCorrections(text string, corrections []Correction) string {
	for _, c := range corrections {
		if c.Wrong == "" {
			continue
		}
		text = strings.ReplaceAll(text, c.Wrong, c.Correct)
	}
	return text
}
