package textproc

import (
	"regexp"
	"strings"
)

const regexRulePrefix = "regex:"

// Validate reports whether text satisfies a field's validation rule.
//
// An empty rule always passes. A rule of the form "regex:<pattern>" passes
// only when the entire text matches <pattern> (full-match, not substring
// search). Any other rule form is treated as always-valid so that template
// authors can introduce new rule kinds without breaking older binaries.
func Validate(text, rule string) bool {
	if rule == "" {
		return true
	}
	if pattern, ok := strings.CutPrefix(rule, regexRulePrefix); ok {
		re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
		if err != nil {
			// Malformed pattern: fall through to the permissive default.
			return true
		}
		return re.MatchString(text)
	}
	return true
}
