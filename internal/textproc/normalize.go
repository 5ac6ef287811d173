// Package textproc canonicalizes OCR output and checks it against per-field
// validation rules. Everything here is a pure function of strings.
package textproc

import "strings"

// fullwidthReplacer maps full-width digits and the full-width hyphen to their
// half-width ASCII equivalents. Vision models reading Japanese forms return
// these glyphs interchangeably with ASCII.
var fullwidthReplacer = strings.NewReplacer(
	"０", "0",
	"１", "1",
	"２", "2",
	"３", "3",
	"４", "4",
	"５", "5",
	"６", "6",
	"７", "7",
	"８", "8",
	"９", "9",
	"－", "-",
)

// Normalize canonicalizes raw OCR text: surrounding whitespace is trimmed,
// full-width digits and hyphens become ASCII, and all half-width and
// full-width spaces are stripped. It is total and idempotent; empty input
// normalizes to the empty string.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	text = fullwidthReplacer.Replace(text)
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, "　", "")
	return text
}
