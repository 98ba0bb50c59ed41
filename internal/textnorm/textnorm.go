// Package textnorm provides the text normalization shared by range detection
// and word alignment. Recognizer output and canonical verse text differ in
// diacritics, letter variants, and spacing; both sides are normalized with the
// same function before any comparison.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// markStripper decomposes to NFKD and removes combining marks, which strips
// Arabic diacritics (harakat) and resolves hamza-carrier letter forms.
var markStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// letterFolder folds the letter variants that recitation transcripts and the
// Uthmani script disagree on.
var letterFolder = strings.NewReplacer(
	"أ", "ا", // alef with hamza above -> alef
	"إ", "ا", // alef with hamza below -> alef
	"آ", "ا", // alef with madda -> alef
	"ٱ", "ا", // alef wasla -> alef
	"ؤ", "و", // waw with hamza -> waw
	"ى", "ي", // alef maqsura -> ya
	"ة", "ه", // ta marbuta -> ha
	"ـ", "", // tatweel removed
)

// Normalize lowercases text, strips diacritics, folds standardized letter
// variants, and collapses all whitespace runs to single spaces.
// Empty input yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(markStripper, text)
	if err != nil {
		// Transform failures leave the input usable as-is; fold what we can.
		stripped = text
	}

	folded := letterFolder.Replace(stripped)
	collapsed := strings.Join(strings.Fields(folded), " ")
	return strings.ToLower(collapsed)
}

// WordCount returns the number of whitespace-separated words after normalization.
func WordCount(text string) int {
	normalized := Normalize(text)
	if normalized == "" {
		return 0
	}
	return len(strings.Fields(normalized))
}
