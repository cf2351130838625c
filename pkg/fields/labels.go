package fields

import (
	"regexp"
	"strings"
	"unicode"
)

var labelSeparators = regexp.MustCompile(`[_\-\s.]+`)

// DefaultLabeler turns a property key into a title: separators become
// spaces, camelCase and letter/digit boundaries are split, and each word is
// capitalised. "ownerId" becomes "Owner Id".
func DefaultLabeler(key string) string {
	if key == "" {
		return ""
	}
	var words []string
	for _, chunk := range labelSeparators.Split(key, -1) {
		for _, word := range splitBoundaries(chunk) {
			words = append(words, capitalise(word))
		}
	}
	return strings.Join(words, " ")
}

func splitBoundaries(chunk string) []string {
	if chunk == "" {
		return nil
	}
	runes := []rune(chunk)
	var (
		words []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur))
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func capitalise(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
