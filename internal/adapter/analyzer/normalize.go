package analyzer

import "strings"

// Normalize lower-cases text, trims it and collapses every whitespace run
// to a single space. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
