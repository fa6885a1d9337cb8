package generator

import (
	"regexp"
	"strings"
)

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	halfQuotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)"(\s*:)`)
)

// repairJSON fixes the mistakes models make most often: trailing commas,
// single-quoted strings, keys without quotes and keys missing their
// opening quote.
func repairJSON(s string) string {
	if !strings.Contains(s, `"`) {
		s = strings.ReplaceAll(s, "'", `"`)
	}
	s = halfQuotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = trailingComma.ReplaceAllString(s, `$1`)
	return s
}
