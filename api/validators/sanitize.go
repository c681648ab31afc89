package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen runes.
// Free-text fields like booking notes and rejection reasons pass through
// here before they reach the database. A maxLen of zero disables
// truncation.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
