package util

import "strings"

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// SanitizeText trims whitespace and strips angle brackets before storage.
// This is a minimal injection mitigation, not full HTML sanitization.
func SanitizeText(s string) string {
	return strings.TrimSpace(angleBrackets.Replace(s))
}
