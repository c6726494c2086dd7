package helpers

import "strings"

// NormalizeSpace collapses every run of whitespace into a single space and trims the ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
