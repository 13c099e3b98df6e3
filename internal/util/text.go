package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 and NUL bytes, neither of which
// Postgres text columns accept. Extracted paper text regularly carries both.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	return strings.ReplaceAll(strings.ToValidUTF8(value, ""), "\x00", "")
}
