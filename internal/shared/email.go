package shared

import "strings"

// NormalizeEmail is the stored form of an email address: trimmed and lower-cased. The
// directory row, the tenant user and every lookup use it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
