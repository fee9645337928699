package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content while keeping user-generated formatting.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizePlain strips all markup; used for titles, names and chat messages
// that must stay plain text.
func SanitizePlain(input string) string {
	return plainPolicy.Sanitize(input)
}
