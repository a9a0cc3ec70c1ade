// Package matcher answers common messages from canned reply pools so the paid
// model is only called for messages that need it.
package matcher

import "strings"

// Normalize lower-cases, trims and strips trailing punctuation
func Normalize(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.TrimRight(s, ".!?,~ \t\n")
	return strings.TrimSpace(s)
}
