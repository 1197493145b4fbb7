// Package utils provides shared utilities for text handling and logging.
package utils

import "unicode/utf8"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if cut, ok := TruncateRunes(s, maxLen); ok {
		return cut + "..."
	}
	return s
}

// TruncateRunes returns the first maxLen characters of s and whether anything was cut.
// If maxLen is 0 or negative, returns s unchanged.
func TruncateRunes(s string, maxLen int) (string, bool) {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s, false
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
