package service

import "strings"

// sanitizeUTF8 drops invalid UTF-8 sequences left over from PDF text
// extraction.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}

func truncateForLog(s string) string {
	const limit = 256
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
