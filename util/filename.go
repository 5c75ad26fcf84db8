package util

import (
	"strings"
	"unicode/utf8"
)

// Characters that are stripped from titles before they are used as filenames.
const titleStripChars = `|'":\/`

// Characters that are invalid in filenames on Linux or Windows, plus '+' which some sites use for spaces.
const invalidFilenameChars = `<>:"'/\|?*+`

// SanitizeTitle removes characters from a video title that are unsafe in a filename.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if strings.ContainsRune(titleStripChars, r) || r < 0x20 {
			return -1
		}
		return r
	}, title)
	return strings.TrimSpace(title)
}

// SafeFilename replaces invalid filename characters with '_' and truncates to at most maxLen bytes, without
// splitting a UTF-8 sequence. A maxLen of 0 means no limit.
func SafeFilename(name string, maxLen int) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	return Truncate(name, maxLen)
}

// Truncate shortens s to at most maxLen bytes without splitting a UTF-8 sequence. A maxLen of 0 means no limit.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	s = s[:maxLen]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
