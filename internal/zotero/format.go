package zotero

import (
	"regexp"
	"strings"
)

const unknownAuthor = "Unknown Author"

var yearPattern = regexp.MustCompile(`\d{4}`)

// FormatAuthors renders creators as a comma-separated display string.
// Creators without a usable name are left out.
func FormatAuthors(creators []Creator) string {
	names := make([]string, 0, len(creators))
	for _, c := range creators {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return unknownAuthor
	}
	return strings.Join(names, ", ")
}

// ExtractYear returns the first four-digit run in a free-text date, the raw
// date when there is none, or "" for an empty date.
func ExtractYear(date string) string {
	if date == "" {
		return ""
	}
	if m := yearPattern.FindString(date); m != "" {
		return m
	}
	return date
}
