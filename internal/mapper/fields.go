// Package mapper turns source records into destination note content: the
// typed property map for a collection schema and the Markdown note body.
// Everything here is pure.
package mapper

import (
	"strings"
	"time"
	"unicode"

	"github.com/mrlokans/papersync/internal/zotero"
)

// Semantic field names, matched against destination field names.
const (
	FieldNameAuthors     = "Authors"
	FieldNameYear        = "Year"
	FieldNamePublication = "Publication"
	FieldNameURL         = "URL"
	FieldNameDateAdded   = "Date Added"
	FieldNameItemType    = "Item Type"
	FieldNameTags        = "Tags"
	FieldNameStatus      = "Status"
)

// StatusSeed is the reading status every new note starts with.
const StatusSeed = "To Read"

const doiResolver = "https://doi.org/"

// Fields are the display values derived from one record.
type Fields struct {
	Title       string
	Authors     string
	Year        string
	Publication string
	URL         string
	DateAdded   string // YYYY-MM-DD
	ItemType    string // Normalized label
	Tags        []string
	Abstract    string
	Status      string
}

// FieldsFromRecord derives display fields from a record.
func FieldsFromRecord(r zotero.Record) Fields {
	link := strings.TrimSpace(r.URL)
	if link == "" && strings.TrimSpace(r.DOI) != "" {
		link = doiResolver + strings.TrimSpace(r.DOI)
	}

	return Fields{
		Title:       strings.TrimSpace(r.Title),
		Authors:     zotero.FormatAuthors(r.Creators),
		Year:        zotero.ExtractYear(r.Date),
		Publication: strings.TrimSpace(r.PublicationTitle),
		URL:         link,
		DateAdded:   formatDateAdded(r.DateAdded),
		ItemType:    NormalizeItemTypeLabel(r.ItemType),
		Tags:        r.TagNames(),
		Abstract:    strings.TrimSpace(r.AbstractNote),
		Status:      StatusSeed,
	}
}

func formatDateAdded(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format("2006-01-02")
	}
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// NormalizeItemTypeLabel turns a camel-case item type into a display label,
// e.g. "journalArticle" becomes "Journal Article".
func NormalizeItemTypeLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// RenderTagList renders tags as space-separated hashtags. Whitespace inside a
// tag becomes an underscore.
func RenderTagList(tags []string) string {
	rendered := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		rendered = append(rendered, "#"+strings.Join(strings.Fields(t), "_"))
	}
	return strings.Join(rendered, " ")
}
