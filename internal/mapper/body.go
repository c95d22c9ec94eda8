package mapper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	rendererhtml "github.com/yuin/goldmark/renderer/html"
)

const noAbstract = "No abstract available."

// noteSections are the empty sections every note is seeded with, in order.
var noteSections = []string{"Key Ideas", "Quotes", "Critique", "Related Work"}

// RenderNoteBody renders the Markdown body of a reading note. The heading
// text and order are stable so downstream templates can rely on them.
func RenderNoteBody(f Fields) string {
	var b strings.Builder

	metaLine(&b, "Authors", f.Authors)
	metaLine(&b, "Year", f.Year)
	metaLine(&b, "Publication", f.Publication)
	metaLine(&b, "Link", f.URL)
	metaLine(&b, "Date Added", f.DateAdded)
	metaLine(&b, "Type", f.ItemType)
	metaLine(&b, "Tags", RenderTagList(f.Tags))

	b.WriteString("\n## Abstract\n\n")
	if f.Abstract != "" {
		b.WriteString(f.Abstract)
	} else {
		b.WriteString(noAbstract)
	}
	b.WriteString("\n")

	for _, section := range noteSections {
		fmt.Fprintf(&b, "\n## %s\n\n- \n", section)
	}

	return b.String()
}

func metaLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n", label, value)
}

var previewRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(rendererhtml.WithHardWraps()),
)

// RenderHTML converts a note body to HTML for previews.
func RenderHTML(markdown string) (string, error) {
	var out bytes.Buffer
	if err := previewRenderer.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return out.String(), nil
}
