package portfolio

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Typographer),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts a content paragraph to sanitized HTML. Content is
// compiled in today, so the sanitizer only guards later edits to it: raw
// HTML pasted into a paragraph must not reach the page unfiltered.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}
