package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Model output is untrusted: it is converted without raw HTML passthrough
// and then sanitized with a UGC policy before reaching the browser.
var (
	htmlConverter = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	htmlPolicy = bluemonday.UGCPolicy()
)

// HTML converts markdown to sanitized HTML for the web UI
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := htmlConverter.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// RewriteHTML lays out model output like RewriteMarkdown and converts it to HTML
func RewriteHTML(raw string, notices []string) (string, error) {
	return HTML(RewriteMarkdown(raw, notices))
}
