package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 1100px; margin: 2em auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
</style>
</head>
<body>
%s</body>
</html>
`

// FormatHTML renders the Markdown report as a standalone HTML page.
func FormatHTML(r TestReport, title string) (string, error) {
	return MarkdownToHTML(FormatMarkdown(r), title)
}

// MarkdownToHTML converts any Markdown document into a standalone page.
func MarkdownToHTML(src, title string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(src), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return fmt.Sprintf(htmlPage, html.EscapeString(title), body.String()), nil
}
