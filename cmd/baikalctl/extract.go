package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// pdfText extracts the plain text of a PDF so it can seed a document
// generation prompt.
func pdfText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// htmlToText flattens an HTML fragment for terminal display: block
// elements break lines, table cells are tab-separated, script and style
// content is dropped. Invalid markup comes back as-is.
func htmlToText(fragment string) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				sb.WriteString("\n")
			case "td", "th":
				defer sb.WriteString("\t")
			case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				defer sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	lines := strings.Split(sb.String(), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
