package reader

import (
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLFormat implements Format for standalone HTML pages.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

func (f *HTMLFormat) Extract(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return extractTextFromHTML(string(data)), nil
}

// TOC lists the page's h1 to h3 headings.
func (f *HTMLFormat) TOC(filename string) ([]TOCEntry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseHTML(string(data)).toc, nil
}

type htmlDoc struct {
	words []string
	toc   []TOCEntry
}

var headingLevels = map[string]int{"h1": 0, "h2": 1, "h3": 2}

// parseHTML collects the readable words of a document, leaving out the head
// and any script or style content.
func parseHTML(s string) htmlDoc {
	var doc htmlDoc
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return doc
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "head", "script", "style":
				return
			}
			if level, ok := headingLevels[n.Data]; ok {
				if title := strings.Join(strings.Fields(nodeText(n)), " "); title != "" {
					doc.toc = append(doc.toc, TOCEntry{Title: title, WordIndex: len(doc.words), Level: level})
				}
			}
		case html.TextNode:
			doc.words = append(doc.words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for i := range doc.toc {
		doc.toc[i].Preview = preview(doc.words, doc.toc[i].WordIndex)
	}
	return doc
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func extractTextFromHTML(s string) string {
	return strings.Join(parseHTML(s).words, " ")
}
