package reader

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Extract returns the readable text of a Markdown file with markup removed.
func (f *MarkdownFormat) Extract(filename string) (string, error) {
	doc, err := parseMarkdown(filename)
	if err != nil {
		return "", err
	}
	return strings.Join(doc.words, " "), nil
}

// TOC lists the headings of a Markdown file.
func (f *MarkdownFormat) TOC(filename string) ([]TOCEntry, error) {
	doc, err := parseMarkdown(filename)
	if err != nil {
		return nil, err
	}
	return doc.toc, nil
}

// ExtractChapters splits a Markdown file into chapters at each heading.
func (f *MarkdownFormat) ExtractChapters(filename string) ([]Chapter, []string, error) {
	doc, err := parseMarkdown(filename)
	if err != nil {
		return nil, nil, err
	}

	var chapters []Chapter
	for i, entry := range doc.toc {
		end := len(doc.words) - 1
		if i+1 < len(doc.toc) {
			end = doc.toc[i+1].WordIndex - 1
		}
		if end < entry.WordIndex {
			continue
		}
		chapters = append(chapters, Chapter{Title: entry.Title, WordStart: entry.WordIndex, WordEnd: end})
	}

	// Text before the first heading belongs to its own chapter.
	if len(doc.toc) > 0 && doc.toc[0].WordIndex > 0 {
		chapters = append([]Chapter{{Title: "Document", WordStart: 0, WordEnd: doc.toc[0].WordIndex - 1}}, chapters...)
	}
	if len(chapters) == 0 && len(doc.words) > 0 {
		chapters = append(chapters, Chapter{
			Title:     "Document",
			WordStart: 0,
			WordEnd:   len(doc.words) - 1,
		})
	}
	return chapters, doc.words, nil
}

type markdownDoc struct {
	words []string
	toc   []TOCEntry
}

func parseMarkdown(filename string) (*markdownDoc, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	doc := &markdownDoc{}
	var block strings.Builder
	flush := func() {
		doc.words = append(doc.words, strings.Fields(block.String())...)
		block.Reset()
	}

	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if entering {
				flush()
				doc.toc = append(doc.toc, TOCEntry{
					Title:     headingText(node, src),
					WordIndex: len(doc.words),
					Level:     node.Level - 1,
				})
			}
		case *ast.Text:
			if entering {
				block.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					block.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				block.Write(node.Value)
			}
		}
		if !entering && n.Type() == ast.TypeBlock {
			flush()
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	flush()

	for i := range doc.toc {
		doc.toc[i].Preview = preview(doc.words, doc.toc[i].WordIndex)
	}
	return doc, nil
}

func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// preview returns up to ten words from wordIndex on.
func preview(words []string, wordIndex int) string {
	if wordIndex >= len(words) {
		return ""
	}
	end := min(wordIndex+10, len(words))
	return strings.Join(words[wordIndex:end], " ") + "..."
}
