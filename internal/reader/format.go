package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format turns one kind of source file into readable text.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (string, error)
}

// Document is a loaded source file ready to hand to a Reader.
type Document struct {
	Text     string
	Format   string
	Chapters []Chapter
	TOC      []TOCEntry
}

var registry []Format

// Register makes f available to Load and ExtractText. Formats register from init.
func Register(f Format) {
	registry = append(registry, f)
}

func lookup(filename string) Format {
	return byExtension(strings.ToLower(filepath.Ext(filename)))
}

func byExtension(ext string) Format {
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// resolveFormat finds the format by extension, falling back to the content
// for unknown extensions. A nil format means plain text.
func resolveFormat(filename string) (Format, error) {
	if f := lookup(filename); f != nil {
		return f, nil
	}
	return detect(filename)
}

// ExtractText returns the readable text of filename, read as plain text when no
// format claims it.
func ExtractText(filename string) (string, error) {
	f, err := resolveFormat(filename)
	if err != nil {
		return "", err
	}
	if f != nil {
		return f.Extract(filename)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Load reads a file along with whatever chapter and TOC data its format offers.
// A missing TOC is not an error.
func Load(filename string) (*Document, error) {
	f, err := resolveFormat(filename)
	if err != nil {
		return nil, err
	}
	if f == nil {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		return &Document{Text: string(data), Format: "Text"}, nil
	}

	doc := &Document{Format: f.Name()}
	if ce, ok := f.(ChapterExtractor); ok {
		chapters, words, err := ce.ExtractChapters(filename)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		doc.Text = strings.Join(words, " ")
		doc.Chapters = chapters
	} else {
		text, err := f.Extract(filename)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		doc.Text = text
	}
	if tp, ok := f.(TOCProvider); ok {
		doc.TOC, _ = tp.TOC(filename)
	}
	return doc, nil
}

// SupportedFormats describes each registered format for usage output.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
