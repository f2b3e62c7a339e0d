package reader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractText(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		content string
		want    string
	}{
		{"notes.txt", "Hello world this is a test.", "Hello world this is a test."},
		{"server.log", "Some log output\nacross lines", "Some log output\nacross lines"},
		{"readme.md", "Some *markdown* content", "Some markdown content"},
		{"page.htm", "<p>Some <i>html</i> content</p>", "Some html content"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			os.WriteFile(path, []byte(tt.content), 0644)

			got, err := ExtractText(path)
			if err != nil {
				t.Fatalf("ExtractText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ExtractText(filepath.Join(dir, "nonexistent.txt")); err == nil {
		t.Error("nonexistent file: expected error")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text has no chapters", func(t *testing.T) {
		path := filepath.Join(tmpDir, "plain.txt")
		os.WriteFile(path, []byte("one two three"), 0644)

		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Text != "one two three" || doc.Format != "Text" {
			t.Errorf("doc = %+v", doc)
		}
		if len(doc.Chapters) != 0 || len(doc.TOC) != 0 {
			t.Errorf("unexpected structure: %+v", doc)
		}
	})

	t.Run("markdown chapters and toc", func(t *testing.T) {
		path := filepath.Join(tmpDir, "book.md")
		os.WriteFile(path, []byte("# One\n\nFirst part.\n\n# Two\n\nSecond part here.\n"), 0644)

		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Format != "Markdown" {
			t.Errorf("Format = %q", doc.Format)
		}
		if len(doc.Chapters) != 2 || len(doc.TOC) != 2 {
			t.Fatalf("chapters = %+v, toc = %+v", doc.Chapters, doc.TOC)
		}
		if doc.Chapters[1].Title != "Two" || doc.Chapters[1].WordStart != 3 {
			t.Errorf("second chapter = %+v", doc.Chapters[1])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(tmpDir, "gone.md")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestFormatExtensions(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"book.epub", "EPUB"},
		{"BOOK.EPUB", "EPUB"},
		{"notes.md", "Markdown"},
		{"notes.markdown", "Markdown"},
		{"page.xhtml", "HTML"},
		{"plain.txt", ""},
		{"no-extension", ""},
	}
	for _, tt := range tests {
		got := ""
		if f := lookup(tt.file); f != nil {
			got = f.Name()
		}
		if got != tt.want {
			t.Errorf("lookup(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	want := map[string]bool{
		"EPUB (.epub)":               false,
		"HTML (.html, .htm, .xhtml)": false,
		"Markdown (.md, .markdown)":  false,
	}
	for _, f := range formats {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s not registered: %v", name, formats)
		}
	}
}
