package reader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSniffsUnknownExtensions(t *testing.T) {
	dir := t.TempDir()

	t.Run("html without extension", func(t *testing.T) {
		path := filepath.Join(dir, "page")
		os.WriteFile(path, []byte(testPage), 0644)
		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Format != "HTML" || len(doc.TOC) != 2 {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("epub without extension", func(t *testing.T) {
		data, err := os.ReadFile(writeTestEPUB(t))
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "book.bin")
		os.WriteFile(path, data, 0644)
		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Format != "EPUB" || len(doc.Chapters) != 2 {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("plain text", func(t *testing.T) {
		path := filepath.Join(dir, "notes.cfg")
		os.WriteFile(path, []byte("just some words"), 0644)
		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Format != "Text" || doc.Text != "just some words" {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("binary", func(t *testing.T) {
		path := filepath.Join(dir, "image.dat")
		os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644)
		if _, err := Load(path); !errors.Is(err, ErrUnsupported) {
			t.Errorf("err = %v, want ErrUnsupported", err)
		}
	})
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		format string
		text   string
	}{
		{"plain", "piped words", "Text", "piped words"},
		{"html", "<html><body><p>Hello <b>there</b></p></body></html>", "HTML", "Hello there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := FromBytes([]byte(tt.in))
			if err != nil {
				t.Fatalf("FromBytes: %v", err)
			}
			if doc.Format != tt.format || doc.Text != tt.text {
				t.Errorf("doc = %+v, want %s %q", doc, tt.format, tt.text)
			}
		})
	}

	if _, err := FromBytes([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("pdf input: err = %v, want ErrUnsupported", err)
	}
}
