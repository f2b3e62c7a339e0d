package reader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMarkdown(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const manual = `# Overview
Intro words here.

## Setup
Install it first.

### Linux
Use the package.

# Reference
Flags and keys.
`

func TestMarkdownTOCLevels(t *testing.T) {
	toc, err := (&MarkdownFormat{}).TOC(writeMarkdown(t, manual))
	if err != nil {
		t.Fatalf("TOC: %v", err)
	}

	want := []struct {
		title string
		level int
		word  int
	}{
		{"Overview", 0, 0},
		{"Setup", 1, 4},
		{"Linux", 2, 8},
		{"Reference", 0, 12},
	}
	if len(toc) != len(want) {
		t.Fatalf("got %d entries: %+v", len(toc), toc)
	}
	for i, w := range want {
		if toc[i].Title != w.title || toc[i].Level != w.level || toc[i].WordIndex != w.word {
			t.Errorf("entry %d = %+v, want %s level %d at word %d", i, toc[i], w.title, w.level, w.word)
		}
	}
	if toc[3].Preview != "Reference Flags and keys...." {
		t.Errorf("preview = %q", toc[3].Preview)
	}
}

func TestMarkdownChapters(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Chapter
	}{
		{
			name:    "one chapter per heading",
			content: manual,
			want: []Chapter{
				{"Overview", 0, 3},
				{"Setup", 4, 7},
				{"Linux", 8, 11},
				{"Reference", 12, 15},
			},
		},
		{
			name:    "text before the first heading",
			content: "Lead text.\n\n# One\nBody.\n",
			want: []Chapter{
				{"Document", 0, 1},
				{"One", 2, 3},
			},
		},
		{
			name:    "no headings",
			content: "Just plain text.\nNo headers at all.\n",
			want:    []Chapter{{"Document", 0, 6}},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chapters, words, err := (&MarkdownFormat{}).ExtractChapters(writeMarkdown(t, tt.content))
			if err != nil {
				t.Fatalf("ExtractChapters: %v", err)
			}
			if len(chapters) != len(tt.want) {
				t.Fatalf("chapters = %+v, want %+v", chapters, tt.want)
			}
			for i := range tt.want {
				if chapters[i] != tt.want[i] {
					t.Errorf("chapter %d = %+v, want %+v", i, chapters[i], tt.want[i])
				}
			}
			if n := len(tt.want); n > 0 && tt.want[n-1].WordEnd != len(words)-1 {
				t.Errorf("last chapter ends at %d, text has %d words", tt.want[n-1].WordEnd, len(words))
			}
		})
	}
}

func TestMarkdownStripsMarkup(t *testing.T) {
	path := writeMarkdown(t, "# Guide\n\n"+
		"Some *emphasis* and a [link](http://example.com) here.\n\n"+
		"```go\nfmt.Println(\"skipped\")\n```\n\n"+
		"- item one\n- item two\n")

	got, err := (&MarkdownFormat{}).Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "Guide Some emphasis and a link here. item one item two"; got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}

	toc, _ := (&MarkdownFormat{}).TOC(path)
	if len(toc) != 1 || toc[0].Preview != "Guide Some emphasis and a link here. item one item..." {
		t.Errorf("toc = %+v", toc)
	}
}
