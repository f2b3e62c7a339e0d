package reader

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Extract returns the text of every spine document in reading order.
func (f *EPUBFormat) Extract(filename string) (string, error) {
	book, err := loadEPUB(filename)
	if err != nil {
		return "", err
	}
	return strings.Join(book.words, " "), nil
}

// TOC flattens the book's NCX navigation map.
func (f *EPUBFormat) TOC(filename string) ([]TOCEntry, error) {
	book, err := loadEPUB(filename)
	if err != nil {
		return nil, err
	}
	if book.navErr != nil {
		return nil, book.navErr
	}
	return book.flatten(book.nav, 0), nil
}

// ExtractChapters returns one chapter per non-empty spine document, titled from the NCX.
func (f *EPUBFormat) ExtractChapters(filename string) ([]Chapter, []string, error) {
	book, err := loadEPUB(filename)
	if err != nil {
		return nil, nil, err
	}
	titles := book.titles()

	var chapters []Chapter
	for _, s := range book.sections {
		if s.count == 0 {
			continue
		}
		title, ok := titles[hrefKey(s.href)]
		if !ok {
			title = fmt.Sprintf("Section %d", s.spine+1)
		}
		chapters = append(chapters, Chapter{
			Title:     title,
			WordStart: s.start,
			WordEnd:   s.start + s.count - 1,
		})
	}
	return chapters, book.words, nil
}

// ncx is the subset of an EPUB 2 navigation document that TOC reads.
type ncx struct {
	NavMap struct {
		NavPoints []navPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type navPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type epubSection struct {
	href  string
	spine int
	start int
	count int
}

type epubBook struct {
	words    []string
	sections []epubSection
	nav      []navPoint
	navErr   error
}

func loadEPUB(filename string) (*epubBook, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, errors.New("no rootfiles found in epub")
	}
	root := rc.Rootfiles[0]

	book := &epubBook{}
	for i, ref := range root.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		data, err := readItem(ref.Item)
		if err != nil {
			continue
		}
		words := strings.Fields(extractTextFromHTML(string(data)))
		book.sections = append(book.sections, epubSection{
			href:  ref.Item.HREF,
			spine: i,
			start: len(book.words),
			count: len(words),
		})
		book.words = append(book.words, words...)
	}
	book.nav, book.navErr = readNavMap(root)
	return book, nil
}

func readItem(item *epub.Item) ([]byte, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func readNavMap(root *epub.Rootfile) ([]navPoint, error) {
	for i := range root.Manifest.Items {
		item := &root.Manifest.Items[i]
		if item.MediaType != "application/x-dtbncx+xml" {
			continue
		}
		data, err := readItem(item)
		if err != nil {
			return nil, fmt.Errorf("failed to read NCX: %w", err)
		}
		var doc ncx
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse NCX: %w", err)
		}
		return doc.NavMap.NavPoints, nil
	}
	return nil, errors.New("no NCX file found in EPUB")
}

// hrefKey reduces an href to the file name it points at, which is how NCX
// sources (relative to the NCX) are matched with manifest items (relative to the OPF).
func hrefKey(href string) string {
	if i := strings.IndexByte(href, '#'); i != -1 {
		href = href[:i]
	}
	return path.Base(href)
}

// titles maps each document to the first navigation label pointing into it.
func (b *epubBook) titles() map[string]string {
	out := make(map[string]string)
	var walk func([]navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			key := hrefKey(np.Content.Src)
			if _, ok := out[key]; !ok {
				out[key] = strings.TrimSpace(np.Label.Text)
			}
			walk(np.Children)
		}
	}
	walk(b.nav)
	return out
}

func (b *epubBook) flatten(points []navPoint, level int) []TOCEntry {
	starts := make(map[string]int, len(b.sections))
	for _, s := range b.sections {
		if _, ok := starts[hrefKey(s.href)]; !ok {
			starts[hrefKey(s.href)] = s.start
		}
	}

	var entries []TOCEntry
	var walk func([]navPoint, int)
	walk = func(points []navPoint, level int) {
		for _, np := range points {
			start := starts[hrefKey(np.Content.Src)]
			entries = append(entries, TOCEntry{
				Title:     strings.TrimSpace(np.Label.Text),
				Preview:   preview(b.words, start),
				WordIndex: start,
				Level:     level,
			})
			walk(np.Children, level+1)
		}
	}
	walk(points, level)
	return entries
}
