package reader

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupported is returned for content that is neither text nor a known format.
var ErrUnsupported = errors.New("unsupported content")

// sniffed maps detected MIME types to the registered format that reads them.
var sniffed = []struct {
	mime string
	ext  string
}{
	{"application/epub+zip", ".epub"},
	{"text/html", ".html"},
}

// detect picks a format for filename from its content. A nil format with a
// nil error means plain text.
func detect(filename string) (Format, error) {
	mtype, err := mimetype.DetectFile(filename)
	if err != nil {
		return nil, err
	}
	return formatFor(mtype)
}

func formatFor(mtype *mimetype.MIME) (Format, error) {
	for _, s := range sniffed {
		if mtype.Is(s.mime) {
			return byExtension(s.ext), nil
		}
	}
	for t := mtype; t != nil; t = t.Parent() {
		if t.Is("text/plain") {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
}

// FromBytes builds a Document from raw content such as piped input. HTML is
// reduced to its text; other text passes through unchanged.
func FromBytes(data []byte) (*Document, error) {
	mtype := mimetype.Detect(data)
	if mtype.Is("text/html") {
		return &Document{Text: extractTextFromHTML(string(data)), Format: "HTML"}, nil
	}
	for t := mtype; t != nil; t = t.Parent() {
		if t.Is("text/plain") {
			return &Document{Text: string(data), Format: "Text"}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
}
