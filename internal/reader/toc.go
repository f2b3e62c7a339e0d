package reader

// TOCEntry is one navigation point. WordIndex counts whitespace separated
// words from the start of the extracted text, so it survives retokenizing.
type TOCEntry struct {
	Title     string
	Preview   string
	WordIndex int
	Level     int
}

// Chapter spans the words [WordStart, WordEnd] of the extracted text.
type Chapter struct {
	Title     string
	WordStart int
	WordEnd   int
}

// Words returns the number of words in the chapter.
func (c Chapter) Words() int { return max(c.WordEnd-c.WordStart+1, 0) }

// TOCProvider is implemented by formats that carry navigation data.
type TOCProvider interface {
	TOC(filename string) ([]TOCEntry, error)
}

// ChapterExtractor is implemented by formats that split into chapters
// while extracting words.
type ChapterExtractor interface {
	ExtractChapters(filename string) ([]Chapter, []string, error)
}

// chapterAt returns the index of the last chapter starting at or before word.
func chapterAt(chapters []Chapter, word int) int {
	for i := len(chapters) - 1; i >= 0; i-- {
		if word >= chapters[i].WordStart {
			return i
		}
	}
	return 0
}
