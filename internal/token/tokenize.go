// Package token splits source text into display tokens and reads windows of them.
package token

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

// Unit is the granularity text is split at.
type Unit string

const (
	Char     Unit = "char"
	Word     Unit = "word"
	Sentence Unit = "sentence"
	Chunk    Unit = "chunk"
)

// ParseUnit reports the Unit named by s.
func ParseUnit(s string) (Unit, bool) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case Char, Word, Sentence, Chunk:
		return u, true
	}
	return "", false
}

// Joiner is the separator placed between tokens of this unit when they are shown together.
func (u Unit) Joiner() string {
	if u == Char {
		return ""
	}
	return " "
}

var (
	sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]?`)
	terminalRegex = regexp.MustCompile(`[.!?]["'”’»)\]}]?$`)
)

// Tokenize splits text by unit and groups the result into runs of chunkSize.
// A chunkSize below 1 is treated as 1. Empty text yields an empty sequence.
func Tokenize(text string, unit Unit, chunkSize int) []string {
	if chunkSize < 1 {
		chunkSize = 1
	}
	base := split(text, unit)
	if chunkSize == 1 {
		return base
	}
	return group(base, chunkSize, unit.Joiner())
}

func split(text string, unit Unit) []string {
	switch unit {
	case Char:
		out := make([]string, 0, len(text))
		g := uniseg.NewGraphemes(text)
		for g.Next() {
			out = append(out, g.Str())
		}
		return out
	case Sentence:
		out := []string{}
		for _, piece := range sentenceRegex.FindAllString(text, -1) {
			if s := strings.TrimSpace(piece); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return ParseText(text)
	}
}

func group(base []string, size int, joiner string) []string {
	out := make([]string, 0, (len(base)+size-1)/size)
	for i := 0; i < len(base); i += size {
		j := i + size
		if j > len(base) {
			j = len(base)
		}
		out = append(out, strings.Join(base[i:j], joiner))
	}
	return out
}

// ParseText splits text into words.
func ParseText(text string) []string {
	words := strings.Fields(text)
	if words == nil {
		return []string{}
	}
	return words
}

// EndsSentence reports whether tok ends with . ! or ?, optionally followed by
// a single closing quote or bracket.
func EndsSentence(tok string) bool {
	return terminalRegex.MatchString(tok)
}

// Length is the number of grapheme clusters in s.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
