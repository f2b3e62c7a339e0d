package token

import "strings"

// Wrap maps i into [0, n) using floor modulo. It returns 0 when n is 0.
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Window returns the text shown when playback sits at start: size tokens read
// circularly from start and joined for unit.
func Window(tokens []string, start, size int, unit Unit) string {
	if len(tokens) == 0 {
		return ""
	}
	start = Wrap(start, len(tokens))
	if size <= 1 {
		return tokens[start]
	}
	return strings.Join(span(tokens, start, size), unit.Joiner())
}

// AdvanceLength is the character length of the text covered by count tokens
// from start, wrapping like Window. It never returns less than 1.
func AdvanceLength(tokens []string, start, count int, unit Unit) int {
	if len(tokens) == 0 {
		return 1
	}
	if count < 1 {
		count = 1
	}
	n := Length(strings.Join(span(tokens, Wrap(start, len(tokens)), count), unit.Joiner()))
	if n < 1 {
		return 1
	}
	return n
}

func span(tokens []string, start, size int) []string {
	out := make([]string, size)
	for i := range out {
		out[i] = tokens[(start+i)%len(tokens)]
	}
	return out
}
