// Package textutil provides text truncation and wrapping helpers shared by
// the extraction pipeline and the CLI.
package textutil

import "strings"

const ellipsis = "..."

// FloorRuneBoundary returns the largest valid UTF-8 boundary <= pos, so a
// cut never splits a multi-byte rune.
func FloorRuneBoundary(s string, pos int) int {
	if pos >= len(s) {
		return len(s)
	}
	for pos > 0 && s[pos]&0xC0 == 0x80 {
		pos--
	}
	return pos
}

// Truncate cuts s to at most max bytes, reserving room for an ellipsis.
// The cut lands on a rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis
	}
	end := FloorRuneBoundary(s, max-len(ellipsis))
	return s[:end] + ellipsis
}

// TruncateAtSpace cuts s to at most max bytes and appends an ellipsis,
// preferring the nearest space within 50 bytes of the cut point so words
// are not split mid-way.
func TruncateAtSpace(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis
	}
	end := FloorRuneBoundary(s, max-len(ellipsis))
	cut := s[:end]
	if sp := strings.LastIndex(cut, " "); sp > end-50 && sp > 0 {
		return s[:sp] + ellipsis
	}
	return cut + ellipsis
}

// WrapWords greedily wraps text at the given column width, one word never
// split across lines. Consecutive whitespace collapses to single spaces.
func WrapWords(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var b strings.Builder
	for _, w := range words {
		if b.Len() == 0 {
			b.WriteString(w)
			continue
		}
		if b.Len()+1+len(w) > width {
			lines = append(lines, b.String())
			b.Reset()
			b.WriteString(w)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(w)
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}
