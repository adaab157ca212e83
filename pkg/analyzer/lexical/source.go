package lexical

import (
	"sort"
	"strings"
)

// Source is one file prepared for pattern matching. Stripped has comments
// blanked; Masked additionally blanks string and character literal
// contents and preprocessor lines. Both keep every byte offset and newline
// of Text, so a match position in either maps back to Text.
type Source struct {
	File     string
	Text     string
	Stripped string
	Masked   string

	lineStarts []int
}

// NewSource prepares text for the lexical detectors.
func NewSource(file, text string) *Source {
	s := &Source{
		File:     file,
		Text:     text,
		Stripped: blank(text, false),
		Masked:   blank(text, true),
	}
	s.lineStarts = append(s.lineStarts, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// LineAt returns the 1-based line containing byte offset off.
func (s *Source) LineAt(off int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > off
	})
}

// blank replaces comments (and, when literals is set, literal contents and
// preprocessor lines) with spaces.
func blank(text string, literals bool) string {
	src := []byte(text)
	out := []byte(text)
	n := len(src)
	clear := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	lineStart := true
	for i := 0; i < n; {
		c := src[i]
		switch {
		case c == '\n':
			lineStart = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			continue
		case literals && lineStart && c == '#':
			for i < n && src[i] != '\n' {
				if src[i] == '\\' && i+1 < n && src[i+1] == '\n' {
					clear(i)
					i += 2
					continue
				}
				clear(i)
				i++
			}
			continue
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				clear(i)
				i++
			}
			continue
		case c == '/' && i+1 < n && src[i+1] == '*':
			clear(i)
			clear(i + 1)
			i += 2
			for i < n && !(src[i] == '*' && i+1 < n && src[i+1] == '/') {
				clear(i)
				i++
			}
			if i < n {
				clear(i)
				clear(i + 1)
				i += 2
			}
		case c == '"' || c == '\'':
			j := i + 1
			for j < n && src[j] != c && src[j] != '\n' {
				if src[j] == '\\' && j+1 < n {
					if literals {
						clear(j)
						clear(j + 1)
					}
					j += 2
					continue
				}
				if literals {
					clear(j)
				}
				j++
			}
			i = j
			if j < n && src[j] == c {
				i++
			}
		default:
			i++
		}
		lineStart = false
	}
	return string(out)
}

// matchClose returns the offset of the bracket closing the one at open, or
// -1 when text ends first.
func matchClose(text string, open int) int {
	if open < 0 || open >= len(text) {
		return -1
	}
	opener := text[open]
	var closer byte
	switch opener {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	default:
		return -1
	}

	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// collapse squeezes whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
