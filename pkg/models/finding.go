package models

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	maxExcerptLines = 5
	maxExcerptBytes = 300
)

// FindingID returns a stable identifier for a finding. The ordinal
// distinguishes findings that share every other attribute.
func FindingID(file string, kind SmellKind, line int, entity string, ordinal int) string {
	d := xxhash.New()
	_, _ = d.WriteString(file)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(kind))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(entity)

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(line))
	binary.LittleEndian.PutUint64(buf[8:], uint64(ordinal))
	_, _ = d.Write(buf[:])

	return fmt.Sprintf("%s-%016x", kind, d.Sum64())
}

// Excerpt returns up to five lines of text starting at the 1-based line,
// truncated to 300 bytes.
func Excerpt(text string, line int) string {
	if line < 1 {
		line = 1
	}
	lines := strings.Split(text, "\n")
	if line > len(lines) {
		return ""
	}
	end := min(line-1+maxExcerptLines, len(lines))
	return Truncate(strings.Join(lines[line-1:end], "\n"), maxExcerptBytes)
}

// Truncate shortens s to at most n bytes plus a "..." marker, never
// splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// AssignIDs fills in the ID of every finding, counting ordinals per
// (kind, line, entity) so repeated findings stay distinct.
func AssignIDs(file string, findings []Finding) {
	type key struct {
		kind   SmellKind
		line   int
		entity string
	}
	seen := make(map[key]int, len(findings))
	for i := range findings {
		f := &findings[i]
		k := key{f.Kind, f.Line, f.Entity}
		f.ID = FindingID(file, f.Kind, f.Line, f.Entity, seen[k])
		seen[k]++
	}
}
