// Package source holds the raw bytes of one file plus the line-offset
// index needed to convert byte offsets into (line, column) positions.
package source

import (
	"bytes"
	"unicode/utf8"

	"github.com/reap-dev/reap/pkg/token"
)

// Buffer is the immutable source of one file: its bytes, plus a
// line-start index built once up front so position lookups during
// lexing/diagnostics are O(log n) instead of re-scanning.
type Buffer struct {
	Path string
	Text []byte

	// lineStarts[i] is the byte offset of the first byte of line i+1
	// (1-based lines). lineStarts[0] is always 0.
	lineStarts []int
}

// New builds a Buffer from raw file bytes. A leading UTF-8 BOM is
// stripped and CRLF/CR line endings are normalized to LF, mirroring the
// "normalizing the source to a consistent newline convention" the
// human-output contract requires before measuring line/column.
func New(path string, raw []byte) *Buffer {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	raw = normalizeNewlines(raw)

	b := &Buffer{Path: path, Text: raw}
	b.lineStarts = []int{0}
	for i, c := range raw {
		if c == '\n' {
			b.lineStarts = append(b.lineStarts, i+1)
		}
	}
	return b
}

func normalizeNewlines(raw []byte) []byte {
	if !bytes.ContainsRune(raw, '\r') {
		return raw
	}
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	return raw
}

// Slice returns the text covered by span. It does not copy.
func (b *Buffer) Slice(span token.Span) []byte {
	return b.Text[span.Start:span.End]
}

// Position converts a 0-based byte offset into a 1-based (line, column)
// position. Column is measured in runes from the start of the line,
// not bytes.
func (b *Buffer) Position(offset int) token.Position {
	line := b.lineForOffset(offset)
	lineStart := b.lineStarts[line-1]
	col := utf8.RuneCount(b.Text[lineStart:offset]) + 1
	return token.Position{Line: line, Column: col, Offset: offset}
}

// lineForOffset returns the 1-based line number containing offset via
// binary search over lineStarts.
func (b *Buffer) lineForOffset(offset int) int {
	lo, hi := 0, len(b.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int {
	return len(b.lineStarts)
}

// Line returns the raw bytes of the given 1-based line, without its
// trailing newline.
func (b *Buffer) Line(n int) []byte {
	if n < 1 || n > len(b.lineStarts) {
		return nil
	}
	start := b.lineStarts[n-1]
	end := len(b.Text)
	if n < len(b.lineStarts) {
		end = b.lineStarts[n] - 1 // exclude the newline itself
	}
	if end > len(b.Text) {
		end = len(b.Text)
	}
	return bytes.TrimRight(b.Text[start:end], "\r")
}
