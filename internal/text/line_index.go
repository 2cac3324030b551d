package text

import (
	"errors"
	"fmt"
	"slices"
)

// LineIndex maps byte offsets to line/column locations over a UTF-8 source buffer.
// It is the read-only locator used by the rewrite engine.
//
// Line and column semantics:
//   - Line numbers are 0-based.
//   - Point columns are byte columns.
//   - Line terminators belong to the line they end.
type LineIndex struct {
	src        []byte
	lineStarts []ByteOffset
}

var errNilLineIndex = errors.New("nil LineIndex")

// NewLineIndex builds an index over src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []ByteOffset{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return &LineIndex{
		src:        src,
		lineStarts: starts,
	}
}

// Source returns the indexed buffer. Callers must not mutate it.
func (li *LineIndex) Source() []byte {
	if li == nil {
		return nil
	}
	return li.src
}

// SourceLen returns the source length in bytes.
func (li *LineIndex) SourceLen() ByteOffset {
	if li == nil {
		return 0
	}
	return ByteOffset(len(li.src))
}

// LineCount returns the number of logical lines in the source.
func (li *LineIndex) LineCount() int {
	if li == nil {
		return 0
	}
	return len(li.lineStarts)
}

// OffsetToPoint converts a byte offset to a UTF-8 byte-based point.
func (li *LineIndex) OffsetToPoint(off ByteOffset) (Point, error) {
	if li == nil {
		return Point{}, errNilLineIndex
	}
	if err := li.validateOffset(off); err != nil {
		return Point{}, err
	}

	line := li.lineForOffset(off)
	start := li.lineStarts[line]
	return Point{
		Line:   line,
		Column: int(off - start),
	}, nil
}

// PointToOffset converts a UTF-8 byte-based point to a byte offset.
func (li *LineIndex) PointToOffset(p Point) (ByteOffset, error) {
	if li == nil {
		return 0, errNilLineIndex
	}
	if err := li.validateLine(p.Line); err != nil {
		return 0, err
	}
	if p.Column < 0 {
		return 0, fmt.Errorf("column out of range: %d", p.Column)
	}

	start, _, _ := li.lineBounds(p.Line)
	maxColumn := li.maxPointColumn(p.Line)
	if p.Column > maxColumn {
		return 0, fmt.Errorf("column out of range: line=%d column=%d max=%d", p.Line, p.Column, maxColumn)
	}
	return start + ByteOffset(p.Column), nil
}

// OffsetOf returns the offset of (line, col).
func (li *LineIndex) OffsetOf(line, col int) (ByteOffset, error) {
	return li.PointToOffset(Point{Line: line, Column: col})
}

// LineOf returns the line containing off and the column of off within it.
// Offsets past the end clamp to the last line.
func (li *LineIndex) LineOf(off ByteOffset) (line, col int) {
	if li == nil {
		return 0, 0
	}
	off = li.clamp(off)
	line = li.lineForOffset(off)
	return line, int(off - li.lineStarts[line])
}

// LineNumber returns the 0-based line containing off.
func (li *LineIndex) LineNumber(off ByteOffset) int {
	line, _ := li.LineOf(off)
	return line
}

// LineStart returns the offset of the first byte of line. Lines past the end
// resolve to the source length.
func (li *LineIndex) LineStart(line int) ByteOffset {
	if li == nil || line < 0 {
		return 0
	}
	if line >= len(li.lineStarts) {
		return ByteOffset(len(li.src))
	}
	return li.lineStarts[line]
}

// LineContent returns the span of line excluding its terminator.
func (li *LineIndex) LineContent(line int) Span {
	if li == nil || li.validateLine(line) != nil {
		return Span{}
	}
	start, _, end := li.lineBounds(line)
	return Span{Start: start, End: end}
}

// LineStartOf returns the start offset of the line containing off.
func (li *LineIndex) LineStartOf(off ByteOffset) ByteOffset {
	return li.LineStart(li.LineNumber(off))
}

func (li *LineIndex) clamp(off ByteOffset) ByteOffset {
	switch {
	case off < 0:
		return 0
	case off > ByteOffset(len(li.src)):
		return ByteOffset(len(li.src))
	default:
		return off
	}
}

func (li *LineIndex) validateOffset(off ByteOffset) error {
	if !off.IsValid() {
		return fmt.Errorf("offset out of range: %d", off)
	}
	if off > ByteOffset(len(li.src)) {
		return fmt.Errorf("offset out of range: %d > %d", off, len(li.src))
	}
	return nil
}

func (li *LineIndex) validateLine(line int) error {
	if line < 0 || line >= li.LineCount() {
		return fmt.Errorf("line out of range: %d", line)
	}
	return nil
}

func (li *LineIndex) lineForOffset(off ByteOffset) int {
	// largest i such that lineStarts[i] <= off
	i, found := slices.BinarySearch(li.lineStarts, off)
	if found {
		return i
	}
	return i - 1
}

func (li *LineIndex) lineBounds(line int) (start ByteOffset, nextStart ByteOffset, contentEnd ByteOffset) {
	start = li.lineStarts[line]
	if line+1 < len(li.lineStarts) {
		nextStart = li.lineStarts[line+1]
	} else {
		nextStart = ByteOffset(len(li.src))
	}
	contentEnd = nextStart
	if contentEnd > start && li.src[contentEnd-1] == '\n' {
		contentEnd--
		if contentEnd > start && li.src[contentEnd-1] == '\r' {
			contentEnd--
		}
	}
	return start, nextStart, contentEnd
}

func (li *LineIndex) maxPointColumn(line int) int {
	start, nextStart, _ := li.lineBounds(line)
	maxColumn := int(nextStart - start)
	if line < li.LineCount()-1 {
		// Non-final lines canonicalize the start of the next line to the next line, not current line.
		maxColumn--
	}
	return maxColumn
}
