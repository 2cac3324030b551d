// Package treesitter converts byte edits into tree-sitter input edits, so
// editors holding a parsed tree can reparse a rewritten file incrementally.
package treesitter

import (
	"bytes"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// InputEdits converts byte edits against src into tree-sitter input edits.
// The result is ordered from the end of the buffer backwards, so every edit
// can be passed to Tree.Edit in turn without shifting the coordinates of the
// ones that follow it.
func InputEdits(src []byte, edits []text.ByteEdit) ([]sitter.InputEdit, error) {
	if err := text.ValidateEdits(text.ByteOffset(len(src)), edits); err != nil {
		return nil, err
	}
	sorted := text.SortEdits(edits)
	li := text.NewLineIndex(src)

	out := make([]sitter.InputEdit, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		start, err := li.OffsetToPoint(e.Span.Start)
		if err != nil {
			return nil, fmt.Errorf("edit %s: %w", e.Span, err)
		}
		oldEnd, err := li.OffsetToPoint(e.Span.End)
		if err != nil {
			return nil, fmt.Errorf("edit %s: %w", e.Span, err)
		}
		out = append(out, sitter.InputEdit{
			StartByte:      uint(e.Span.Start),
			OldEndByte:     uint(e.Span.End),
			NewEndByte:     uint(e.Span.Start) + uint(len(e.NewText)),
			StartPosition:  toPoint(start),
			OldEndPosition: toPoint(oldEnd),
			NewEndPosition: toPoint(advance(start, e.NewText)),
		})
	}
	return out, nil
}

// advance returns the point reached by writing inserted at p.
func advance(p text.Point, inserted []byte) text.Point {
	n := bytes.Count(inserted, []byte{'\n'})
	if n == 0 {
		return text.Point{Line: p.Line, Column: p.Column + len(inserted)}
	}
	last := bytes.LastIndexByte(inserted, '\n')
	return text.Point{Line: p.Line + n, Column: len(inserted) - last - 1}
}

func toPoint(p text.Point) sitter.Point {
	return sitter.Point{Row: uint(p.Line), Column: uint(p.Column)}
}

// Point is the JSON form of a tree-sitter point.
type Point struct {
	Row    uint `json:"row"`
	Column uint `json:"column"`
}

// Edit is the JSON form of a tree-sitter input edit.
type Edit struct {
	StartByte   uint  `json:"start_byte"`
	OldEndByte  uint  `json:"old_end_byte"`
	NewEndByte  uint  `json:"new_end_byte"`
	StartPoint  Point `json:"start_point"`
	OldEndPoint Point `json:"old_end_point"`
	NewEndPoint Point `json:"new_end_point"`
}

// Records converts input edits to their JSON form.
func Records(edits []sitter.InputEdit) []Edit {
	out := make([]Edit, 0, len(edits))
	for _, e := range edits {
		out = append(out, Edit{
			StartByte:   e.StartByte,
			OldEndByte:  e.OldEndByte,
			NewEndByte:  e.NewEndByte,
			StartPoint:  Point{Row: e.StartPosition.Row, Column: e.StartPosition.Column},
			OldEndPoint: Point{Row: e.OldEndPosition.Row, Column: e.OldEndPosition.Column},
			NewEndPoint: Point{Row: e.NewEndPosition.Row, Column: e.NewEndPosition.Column},
		})
	}
	return out
}
