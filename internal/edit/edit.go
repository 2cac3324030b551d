// Package edit models the tree of text edits produced by a rewrite: plain
// insert/delete/replace edits, bound copy and move source/target pairs, and
// zero-effect range markers. All offsets refer to the original buffer.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// Kind identifies an edit variant.
type Kind uint8

// Kind values.
const (
	KindMulti Kind = iota
	KindInsert
	KindDelete
	KindReplace
	KindCopySource
	KindCopyTarget
	KindMoveSource
	KindMoveTarget
	KindRangeMarker
)

func (k Kind) String() string {
	switch k {
	case KindMulti:
		return "Multi"
	case KindInsert:
		return "Insert"
	case KindDelete:
		return "Delete"
	case KindReplace:
		return "Replace"
	case KindCopySource:
		return "CopySource"
	case KindCopyTarget:
		return "CopyTarget"
	case KindMoveSource:
		return "MoveSource"
	case KindMoveTarget:
		return "MoveTarget"
	case KindRangeMarker:
		return "RangeMarker"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ErrMalformed is returned when an edit is added outside its parent's range.
var ErrMalformed = errors.New("malformed edit tree")

// Edit is one node of an edit tree.
type Edit struct {
	kind     Kind
	span     text.Span
	text     string
	parent   *Edit
	children []*Edit
	peer     *Edit
	modifier *SourceModifier
	group    *Group
}

// NewMulti returns an empty container edit, used as the root of a rewrite.
func NewMulti() *Edit { return &Edit{kind: KindMulti, span: text.Span{Start: -1, End: -1}} }

// NewInsert inserts s at off.
func NewInsert(off text.ByteOffset, s string) *Edit {
	return &Edit{kind: KindInsert, span: text.Span{Start: off, End: off}, text: s}
}

// NewDelete removes span.
func NewDelete(span text.Span) *Edit { return &Edit{kind: KindDelete, span: span} }

// NewReplace replaces span with s.
func NewReplace(span text.Span, s string) *Edit {
	return &Edit{kind: KindReplace, span: span, text: s}
}

// NewRangeMarker marks span without changing it.
func NewRangeMarker(span text.Span) *Edit { return &Edit{kind: KindRangeMarker, span: span} }

// NewCopySource marks span as the source of a copy.
func NewCopySource(span text.Span) *Edit { return &Edit{kind: KindCopySource, span: span} }

// NewMoveSource marks span as the source of a move. The region is removed
// when the tree is applied.
func NewMoveSource(span text.Span) *Edit { return &Edit{kind: KindMoveSource, span: span} }

// NewTarget creates the target bound to source at off. The target kind
// follows the source kind.
func NewTarget(source *Edit, off text.ByteOffset) (*Edit, error) {
	var kind Kind
	switch source.Kind() {
	case KindCopySource:
		kind = KindCopyTarget
	case KindMoveSource:
		kind = KindMoveTarget
	default:
		return nil, fmt.Errorf("%w: %s cannot be a copy source", ErrMalformed, source.Kind())
	}
	if source.peer != nil {
		return nil, fmt.Errorf("%w: source %s already bound", ErrMalformed, source.span)
	}
	t := &Edit{kind: kind, span: text.Span{Start: off, End: off}, peer: source}
	source.peer = t
	return t, nil
}

// Kind returns the edit variant.
func (e *Edit) Kind() Kind { return e.kind }

// Span returns the original-buffer range the edit covers.
func (e *Edit) Span() text.Span { return e.span }

// Offset returns the start offset.
func (e *Edit) Offset() text.ByteOffset { return e.span.Start }

// Length returns the number of original bytes covered.
func (e *Edit) Length() int { return int(e.span.Len()) }

// Text returns inserted or replacement text.
func (e *Edit) Text() string { return e.text }

// Parent returns the enclosing edit or nil for a root.
func (e *Edit) Parent() *Edit { return e.parent }

// Children returns the nested edits in insertion order.
func (e *Edit) Children() []*Edit { return e.children }

// HasChildren reports whether any edit is nested under e.
func (e *Edit) HasChildren() bool { return len(e.children) > 0 }

// Group returns the edit group e was added to, if any.
func (e *Edit) Group() *Group { return e.group }

// Source returns the source bound to a copy or move target.
func (e *Edit) Source() *Edit {
	if e.kind == KindCopyTarget || e.kind == KindMoveTarget {
		return e.peer
	}
	return nil
}

// Target returns the target bound to a copy or move source.
func (e *Edit) Target() *Edit {
	if e.kind == KindCopySource || e.kind == KindMoveSource {
		return e.peer
	}
	return nil
}

// Modifier returns the source modifier, if any.
func (e *Edit) Modifier() *SourceModifier { return e.modifier }

// SetModifier sets the transformation applied to captured source text.
func (e *Edit) SetModifier(m *SourceModifier) { e.modifier = m }

// AddChild nests child under e. Children of non-container edits must lie
// within the parent's range.
func (e *Edit) AddChild(child *Edit) error {
	if child.parent != nil {
		return fmt.Errorf("%w: %s already has a parent", ErrMalformed, child)
	}
	if e.kind != KindMulti && !e.span.ContainsSpan(child.span) && child.kind != KindMulti {
		return fmt.Errorf("%w: %s outside parent %s", ErrMalformed, child, e)
	}
	child.parent = e
	e.children = append(e.children, child)
	return nil
}

// LastChild returns the most recently added child.
func (e *Edit) LastChild() *Edit {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[len(e.children)-1]
}

// appendText extends an insert edit in place.
func (e *Edit) appendText(s string) { e.text += s }

// Covered returns the span covered by e and all its descendants.
func (e *Edit) Covered() text.Span {
	out := text.Span{Start: -1, End: -1}
	if e.kind != KindMulti {
		out = e.span
	}
	for _, c := range e.children {
		out = out.Union(c.Covered())
	}
	return out
}

// Walk visits e and its descendants depth-first. Returning false skips children.
func (e *Edit) Walk(fn func(*Edit) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// Count returns the number of edits in the tree rooted at e, excluding e.
func (e *Edit) Count() int {
	n := 0
	e.Walk(func(x *Edit) bool {
		if x != e {
			n++
		}
		return true
	})
	return n
}

func (e *Edit) String() string {
	switch e.kind {
	case KindMulti:
		return fmt.Sprintf("Multi(%d)", len(e.children))
	case KindInsert:
		return fmt.Sprintf("Insert(%d, %q)", e.span.Start, e.text)
	case KindReplace:
		return fmt.Sprintf("Replace(%s, %q)", e.span, e.text)
	default:
		return fmt.Sprintf("%s(%s)", e.kind, e.span)
	}
}

// Dump renders the edit tree as an indented outline.
func Dump(root *Edit) string {
	var b strings.Builder
	var rec func(e *Edit, depth int)
	rec = func(e *Edit, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(e.String())
		if e.group != nil {
			fmt.Fprintf(&b, " [%s]", e.group.Name())
		}
		b.WriteByte('\n')
		for _, c := range e.children {
			rec(c, depth+1)
		}
	}
	rec(root, 0)
	return b.String()
}

// SourceModifier re-indents text captured by a copy or move source so it fits
// its destination.
type SourceModifier struct {
	SourceIndent int
	DestIndent   string
	Indent       format.IndentOptions
	Newline      string
}

// Modify applies the re-indentation to s.
func (m *SourceModifier) Modify(s string) string {
	if m == nil {
		return s
	}
	return format.ChangeIndent(s, m.SourceIndent, m.Indent, m.DestIndent, m.Newline)
}
