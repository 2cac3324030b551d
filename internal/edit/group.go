package edit

import "github.com/kpumuk/thrift-rewrite/internal/text"

// Group collects the edits produced for one change request.
type Group struct {
	name  string
	edits []*Edit
}

// NewGroup returns an empty named group.
func NewGroup(name string) *Group { return &Group{name: name} }

// Name returns the group name.
func (g *Group) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}

// Edits returns the edits attributed to the group.
func (g *Group) Edits() []*Edit {
	if g == nil {
		return nil
	}
	return g.edits
}

// IsEmpty reports whether no edits were attributed to the group.
func (g *Group) IsEmpty() bool { return g == nil || len(g.edits) == 0 }

// Add attributes e to g. A nil group is a no-op.
func (g *Group) Add(e *Edit) {
	if g == nil || e == nil {
		return
	}
	e.group = g
	g.edits = append(g.edits, e)
}

// AppendInsert extends the last child of parent when it is a plain insert at
// off attributed to g, returning true. Otherwise it returns false and the
// caller adds a new edit.
func AppendInsert(parent *Edit, g *Group, off text.ByteOffset, s string) bool {
	last := parent.LastChild()
	if last == nil || last.kind != KindInsert || last.span.Start != off || last.group != g || last.HasChildren() {
		return false
	}
	last.appendText(s)
	return true
}

// ExtendDelete grows the last child of parent to cover span when it is a
// delete ending at span.Start attributed to g, and returns it. Otherwise it
// returns nil and the caller adds a new edit.
func ExtendDelete(parent *Edit, g *Group, span text.Span) *Edit {
	last := parent.LastChild()
	if last == nil || last.kind != KindDelete || last.span.End != span.Start || last.group != g {
		return nil
	}
	grown := text.Span{Start: last.span.Start, End: span.End}
	if parent.kind != KindMulti && !parent.span.ContainsSpan(grown) {
		return nil
	}
	last.span = grown
	return last
}
