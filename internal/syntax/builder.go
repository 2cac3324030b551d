package syntax

import (
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// Builder appends nodes to a tree's arena. Parsers use it to create original
// nodes; rewrite sessions use it to synthesize new ones.
type Builder struct {
	tree *Tree
}

// NewBuilder returns a builder over t.
func NewBuilder(t *Tree) *Builder {
	return &Builder{tree: t}
}

// Tree returns the tree being built.
func (b *Builder) Tree() *Tree { return b.tree }

// Original appends a parsed node covering span.
func (b *Builder) Original(kind Kind, span text.Span) NodeID {
	return b.add(kind, span, 0)
}

// New appends a synthesized node without source span.
func (b *Builder) New(kind Kind) NodeID {
	return b.add(kind, text.Span{Start: -1, End: -1}, NodeFlagSynthesized)
}

func (b *Builder) add(kind Kind, span text.Span, flags NodeFlags) NodeID {
	info := b.tree.Schema.Info(kind)
	if info == nil {
		panic(fmt.Sprintf("syntax: unknown kind %d", kind))
	}
	id := NodeID(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{
		ID:     id,
		Kind:   kind,
		Span:   span,
		Values: make([]Value, len(info.Properties)),
		Flags:  flags,
	})
	return id
}

// SetSpan updates the span of an original node while it is being parsed.
func (b *Builder) SetSpan(id NodeID, span text.Span) {
	if n := b.tree.NodeByID(id); n != nil {
		n.Span = span
	}
}

// MarkError flags a node produced by parser recovery.
func (b *Builder) MarkError(id NodeID) {
	if n := b.tree.NodeByID(id); n != nil {
		n.Flags |= NodeFlagError
	}
}

// SetChild stores child in the named single-valued property of id.
func (b *Builder) SetChild(id NodeID, name string, child NodeID) *Builder {
	i := b.mustProperty(id, name, PropertyChild)
	b.tree.Nodes[id].Values[i].Node = child
	b.adopt(id, child)
	return b
}

// SetList stores children in the named list property of id.
func (b *Builder) SetList(id NodeID, name string, children ...NodeID) *Builder {
	i := b.mustProperty(id, name, PropertyList)
	b.tree.Nodes[id].Values[i].List = append([]NodeID(nil), children...)
	for _, c := range children {
		b.adopt(id, c)
	}
	return b
}

// Append adds child to the end of the named list property of id.
func (b *Builder) Append(id NodeID, name string, child NodeID) *Builder {
	i := b.mustProperty(id, name, PropertyList)
	b.tree.Nodes[id].Values[i].List = append(b.tree.Nodes[id].Values[i].List, child)
	b.adopt(id, child)
	return b
}

// SetScalar stores s in the named scalar property of id.
func (b *Builder) SetScalar(id NodeID, name, s string) *Builder {
	i := b.mustProperty(id, name, PropertyScalar)
	b.tree.Nodes[id].Values[i].Scalar = s
	return b
}

func (b *Builder) adopt(parent, child NodeID) {
	if n := b.tree.NodeByID(child); n != nil {
		n.Parent = parent
	}
}

func (b *Builder) mustProperty(id NodeID, name string, kind PropertyKind) int {
	n := b.tree.NodeByID(id)
	if n == nil {
		panic(fmt.Sprintf("syntax: unknown node %d", id))
	}
	i, ok := b.tree.Schema.PropertyIndex(n.Kind, name)
	if !ok {
		panic(fmt.Sprintf("syntax: %s has no property %q", b.tree.Schema.KindName(n.Kind), name))
	}
	if got := b.tree.Schema.Properties(n.Kind)[i].Kind; got != kind {
		panic(fmt.Sprintf("syntax: %s.%s is a %s property, not %s", b.tree.Schema.KindName(n.Kind), name, got, kind))
	}
	return i
}
