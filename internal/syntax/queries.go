package syntax

import "github.com/kpumuk/thrift-rewrite/internal/text"

// Value returns the stored value of property prop of id.
func (t *Tree) Value(id NodeID, prop int) Value {
	n := t.NodeByID(id)
	if n == nil || prop < 0 || prop >= len(n.Values) {
		return Value{}
	}
	return n.Values[prop]
}

// Child returns the child node stored in the named property.
func (t *Tree) Child(id NodeID, name string) NodeID {
	return t.Value(id, t.propertyIndex(id, name)).Node
}

// List returns the child list stored in the named property.
func (t *Tree) List(id NodeID, name string) []NodeID {
	return t.Value(id, t.propertyIndex(id, name)).List
}

// Scalar returns the scalar stored in the named property.
func (t *Tree) Scalar(id NodeID, name string) string {
	return t.Value(id, t.propertyIndex(id, name)).Scalar
}

// PropertyIndex resolves a property name for the kind of id.
func (t *Tree) PropertyIndex(id NodeID, name string) (int, bool) {
	n := t.NodeByID(id)
	if n == nil {
		return -1, false
	}
	return t.Schema.PropertyIndex(n.Kind, name)
}

func (t *Tree) propertyIndex(id NodeID, name string) int {
	i, _ := t.PropertyIndex(id, name)
	return i
}

// ChildNodeIDs returns direct child nodes in property order.
func (t *Tree) ChildNodeIDs(id NodeID) []NodeID {
	n := t.NodeByID(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for i, p := range t.Schema.Properties(n.Kind) {
		if i >= len(n.Values) {
			break
		}
		switch p.Kind {
		case PropertyChild:
			if c := n.Values[i].Node; c != NoNode {
				out = append(out, c)
			}
		case PropertyList:
			out = append(out, n.Values[i].List...)
		}
	}
	return out
}

// Walk visits id and its descendants depth-first in property order. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if t.NodeByID(id) == nil {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range t.ChildNodeIDs(id) {
		t.Walk(c, fn)
	}
}

// Ancestors returns the parent chain of id, nearest first.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for n := t.NodeByID(id); n != nil && n.Parent != NoNode; n = t.NodeByID(n.Parent) {
		out = append(out, n.Parent)
	}
	return out
}

// Text returns the source bytes covered by an original node.
func (t *Tree) Text(id NodeID) []byte {
	n := t.NodeByID(id)
	if !n.IsOriginal() || !n.Span.IsValid() || n.Span.End > text.ByteOffset(len(t.Source)) {
		return nil
	}
	return t.Source[n.Span.Start:n.Span.End]
}

// NodeAt returns the innermost original node whose span contains off.
func (t *Tree) NodeAt(off text.ByteOffset) NodeID {
	found := NoNode
	t.Walk(t.Root, func(id NodeID) bool {
		n := t.NodeByID(id)
		if !n.IsOriginal() || !(n.Span.Contains(off) || (n.Span.IsEmpty() && n.Span.Start == off)) {
			return false
		}
		found = id
		return true
	})
	return found
}
