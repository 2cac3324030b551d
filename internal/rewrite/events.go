package rewrite

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// ChangeKind classifies a property or list slot.
type ChangeKind uint8

// ChangeKind values.
const (
	Unchanged ChangeKind = iota
	Inserted
	Removed
	Replaced
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	default:
		return fmt.Sprintf("ChangeKind(%d)", k)
	}
}

// NodeEvent records the original and new value of a child property or of one
// list slot. The change kind is derived from the two values.
type NodeEvent struct {
	original syntax.NodeID
	value    syntax.NodeID
	group    *edit.Group
}

// NewNodeEvent returns an event of the given kind. The values must agree with
// kind: an inserted event has no original, a removed event no new value, a
// replaced event two distinct values and an unchanged event identical ones.
func NewNodeEvent(kind ChangeKind, original, value syntax.NodeID) (*NodeEvent, error) {
	ev := &NodeEvent{original: original, value: value}
	if got := ev.Kind(); got != kind {
		return nil, contractf("NewNodeEvent", original, "%s event with original %d and new value %d is %s", kind, original, value, got)
	}
	return ev, nil
}

// Kind derives the change kind from the original and new value.
func (e *NodeEvent) Kind() ChangeKind {
	switch {
	case e == nil || e.original == e.value:
		return Unchanged
	case e.original == syntax.NoNode:
		return Inserted
	case e.value == syntax.NoNode:
		return Removed
	default:
		return Replaced
	}
}

// Original returns the value in the parsed tree.
func (e *NodeEvent) Original() syntax.NodeID {
	if e == nil {
		return syntax.NoNode
	}
	return e.original
}

// New returns the value after the rewrite.
func (e *NodeEvent) New() syntax.NodeID {
	if e == nil {
		return syntax.NoNode
	}
	return e.value
}

// Group returns the edit group attributed to the event.
func (e *NodeEvent) Group() *edit.Group {
	if e == nil {
		return nil
	}
	return e.group
}

// SetGroup attributes later edits of the event to g.
func (e *NodeEvent) SetGroup(g *edit.Group) { e.group = g }

func (e *NodeEvent) String() string {
	return fmt.Sprintf("%s(%d -> %d)", e.Kind(), e.original, e.value)
}

// ScalarEvent records a change of a scalar property. An empty string is an
// absent value.
type ScalarEvent struct {
	original string
	value    string
	group    *edit.Group
}

// Kind derives the change kind from the original and new text.
func (e *ScalarEvent) Kind() ChangeKind {
	switch {
	case e == nil || e.original == e.value:
		return Unchanged
	case e.original == "":
		return Inserted
	case e.value == "":
		return Removed
	default:
		return Replaced
	}
}

// Original returns the parsed text.
func (e *ScalarEvent) Original() string {
	if e == nil {
		return ""
	}
	return e.original
}

// New returns the text after the rewrite.
func (e *ScalarEvent) New() string {
	if e == nil {
		return ""
	}
	return e.value
}

// Group returns the edit group attributed to the event.
func (e *ScalarEvent) Group() *edit.Group {
	if e == nil {
		return nil
	}
	return e.group
}

// ListEvent holds one slot per original element plus one per inserted
// element. Dropping inserted slots yields the original list and dropping
// removed slots yields the new list.
type ListEvent struct {
	slots []*NodeEvent
}

func newListEvent(original []syntax.NodeID) *ListEvent {
	ev := &ListEvent{slots: make([]*NodeEvent, 0, len(original))}
	for _, id := range original {
		ev.slots = append(ev.slots, &NodeEvent{original: id, value: id})
	}
	return ev
}

// Slots returns the slot events in order.
func (e *ListEvent) Slots() []*NodeEvent { return e.slots }

// Kind is Replaced when any slot changed and Unchanged otherwise.
func (e *ListEvent) Kind() ChangeKind {
	if e == nil {
		return Unchanged
	}
	for _, s := range e.slots {
		if s.Kind() != Unchanged {
			return Replaced
		}
	}
	return Unchanged
}

// AllOf reports whether every slot has kind k. An empty list reports false.
func (e *ListEvent) AllOf(k ChangeKind) bool {
	if e == nil || len(e.slots) == 0 {
		return false
	}
	for _, s := range e.slots {
		if s.Kind() != k {
			return false
		}
	}
	return true
}

// OriginalList reconstructs the list before the rewrite.
func (e *ListEvent) OriginalList() []syntax.NodeID {
	var out []syntax.NodeID
	for _, s := range e.slots {
		if s.original != syntax.NoNode {
			out = append(out, s.original)
		}
	}
	return out
}

// NewList reconstructs the list after the rewrite.
func (e *ListEvent) NewList() []syntax.NodeID {
	var out []syntax.NodeID
	for _, s := range e.slots {
		if s.value != syntax.NoNode {
			out = append(out, s.value)
		}
	}
	return out
}

// Insert adds node at index in new-list coordinates. An index of -1 appends.
func (e *ListEvent) Insert(node syntax.NodeID, index int, g *edit.Group) (*NodeEvent, error) {
	if node == syntax.NoNode {
		return nil, contractf("ListEvent.Insert", node, "cannot insert an empty node")
	}
	if e.IndexOf(node) >= 0 {
		return nil, contractf("ListEvent.Insert", node, "node is already in the list")
	}
	slot := &NodeEvent{value: node, group: g}
	if index == -1 {
		e.slots = append(e.slots, slot)
		return slot, nil
	}
	cur := 0
	for i, s := range e.slots {
		if s.Kind() == Removed {
			continue
		}
		if cur == index {
			e.slots = slices.Insert(e.slots, i, slot)
			return slot, nil
		}
		cur++
	}
	if cur == index {
		e.slots = append(e.slots, slot)
		return slot, nil
	}
	return nil, contractf("ListEvent.Insert", node, "index %d out of range [0, %d]", index, cur)
}

// Remove drops node from the new list. Removing an inserted node deletes its
// slot.
func (e *ListEvent) Remove(node syntax.NodeID, g *edit.Group) error {
	return e.Replace(node, syntax.NoNode, g)
}

// Replace substitutes with for node in the new list.
func (e *ListEvent) Replace(node, with syntax.NodeID, g *edit.Group) error {
	for i, s := range e.slots {
		if s.original != node && s.value != node {
			continue
		}
		if s.original == syntax.NoNode && with == syntax.NoNode {
			e.slots = slices.Delete(e.slots, i, i+1)
			return nil
		}
		s.value = with
		s.group = g
		return nil
	}
	return contractf("ListEvent.Replace", node, "node is not an element of the list")
}

// SetNewValue overwrites the new value of slot i.
func (e *ListEvent) SetNewValue(i int, node syntax.NodeID) error {
	if i < 0 || i >= len(e.slots) {
		return contractf("ListEvent.SetNewValue", node, "slot %d out of range", i)
	}
	s := e.slots[i]
	if s.original == syntax.NoNode && node == syntax.NoNode {
		return contractf("ListEvent.SetNewValue", node, "inserted slot %d cannot become empty", i)
	}
	s.value = node
	return nil
}

// IndexOf returns the position of node in the new list, or -1.
func (e *ListEvent) IndexOf(node syntax.NodeID) int {
	return slices.Index(e.NewList(), node)
}

type propKey struct {
	node syntax.NodeID
	prop string
}

// Store holds the events of one rewrite session. Properties without an event
// are unchanged.
type Store struct {
	tree    *syntax.Tree
	nodes   map[propKey]*NodeEvent
	lists   map[propKey]*ListEvent
	scalars map[propKey]*ScalarEvent
}

// NewStore returns an empty store over tree.
func NewStore(tree *syntax.Tree) *Store {
	return &Store{
		tree:    tree,
		nodes:   map[propKey]*NodeEvent{},
		lists:   map[propKey]*ListEvent{},
		scalars: map[propKey]*ScalarEvent{},
	}
}

// Tree returns the tree the events refer to.
func (s *Store) Tree() *syntax.Tree { return s.tree }

// Event returns the event of a child property, or nil.
func (s *Store) Event(node syntax.NodeID, prop string) *NodeEvent {
	return s.nodes[propKey{node, prop}]
}

// ListEvent returns the event of a list property, or nil.
func (s *Store) ListEvent(node syntax.NodeID, prop string) *ListEvent {
	return s.lists[propKey{node, prop}]
}

// ScalarEvent returns the event of a scalar property, or nil.
func (s *Store) ScalarEvent(node syntax.NodeID, prop string) *ScalarEvent {
	return s.scalars[propKey{node, prop}]
}

// Len returns the number of recorded events.
func (s *Store) Len() int { return len(s.nodes) + len(s.lists) + len(s.scalars) }

// EnsureListEvent returns the event of a list property, creating one from the
// current list when none exists.
func (s *Store) EnsureListEvent(node syntax.NodeID, prop string) (*ListEvent, error) {
	if err := s.checkProperty(node, prop, syntax.PropertyList); err != nil {
		return nil, err
	}
	k := propKey{node, prop}
	if ev, ok := s.lists[k]; ok {
		return ev, nil
	}
	ev := newListEvent(s.tree.List(node, prop))
	s.lists[k] = ev
	return ev, nil
}

// SetChild records value as the new content of a child property.
func (s *Store) SetChild(node syntax.NodeID, prop string, value syntax.NodeID, g *edit.Group) (*NodeEvent, error) {
	if err := s.checkProperty(node, prop, syntax.PropertyChild); err != nil {
		return nil, err
	}
	k := propKey{node, prop}
	ev, ok := s.nodes[k]
	if !ok {
		ev = &NodeEvent{original: s.tree.Child(node, prop)}
		s.nodes[k] = ev
	}
	ev.value = value
	ev.group = g
	return ev, nil
}

// SetScalar records value as the new content of a scalar property.
func (s *Store) SetScalar(node syntax.NodeID, prop, value string, g *edit.Group) (*ScalarEvent, error) {
	if err := s.checkProperty(node, prop, syntax.PropertyScalar); err != nil {
		return nil, err
	}
	k := propKey{node, prop}
	ev, ok := s.scalars[k]
	if !ok {
		ev = &ScalarEvent{original: s.tree.Scalar(node, prop)}
		s.scalars[k] = ev
	}
	ev.value = value
	ev.group = g
	return ev, nil
}

// HasChildrenChanges reports whether any property of node changed.
func (s *Store) HasChildrenChanges(node syntax.NodeID) bool {
	for k, ev := range s.nodes {
		if k.node == node && ev.Kind() != Unchanged {
			return true
		}
	}
	for k, ev := range s.lists {
		if k.node == node && ev.Kind() != Unchanged {
			return true
		}
	}
	for k, ev := range s.scalars {
		if k.node == node && ev.Kind() != Unchanged {
			return true
		}
	}
	return false
}

// ChangedNodes returns the nodes with at least one changed property, in
// ascending order.
func (s *Store) ChangedNodes() []syntax.NodeID {
	seen := map[syntax.NodeID]bool{}
	for k, ev := range s.nodes {
		if ev.Kind() != Unchanged {
			seen[k.node] = true
		}
	}
	for k, ev := range s.lists {
		if ev.Kind() != Unchanged {
			seen[k.node] = true
		}
	}
	for k, ev := range s.scalars {
		if ev.Kind() != Unchanged {
			seen[k.node] = true
		}
	}
	out := make([]syntax.NodeID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Child returns the new value of a child property.
func (s *Store) Child(node syntax.NodeID, prop string) syntax.NodeID {
	if ev := s.Event(node, prop); ev != nil {
		return ev.value
	}
	return s.tree.Child(node, prop)
}

// List returns the new value of a list property.
func (s *Store) List(node syntax.NodeID, prop string) []syntax.NodeID {
	if ev := s.ListEvent(node, prop); ev != nil {
		return ev.NewList()
	}
	return s.tree.List(node, prop)
}

// Scalar returns the new value of a scalar property.
func (s *Store) Scalar(node syntax.NodeID, prop string) string {
	if ev := s.ScalarEvent(node, prop); ev != nil {
		return ev.value
	}
	return s.tree.Scalar(node, prop)
}

// Validate checks every event against the schema and the parsed tree. It
// runs before any text is synthesized.
func (s *Store) Validate() error {
	for _, k := range sortedKeys(s.nodes) {
		if err := s.checkProperty(k.node, k.prop, syntax.PropertyChild); err != nil {
			return err
		}
		ev := s.nodes[k]
		if ev.original != s.tree.Child(k.node, k.prop) {
			return contractf("Validate", k.node, "event for %s records original %d, tree has %d", k.prop, ev.original, s.tree.Child(k.node, k.prop))
		}
		if err := s.checkPlaced(k, ev); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(s.lists) {
		if err := s.checkProperty(k.node, k.prop, syntax.PropertyList); err != nil {
			return err
		}
		ev := s.lists[k]
		if !slices.Equal(ev.OriginalList(), s.tree.List(k.node, k.prop)) {
			return contractf("Validate", k.node, "list %s does not reconstruct the original elements", k.prop)
		}
		for _, slot := range ev.slots {
			if err := s.checkPlaced(k, slot); err != nil {
				return err
			}
		}
		seen := map[syntax.NodeID]bool{}
		for _, id := range ev.NewList() {
			if seen[id] {
				return contractf("Validate", k.node, "list %s contains node %d twice", k.prop, id)
			}
			seen[id] = true
		}
	}
	for _, k := range sortedKeys(s.scalars) {
		if err := s.checkProperty(k.node, k.prop, syntax.PropertyScalar); err != nil {
			return err
		}
	}
	return nil
}

// checkPlaced rejects an original node placed where it was not parsed.
func (s *Store) checkPlaced(k propKey, ev *NodeEvent) error {
	if ev.value == ev.original || ev.value == syntax.NoNode || !s.tree.IsOriginal(ev.value) {
		return nil
	}
	return contractf("Validate", ev.value, "original %s placed in %s of node %d; use a copy or move placeholder", s.tree.KindName(ev.value), k.prop, k.node)
}

func (s *Store) checkProperty(node syntax.NodeID, prop string, kind syntax.PropertyKind) error {
	n := s.tree.NodeByID(node)
	if n == nil {
		return fmt.Errorf("%w: unknown node %d", ErrSchemaViolation, node)
	}
	i, ok := s.tree.Schema.PropertyIndex(n.Kind, prop)
	if !ok {
		return fmt.Errorf("%w: %s has no property %q", ErrSchemaViolation, s.tree.Schema.KindName(n.Kind), prop)
	}
	if got := s.tree.Schema.Properties(n.Kind)[i].Kind; got != kind {
		return fmt.Errorf("%w: %s.%s is a %s property, not %s", ErrSchemaViolation, s.tree.Schema.KindName(n.Kind), prop, got, kind)
	}
	return nil
}

func sortedKeys[V any](m map[propKey]V) []propKey {
	keys := make([]propKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b propKey) int {
		return cmp.Or(cmp.Compare(a.node, b.node), strings.Compare(a.prop, b.prop))
	})
	return keys
}
