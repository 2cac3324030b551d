package rewrite

import (
	"context"
	"fmt"
	"slices"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// Session records changes against a parsed tree and turns them into edits.
// New nodes are created with Builder in the tree's arena. Original nodes
// cannot be placed directly; use a copy or move placeholder.
type Session struct {
	tree    *syntax.Tree
	layouts *Layouts
	builder *syntax.Builder
	store   *Store
	infos   *Annotations
	opts    Options

	commentRanges bool
	result        *edit.Result
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOptions sets the rendering options.
func WithOptions(opts Options) SessionOption {
	return func(s *Session) { s.opts = opts }
}

// WithCommentRanges makes list elements carry their leading and trailing
// comments when they are removed, replaced or moved.
func WithCommentRanges(enabled bool) SessionOption {
	return func(s *Session) { s.commentRanges = enabled }
}

// NewSession starts recording changes against tree.
func NewSession(tree *syntax.Tree, layouts *Layouts, opts ...SessionOption) *Session {
	s := &Session{
		tree:    tree,
		layouts: layouts,
		builder: syntax.NewBuilder(tree),
		store:   NewStore(tree),
		infos:   NewAnnotations(),
		opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree returns the tree the session edits.
func (s *Session) Tree() *syntax.Tree { return s.tree }

// Builder returns the builder for new nodes.
func (s *Session) Builder() *syntax.Builder { return s.builder }

// Store returns the recorded events.
func (s *Session) Store() *Store { return s.store }

// View returns the tree as it reads with the recorded changes applied.
func (s *Session) View() View { return NewView(s.tree, s.store) }

// Set stores value in the child property prop of node. NoNode clears it.
func (s *Session) Set(node syntax.NodeID, prop string, value syntax.NodeID, g *edit.Group) error {
	if err := s.checkNew("Set", value); err != nil {
		return err
	}
	_, err := s.store.SetChild(node, prop, value, g)
	return err
}

// SetScalar stores value in the scalar property prop of node. An empty value
// removes an optional scalar.
func (s *Session) SetScalar(node syntax.NodeID, prop, value string, g *edit.Group) error {
	_, err := s.store.SetScalar(node, prop, value, g)
	return err
}

// Remove drops an original node from the property that holds it.
func (s *Session) Remove(node syntax.NodeID, g *edit.Group) error {
	return s.Replace(node, syntax.NoNode, g)
}

// Replace substitutes with for an original node in the property that holds
// it. A NoNode with removes it.
func (s *Session) Replace(node, with syntax.NodeID, g *edit.Group) error {
	if err := s.checkNew("Replace", with); err != nil {
		return err
	}
	parent, prop, isList, err := s.locate(node)
	if err != nil {
		return err
	}
	if isList {
		ev, err := s.store.EnsureListEvent(parent, prop)
		if err != nil {
			return err
		}
		return ev.Replace(node, with, g)
	}
	_, err = s.store.SetChild(parent, prop, with, g)
	return err
}

// List returns the editor of the list property prop of node.
func (s *Session) List(node syntax.NodeID, prop string) *ListRewrite {
	return &ListRewrite{s: s, node: node, prop: prop}
}

// CreateCopyTarget returns a placeholder that renders a copy of an original
// node. The placeholder must be placed exactly once.
func (s *Session) CreateCopyTarget(node syntax.NodeID) (syntax.NodeID, error) {
	return s.createTarget("CreateCopyTarget", node, node, false)
}

// CreateMoveTarget returns a placeholder that renders an original node; the
// node's text leaves its old place. A list element is removed from its list.
func (s *Session) CreateMoveTarget(node syntax.NodeID) (syntax.NodeID, error) {
	return s.createTarget("CreateMoveTarget", node, node, true)
}

// CreateRangeCopyTarget returns a placeholder for the siblings first through
// last of one list, copied or moved as a single run of text.
func (s *Session) CreateRangeCopyTarget(first, last syntax.NodeID, move bool) (syntax.NodeID, error) {
	return s.createTarget("CreateRangeCopyTarget", first, last, move)
}

func (s *Session) createTarget(op string, first, last syntax.NodeID, move bool) (syntax.NodeID, error) {
	if !s.tree.IsOriginal(first) || !s.tree.IsOriginal(last) {
		return syntax.NoNode, contractf(op, first, "source must be an original node")
	}
	kind := s.tree.NodeByID(first).Kind
	info := &CopySourceInfo{Node: first, First: first, Last: last, IsMove: move}
	members := []syntax.NodeID{first}
	if first != last {
		parent, prop, isList, err := s.locate(first)
		if err != nil {
			return syntax.NoNode, err
		}
		list := s.tree.List(parent, prop)
		i, j := slices.Index(list, first), slices.Index(list, last)
		if !isList || j < i {
			return syntax.NoNode, contractf(op, first, "node %d is not a later sibling in the same list", last)
		}
		members = list[i : j+1]
		info.Node = s.builder.New(kind)
		s.infos.SetRangeNode(info.Node, first, last)
	}
	placeholder := s.builder.New(kind)
	s.infos.SetCopyPlaceholder(placeholder, info)
	s.infos.AddCopySource(info)

	if move {
		for _, m := range members {
			if err := s.detach(m); err != nil {
				return syntax.NoNode, err
			}
		}
	}
	return placeholder, nil
}

// detach removes a moved list element unless the caller already changed it.
func (s *Session) detach(node syntax.NodeID) error {
	parent, prop, isList, err := s.locate(node)
	if err != nil || !isList {
		return err
	}
	ev, err := s.store.EnsureListEvent(parent, prop)
	if err != nil {
		return err
	}
	for _, slot := range ev.Slots() {
		if slot.original == node && slot.Kind() == Unchanged {
			return ev.Remove(node, nil)
		}
	}
	return nil
}

// CreateStringPlaceholder returns a node of kind that renders as code. The
// code is re-indented to its destination.
func (s *Session) CreateStringPlaceholder(code string, kind syntax.Kind) syntax.NodeID {
	id := s.builder.New(kind)
	s.infos.SetStringPlaceholder(id, code)
	return id
}

// CreateGroupNode returns a node that renders nodes one per line. It takes
// the kind of the first node.
func (s *Session) CreateGroupNode(nodes ...syntax.NodeID) (syntax.NodeID, error) {
	if len(nodes) == 0 {
		return syntax.NoNode, contractf("CreateGroupNode", syntax.NoNode, "no members")
	}
	for _, n := range nodes {
		if err := s.checkNew("CreateGroupNode", n); err != nil {
			return syntax.NoNode, err
		}
	}
	id := s.builder.New(s.tree.NodeByID(nodes[0]).Kind)
	s.infos.SetGroupNode(id, nodes)
	return id, nil
}

// Track reports the output range of node after Apply.
func (s *Session) Track(node syntax.NodeID) *TrackedRange {
	g := edit.NewGroup(fmt.Sprintf("track %s %d", s.tree.KindName(node), node))
	s.infos.Track(node, g)
	return &TrackedRange{s: s, group: g}
}

// SetInsertBoundToPrevious makes the inserted node attach after the previous
// element and its separator instead of before the next element.
func (s *Session) SetInsertBoundToPrevious(node syntax.NodeID) {
	s.infos.SetInsertBoundToPrevious(node, true)
}

// Rewrite computes the edit tree of the recorded changes.
func (s *Session) Rewrite(ctx context.Context) (*edit.Edit, error) {
	var ranges RangeResolver
	if s.commentRanges {
		ranges = NewCommentRanges(s.tree, s.infos)
	}
	return Rewrite(ctx, Input{
		Tree:    s.tree,
		Layouts: s.layouts,
		Store:   s.store,
		Infos:   s.infos,
		Options: s.opts,
		Ranges:  ranges,
	})
}

// Apply rewrites and returns the new source text.
func (s *Session) Apply(ctx context.Context) ([]byte, error) {
	root, err := s.Rewrite(ctx)
	if err != nil {
		return nil, err
	}
	res, err := edit.Apply(s.tree.Source, root)
	if err != nil {
		return nil, err
	}
	s.result = res
	return res.Output, nil
}

func (s *Session) checkNew(op string, id syntax.NodeID) error {
	if id == syntax.NoNode {
		return nil
	}
	n := s.tree.NodeByID(id)
	if n == nil {
		return contractf(op, id, "unknown node")
	}
	if n.IsOriginal() {
		return contractf(op, id, "original %s placed directly; use a copy or move placeholder", s.tree.KindName(id))
	}
	return nil
}

// locate finds the property of the parent that holds an original node.
func (s *Session) locate(node syntax.NodeID) (parent syntax.NodeID, prop string, isList bool, err error) {
	n := s.tree.NodeByID(node)
	if !n.IsOriginal() {
		return syntax.NoNode, "", false, contractf("locate", node, "not an original node")
	}
	p := s.tree.NodeByID(n.Parent)
	if p == nil {
		return syntax.NoNode, "", false, contractf("locate", node, "root node has no parent property")
	}
	for i, pr := range s.tree.Schema.Properties(p.Kind) {
		v := p.Values[i]
		switch {
		case pr.Kind == syntax.PropertyChild && v.Node == node:
			return p.ID, pr.Name, false, nil
		case pr.Kind == syntax.PropertyList && slices.Contains(v.List, node):
			return p.ID, pr.Name, true, nil
		}
	}
	return syntax.NoNode, "", false, contractf("locate", node, "node is not held by its parent")
}

// TrackedRange is the output range of a tracked node.
type TrackedRange struct {
	s     *Session
	group *edit.Group
}

// Group returns the group that collects the node's range markers.
func (t *TrackedRange) Group() *edit.Group { return t.group }

// Span returns the range in the output of the last Apply.
func (t *TrackedRange) Span() (text.Span, bool) {
	if t.s.result == nil {
		return text.Span{}, false
	}
	return t.s.result.GroupRange(t.group)
}

// ListRewrite edits one list property.
type ListRewrite struct {
	s    *Session
	node syntax.NodeID
	prop string
}

func (l *ListRewrite) event() (*ListEvent, error) {
	return l.s.store.EnsureListEvent(l.node, l.prop)
}

// InsertFirst inserts node before all elements.
func (l *ListRewrite) InsertFirst(node syntax.NodeID, g *edit.Group) error {
	return l.InsertAt(node, 0, g)
}

// InsertLast appends node.
func (l *ListRewrite) InsertLast(node syntax.NodeID, g *edit.Group) error {
	return l.InsertAt(node, -1, g)
}

// InsertAt inserts node at index of the new list; -1 appends.
func (l *ListRewrite) InsertAt(node syntax.NodeID, index int, g *edit.Group) error {
	if err := l.s.checkNew("InsertAt", node); err != nil {
		return err
	}
	ev, err := l.event()
	if err != nil {
		return err
	}
	_, err = ev.Insert(node, index, g)
	return err
}

// InsertBefore inserts node before ref. ref may be a removed element.
func (l *ListRewrite) InsertBefore(node, ref syntax.NodeID, g *edit.Group) error {
	return l.insertNear(node, ref, 0, g)
}

// InsertAfter inserts node after ref. ref may be a removed element.
func (l *ListRewrite) InsertAfter(node, ref syntax.NodeID, g *edit.Group) error {
	return l.insertNear(node, ref, 1, g)
}

func (l *ListRewrite) insertNear(node, ref syntax.NodeID, delta int, g *edit.Group) error {
	if err := l.s.checkNew("Insert", node); err != nil {
		return err
	}
	ev, err := l.event()
	if err != nil {
		return err
	}
	if ev.IndexOf(node) >= 0 {
		return contractf("Insert", node, "node is already in the list")
	}
	i := slices.IndexFunc(ev.slots, func(s *NodeEvent) bool { return s.original == ref || s.value == ref })
	if i < 0 {
		return contractf("Insert", ref, "reference node is not an element of %s", l.prop)
	}
	ev.slots = slices.Insert(ev.slots, i+delta, &NodeEvent{value: node, group: g})
	return nil
}

// Remove drops node, original or inserted, from the list.
func (l *ListRewrite) Remove(node syntax.NodeID, g *edit.Group) error {
	ev, err := l.event()
	if err != nil {
		return err
	}
	return ev.Remove(node, g)
}

// Replace substitutes with for node.
func (l *ListRewrite) Replace(node, with syntax.NodeID, g *edit.Group) error {
	if err := l.s.checkNew("Replace", with); err != nil {
		return err
	}
	ev, err := l.event()
	if err != nil {
		return err
	}
	return ev.Replace(node, with, g)
}

// OriginalList returns the elements before the rewrite.
func (l *ListRewrite) OriginalList() []syntax.NodeID {
	return l.s.tree.List(l.node, l.prop)
}

// NewList returns the elements after the rewrite.
func (l *ListRewrite) NewList() []syntax.NodeID {
	return l.s.store.List(l.node, l.prop)
}
