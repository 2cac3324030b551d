package rewrite

import (
	"slices"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// CopySourceInfo marks an original node, or a run of sibling nodes, whose
// text is copied or moved to a placeholder. Each source is rendered exactly
// once.
type CopySourceInfo struct {
	// Node is the source node. For a run of siblings it is the internal range
	// node spanning First through Last.
	Node   syntax.NodeID
	First  syntax.NodeID
	Last   syntax.NodeID
	IsMove bool
}

// IsRange reports whether the source covers a run of siblings.
func (c *CopySourceInfo) IsRange() bool { return c.First != c.Last }

// NodeInfo is rendering metadata of a synthesized node.
type NodeInfo struct {
	// Code is the literal text of a string placeholder.
	Code string
	// Copy is set on copy and move placeholders.
	Copy *CopySourceInfo
	// Members are rendered back to back by a collapsed group node.
	Members []syntax.NodeID
	// RangeFirst and RangeLast are set on the internal node of a range copy.
	RangeFirst syntax.NodeID
	RangeLast  syntax.NodeID
}

// IsStringPlaceholder reports whether the node renders as literal code.
func (i *NodeInfo) IsStringPlaceholder() bool { return i != nil && i.Copy == nil && i.Members == nil && i.RangeFirst == syntax.NoNode }

// IsCollapsed reports whether the node is a group of members.
func (i *NodeInfo) IsCollapsed() bool { return i != nil && i.Members != nil }

// IsRangeNode reports whether the node stands for a run of siblings.
func (i *NodeInfo) IsRangeNode() bool { return i != nil && i.RangeFirst != syntax.NoNode }

// Annotations is the side table of a rewrite session: placeholders, copy
// sources, tracked nodes and insertion binding overrides. It is read-only
// while a rewrite runs.
type Annotations struct {
	infos   map[syntax.NodeID]*NodeInfo
	sources []*CopySourceInfo
	tracked map[syntax.NodeID]*edit.Group
	bound   map[syntax.NodeID]bool
}

// NewAnnotations returns an empty side table.
func NewAnnotations() *Annotations {
	return &Annotations{
		infos:   map[syntax.NodeID]*NodeInfo{},
		tracked: map[syntax.NodeID]*edit.Group{},
		bound:   map[syntax.NodeID]bool{},
	}
}

// Info returns the metadata of id, or nil.
func (a *Annotations) Info(id syntax.NodeID) *NodeInfo {
	if a == nil {
		return nil
	}
	return a.infos[id]
}

// SetStringPlaceholder makes id render as code.
func (a *Annotations) SetStringPlaceholder(id syntax.NodeID, code string) {
	a.infos[id] = &NodeInfo{Code: code}
}

// SetCopyPlaceholder makes id render as the text of src.
func (a *Annotations) SetCopyPlaceholder(id syntax.NodeID, src *CopySourceInfo) {
	a.infos[id] = &NodeInfo{Copy: src}
}

// SetGroupNode makes id render its members back to back.
func (a *Annotations) SetGroupNode(id syntax.NodeID, members []syntax.NodeID) {
	a.infos[id] = &NodeInfo{Members: slices.Clone(members)}
}

// SetRangeNode makes id stand for the siblings first through last.
func (a *Annotations) SetRangeNode(id, first, last syntax.NodeID) {
	a.infos[id] = &NodeInfo{RangeFirst: first, RangeLast: last}
}

// AddCopySource registers src.
func (a *Annotations) AddCopySource(src *CopySourceInfo) {
	a.sources = append(a.sources, src)
}

// CopySources returns the registered sources in creation order.
func (a *Annotations) CopySources() []*CopySourceInfo {
	if a == nil {
		return nil
	}
	return a.sources
}

// Track attributes the output range of id to g.
func (a *Annotations) Track(id syntax.NodeID, g *edit.Group) {
	a.tracked[id] = g
}

// Tracked returns the group of a tracked node, or nil.
func (a *Annotations) Tracked(id syntax.NodeID) *edit.Group {
	if a == nil {
		return nil
	}
	return a.tracked[id]
}

// TrackedNodes returns all tracked nodes in ascending order.
func (a *Annotations) TrackedNodes() []syntax.NodeID {
	if a == nil {
		return nil
	}
	out := make([]syntax.NodeID, 0, len(a.tracked))
	for id := range a.tracked {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SetInsertBoundToPrevious overrides the insertion binding of id.
func (a *Annotations) SetInsertBoundToPrevious(id syntax.NodeID, bound bool) {
	a.bound[id] = bound
}

// InsertBoundToPrevious returns the override for id, if any.
func (a *Annotations) InsertBoundToPrevious(id syntax.NodeID) (bound, ok bool) {
	if a == nil {
		return false, false
	}
	bound, ok = a.bound[id]
	return bound, ok
}
