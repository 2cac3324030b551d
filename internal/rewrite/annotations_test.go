package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

func TestAnnotationsNodeInfo(t *testing.T) {
	t.Parallel()

	a := rewrite.NewAnnotations()
	assert.Nil(t, a.Info(1))

	a.SetStringPlaceholder(1, "x")
	members := []syntax.NodeID{3, 4}
	a.SetGroupNode(2, members)
	members[0] = 9
	a.SetRangeNode(5, 3, 4)
	single := &rewrite.CopySourceInfo{Node: 3, First: 3, Last: 3}
	a.SetCopyPlaceholder(6, single)

	tests := []struct {
		id          syntax.NodeID
		placeholder bool
		collapsed   bool
		rangeNode   bool
	}{
		{id: 1, placeholder: true},
		{id: 2, collapsed: true},
		{id: 5, rangeNode: true},
		{id: 6},
		{id: 7},
	}
	for _, tt := range tests {
		info := a.Info(tt.id)
		assert.Equal(t, tt.placeholder, info.IsStringPlaceholder(), "node %d", tt.id)
		assert.Equal(t, tt.collapsed, info.IsCollapsed(), "node %d", tt.id)
		assert.Equal(t, tt.rangeNode, info.IsRangeNode(), "node %d", tt.id)
	}

	assert.Equal(t, "x", a.Info(1).Code)
	assert.Equal(t, []syntax.NodeID{3, 4}, a.Info(2).Members)
	assert.Equal(t, syntax.NodeID(4), a.Info(5).RangeLast)
	assert.Same(t, single, a.Info(6).Copy)
}

func TestAnnotationsCopySources(t *testing.T) {
	t.Parallel()

	single := &rewrite.CopySourceInfo{Node: 3, First: 3, Last: 3}
	run := &rewrite.CopySourceInfo{Node: 5, First: 3, Last: 4, IsMove: true}
	assert.False(t, single.IsRange())
	assert.True(t, run.IsRange())

	a := rewrite.NewAnnotations()
	a.AddCopySource(run)
	a.AddCopySource(single)
	assert.Equal(t, []*rewrite.CopySourceInfo{run, single}, a.CopySources())
}

func TestAnnotationsTracking(t *testing.T) {
	t.Parallel()

	a := rewrite.NewAnnotations()
	g1, g2 := edit.NewGroup("a"), edit.NewGroup("b")
	a.Track(7, g1)
	a.Track(2, g2)
	assert.Equal(t, []syntax.NodeID{2, 7}, a.TrackedNodes())
	assert.Same(t, g1, a.Tracked(7))
	assert.Nil(t, a.Tracked(8))

	bound, ok := a.InsertBoundToPrevious(1)
	assert.False(t, bound)
	assert.False(t, ok)
	a.SetInsertBoundToPrevious(1, false)
	bound, ok = a.InsertBoundToPrevious(1)
	assert.False(t, bound)
	assert.True(t, ok)
	a.SetInsertBoundToPrevious(2, true)
	bound, ok = a.InsertBoundToPrevious(2)
	assert.True(t, bound)
	assert.True(t, ok)
}

func TestNilAnnotations(t *testing.T) {
	t.Parallel()

	var a *rewrite.Annotations
	require.Nil(t, a.Info(1))
	assert.Nil(t, a.CopySources())
	assert.Nil(t, a.Tracked(1))
	assert.Nil(t, a.TrackedNodes())
	bound, ok := a.InsertBoundToPrevious(1)
	assert.False(t, bound)
	assert.False(t, ok)

	var info *rewrite.NodeInfo
	assert.False(t, info.IsStringPlaceholder())
	assert.False(t, info.IsCollapsed())
	assert.False(t, info.IsRangeNode())
}
