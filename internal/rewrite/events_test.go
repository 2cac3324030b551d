package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/thrift"
)

func requireContract(t *testing.T, err error, op string) *rewrite.ContractError {
	t.Helper()
	var contract *rewrite.ContractError
	require.True(t, rewrite.AsContractError(err, &contract), "err = %v", err)
	assert.Equal(t, op, contract.Op)
	return contract
}

func TestNewNodeEventChecksKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     rewrite.ChangeKind
		original syntax.NodeID
		value    syntax.NodeID
		ok       bool
	}{
		{name: "inserted", kind: rewrite.Inserted, value: 5, ok: true},
		{name: "removed", kind: rewrite.Removed, original: 5, ok: true},
		{name: "replaced", kind: rewrite.Replaced, original: 5, value: 6, ok: true},
		{name: "unchanged", kind: rewrite.Unchanged, original: 5, value: 5, ok: true},
		{name: "inserted with original", kind: rewrite.Inserted, original: 5, value: 6},
		{name: "replaced by itself", kind: rewrite.Replaced, original: 5, value: 5},
		{name: "removed nothing", kind: rewrite.Removed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, err := rewrite.NewNodeEvent(tt.kind, tt.original, tt.value)
			if !tt.ok {
				assert.Nil(t, ev)
				requireContract(t, err, "NewNodeEvent")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind())
			assert.Equal(t, tt.original, ev.Original())
			assert.Equal(t, tt.value, ev.New())
		})
	}
}

func TestChangeKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unchanged", rewrite.Unchanged.String())
	assert.Equal(t, "inserted", rewrite.Inserted.String())
	assert.Equal(t, "removed", rewrite.Removed.String())
	assert.Equal(t, "replaced", rewrite.Replaced.String())
	assert.Equal(t, "ChangeKind(9)", rewrite.ChangeKind(9).String())
}

func TestNilEventsAreUnchanged(t *testing.T) {
	t.Parallel()

	var node *rewrite.NodeEvent
	assert.Equal(t, rewrite.Unchanged, node.Kind())
	assert.Equal(t, syntax.NoNode, node.Original())
	assert.Equal(t, syntax.NoNode, node.New())
	assert.Nil(t, node.Group())

	var scalar *rewrite.ScalarEvent
	assert.Equal(t, rewrite.Unchanged, scalar.Kind())
	assert.Empty(t, scalar.Original())
	assert.Empty(t, scalar.New())

	var list *rewrite.ListEvent
	assert.Equal(t, rewrite.Unchanged, list.Kind())
	assert.False(t, list.AllOf(rewrite.Unchanged))
}

func TestListEventSlots(t *testing.T) {
	t.Parallel()

	s := newSession(t, userStruct)
	user := member(s, 0)
	f := fields(s, user)
	ev, err := s.Store().EnsureListEvent(user, thrift.PropFields)
	require.NoError(t, err)
	again, err := s.Store().EnsureListEvent(user, thrift.PropFields)
	require.NoError(t, err)
	assert.Same(t, ev, again)
	assert.Equal(t, rewrite.Unchanged, ev.Kind())
	assert.True(t, ev.AllOf(rewrite.Unchanged))

	x := s.Builder().New(thrift.KindField)
	y := s.Builder().New(thrift.KindField)

	slot, err := ev.Insert(x, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, rewrite.Inserted, slot.Kind())
	assert.Equal(t, []syntax.NodeID{f[0], x, f[1]}, ev.NewList())
	assert.Equal(t, f, ev.OriginalList())
	assert.Equal(t, rewrite.Replaced, ev.Kind())

	_, err = ev.Insert(x, 0, nil)
	requireContract(t, err, "ListEvent.Insert")
	_, err = ev.Insert(syntax.NoNode, 0, nil)
	requireContract(t, err, "ListEvent.Insert")
	_, err = ev.Insert(y, 5, nil)
	requireContract(t, err, "ListEvent.Insert")

	require.NoError(t, ev.Remove(f[0], nil))
	assert.Equal(t, []syntax.NodeID{x, f[1]}, ev.NewList())
	assert.Equal(t, -1, ev.IndexOf(f[0]))
	assert.Equal(t, 0, ev.IndexOf(x))

	// Index 0 of the new list skips the removed slot.
	_, err = ev.Insert(y, 0, nil)
	require.NoError(t, err)
	require.Len(t, ev.Slots(), 4)
	assert.Equal(t, rewrite.Removed, ev.Slots()[0].Kind())
	assert.Equal(t, y, ev.Slots()[1].New())
	assert.Equal(t, []syntax.NodeID{y, x, f[1]}, ev.NewList())

	require.NoError(t, ev.Remove(y, nil))
	assert.Len(t, ev.Slots(), 3)

	g := edit.NewGroup("replace name")
	require.NoError(t, ev.Replace(f[1], y, g))
	assert.Equal(t, rewrite.Replaced, ev.Slots()[2].Kind())
	assert.Same(t, g, ev.Slots()[2].Group())
	requireContract(t, ev.Remove(syntax.NodeID(999), nil), "ListEvent.Replace")

	requireContract(t, ev.SetNewValue(3, x), "ListEvent.SetNewValue")
	requireContract(t, ev.SetNewValue(1, syntax.NoNode), "ListEvent.SetNewValue")
	require.NoError(t, ev.SetNewValue(0, f[0]))
	assert.Equal(t, rewrite.Unchanged, ev.Slots()[0].Kind())
	assert.Equal(t, []syntax.NodeID{f[0], x, y}, ev.NewList())
	assert.Equal(t, f, ev.OriginalList())
	assert.Equal(t, []syntax.NodeID{f[0], x, y}, s.Store().List(user, thrift.PropFields))
	assert.False(t, ev.AllOf(rewrite.Inserted))

	_, err = s.Store().EnsureListEvent(user, thrift.PropName)
	require.ErrorIs(t, err, rewrite.ErrSchemaViolation)
}

func TestStoreScalarEvents(t *testing.T) {
	t.Parallel()

	s := newSession(t, userStruct)
	store := s.Store()
	user := member(s, 0)

	g := edit.NewGroup("rename")
	ev, err := store.SetScalar(user, thrift.PropName, "Account", g)
	require.NoError(t, err)
	assert.Equal(t, rewrite.Replaced, ev.Kind())
	assert.Equal(t, "User", ev.Original())
	assert.Equal(t, "Account", ev.New())
	assert.Same(t, g, ev.Group())
	assert.Equal(t, "Account", store.Scalar(user, thrift.PropName))
	assert.True(t, store.HasChildrenChanges(user))
	assert.Equal(t, []syntax.NodeID{user}, store.ChangedNodes())
	assert.Equal(t, 1, store.Len())

	_, err = store.SetScalar(user, thrift.PropName, "User", nil)
	require.NoError(t, err)
	assert.Equal(t, rewrite.Unchanged, ev.Kind())
	assert.False(t, store.HasChildrenChanges(user))
	assert.Empty(t, store.ChangedNodes())

	_, err = store.SetScalar(user, thrift.PropFields, "x", nil)
	require.ErrorIs(t, err, rewrite.ErrSchemaViolation)
}

func TestStoreValidate(t *testing.T) {
	t.Parallel()

	t.Run("duplicate element", func(t *testing.T) {
		t.Parallel()
		s := newSession(t, userStruct)
		user := member(s, 0)
		ev, err := s.Store().EnsureListEvent(user, thrift.PropFields)
		require.NoError(t, err)
		x := s.Builder().New(thrift.KindField)
		_, err = ev.Insert(x, -1, nil)
		require.NoError(t, err)
		require.NoError(t, ev.SetNewValue(0, x))

		contract := requireContract(t, s.Store().Validate(), "Validate")
		assert.Equal(t, user, contract.Node)
		assert.Contains(t, contract.Message, "twice")
	})

	t.Run("original child from another node", func(t *testing.T) {
		t.Parallel()
		s := newSession(t, userStruct)
		f := fields(s, member(s, 0))
		other := s.Tree().Child(f[1], thrift.PropType)
		ev, err := s.Store().SetChild(f[0], thrift.PropType, other, nil)
		require.NoError(t, err)
		assert.Equal(t, rewrite.Replaced, ev.Kind())
		assert.Equal(t, other, s.Store().Child(f[0], thrift.PropType))

		contract := requireContract(t, s.Store().Validate(), "Validate")
		assert.Equal(t, other, contract.Node)
	})

	t.Run("new child", func(t *testing.T) {
		t.Parallel()
		s := newSession(t, userStruct)
		f := fields(s, member(s, 0))
		typ := s.Builder().New(thrift.KindBaseType)
		s.Builder().SetScalar(typ, thrift.PropName, "i32")
		_, err := s.Store().SetChild(f[0], thrift.PropType, typ, nil)
		require.NoError(t, err)
		require.NoError(t, s.Store().Validate())
	})
}
