package syntax

import (
	"testing"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

func newCallSchema() (*Schema, Kind, Kind) {
	s := NewSchema("call")
	name := s.Define("Name", Scalar("Value"))
	call := s.Define("Call", Child("Callee"), List("Args"))
	return s, call, name
}

func TestSchemaDefineAndLookup(t *testing.T) {
	t.Parallel()

	s, call, name := newCallSchema()

	if got, ok := s.Lookup("Call"); !ok || got != call {
		t.Fatalf("Lookup(Call) = %d, %v, want %d, true", got, ok, call)
	}
	if got := s.KindName(name); got != "Name" {
		t.Fatalf("KindName(name) = %q, want %q", got, "Name")
	}
	props := s.Properties(call)
	if len(props) != 2 || props[0].Name != "Callee" || !props[1].IsList() {
		t.Fatalf("Properties(Call) = %+v", props)
	}
	if i, ok := s.PropertyIndex(call, "Args"); !ok || i != 1 {
		t.Fatalf("PropertyIndex(Call, Args) = %d, %v, want 1, true", i, ok)
	}
	if _, ok := s.PropertyIndex(call, "Missing"); ok {
		t.Fatal("PropertyIndex(Call, Missing) ok = true, want false")
	}
	if got := len(s.Kinds()); got != 2 {
		t.Fatalf("len(Kinds()) = %d, want 2", got)
	}
}

func TestSchemaDefineDuplicatePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("Define duplicate kind did not panic")
		}
	}()
	s := NewSchema("dup")
	s.Define("A")
	s.Define("A")
}

func TestBuilderOriginalAndSynthesizedNodes(t *testing.T) {
	t.Parallel()

	s, call, name := newCallSchema()
	src := []byte("foo(a, b)")
	tree := NewTree(s, src, nil)
	b := NewBuilder(tree)

	root := b.Original(call, text.Span{Start: 0, End: 9})
	callee := b.Original(name, text.Span{Start: 0, End: 3})
	a := b.Original(name, text.Span{Start: 4, End: 5})
	bb := b.Original(name, text.Span{Start: 7, End: 8})
	b.SetScalar(callee, "Value", "foo").SetScalar(a, "Value", "a").SetScalar(bb, "Value", "b")
	b.SetChild(root, "Callee", callee).SetList(root, "Args", a, bb)
	tree.Root = root

	if got := tree.Child(root, "Callee"); got != callee {
		t.Fatalf("Child(Callee) = %d, want %d", got, callee)
	}
	if got := tree.List(root, "Args"); len(got) != 2 || got[1] != bb {
		t.Fatalf("List(Args) = %v", got)
	}
	if got := string(tree.Text(bb)); got != "b" {
		t.Fatalf("Text(b) = %q, want %q", got, "b")
	}
	if got := tree.NodeByID(a).Parent; got != root {
		t.Fatalf("Parent(a) = %d, want %d", got, root)
	}
	if got := tree.NodeAt(4); got != a {
		t.Fatalf("NodeAt(4) = %d, want %d", got, a)
	}

	x := b.New(name)
	b.SetScalar(x, "Value", "x")
	if tree.IsOriginal(x) {
		t.Fatal("IsOriginal(synthesized) = true, want false")
	}
	if tree.Text(x) != nil {
		t.Fatalf("Text(synthesized) = %q, want nil", tree.Text(x))
	}

	var visited []string
	tree.Walk(root, func(id NodeID) bool {
		visited = append(visited, tree.KindName(id))
		return true
	})
	if got := len(visited); got != 4 {
		t.Fatalf("Walk visited %d nodes (%v), want 4", got, visited)
	}
}

func TestBuilderRejectsWrongPropertyKind(t *testing.T) {
	t.Parallel()

	s, call, _ := newCallSchema()
	b := NewBuilder(NewTree(s, nil, nil))
	id := b.New(call)

	defer func() {
		if recover() == nil {
			t.Fatal("SetScalar on a list property did not panic")
		}
	}()
	b.SetScalar(id, "Args", "x")
}
