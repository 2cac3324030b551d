package thrift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// ErrNotFound is returned when a name path does not resolve to a node.
var ErrNotFound = errors.New("node not found")

// Find resolves a path of names starting at the document root. The first
// name selects a definition, the second a member of it (enum value, field or
// function) and the third a parameter or thrown exception of a function.
func Find(v rewrite.View, path ...string) (syntax.NodeID, error) {
	if len(path) == 0 {
		return syntax.NoNode, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	tree := v.Tree()
	cur := tree.Root
	for i, name := range path {
		next, ok := findChild(v, cur, name)
		if !ok {
			return syntax.NoNode, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

// FindSelector resolves a dotted selector such as "User.email".
func FindSelector(v rewrite.View, selector string) (syntax.NodeID, error) {
	return Find(v, strings.Split(selector, ".")...)
}

func findChild(v rewrite.View, parent syntax.NodeID, name string) (syntax.NodeID, bool) {
	for _, prop := range namedLists(v.Kind(parent)) {
		for _, id := range v.List(parent, prop) {
			if NameOf(v, id) == name {
				return id, true
			}
		}
	}
	return syntax.NoNode, false
}

func namedLists(k syntax.Kind) []string {
	if k == KindFunction {
		return []string{PropParams, PropThrows}
	}
	if prop := MembersProperty(k); prop != "" {
		return []string{prop}
	}
	return nil
}

// NameOf returns the declared name of id, or "" for kinds without one.
func NameOf(v rewrite.View, id syntax.NodeID) string {
	switch v.Kind(id) {
	case KindTypedef, KindConst, KindEnum, KindEnumValue, KindStruct, KindUnion,
		KindException, KindService, KindFunction, KindField:
		return v.Scalar(id, PropName)
	default:
		return ""
	}
}
