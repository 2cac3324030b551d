package thrift

import (
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// NewSession starts a rewrite session over a tree produced by Parse. Trees
// with syntax errors are refused with ErrUnsafeToRewrite.
func NewSession(tree *syntax.Tree, opts ...rewrite.SessionOption) (*rewrite.Session, error) {
	if err := CheckRewritable(tree); err != nil {
		return nil, err
	}
	return rewrite.NewSession(tree, Layouts(), opts...), nil
}

// Fragment parses code as a new node of kind in the session's tree.
func Fragment(s *rewrite.Session, kind syntax.Kind, code string) (syntax.NodeID, error) {
	return ParseFragment(s.Builder(), kind, code)
}
