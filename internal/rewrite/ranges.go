package rewrite

import (
	"slices"
	"sort"

	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// RangeResolver computes the extended source range of an original node. The
// result always contains the node's own span and is stable across calls.
type RangeResolver interface {
	ExtendedRange(id syntax.NodeID) text.Span
}

// DefaultRanges returns each node's own span. Range copy nodes cover their
// first through last sibling.
type DefaultRanges struct {
	tree  *syntax.Tree
	infos *Annotations
}

// NewDefaultRanges returns the default resolver over tree.
func NewDefaultRanges(tree *syntax.Tree, infos *Annotations) *DefaultRanges {
	return &DefaultRanges{tree: tree, infos: infos}
}

// ExtendedRange implements RangeResolver.
func (r *DefaultRanges) ExtendedRange(id syntax.NodeID) text.Span {
	if sp, ok := rangeNodeSpan(r, r.infos, id); ok {
		return sp
	}
	if n := r.tree.NodeByID(id); n != nil {
		return n.Span
	}
	return text.Span{Start: -1, End: -1}
}

func rangeNodeSpan(r RangeResolver, infos *Annotations, id syntax.NodeID) (text.Span, bool) {
	info := infos.Info(id)
	if !info.IsRangeNode() {
		return text.Span{}, false
	}
	first := r.ExtendedRange(info.RangeFirst)
	last := r.ExtendedRange(info.RangeLast)
	return text.Span{Start: first.Start, End: last.End}, true
}

// CommentRanges extends list elements over the comments that travel with
// them: leading comments that start on their own line with no blank line
// before the element, and a line comment trailing the element on its last
// line. Other nodes keep their own span.
type CommentRanges struct {
	tree   *syntax.Tree
	infos  *Annotations
	starts []text.ByteOffset
	cache  map[syntax.NodeID]text.Span
}

// NewCommentRanges returns a memoizing comment-aware resolver over tree.
func NewCommentRanges(tree *syntax.Tree, infos *Annotations) *CommentRanges {
	starts := make([]text.ByteOffset, len(tree.Tokens))
	for i, tok := range tree.Tokens {
		starts[i] = tok.Span.Start
	}
	return &CommentRanges{tree: tree, infos: infos, starts: starts, cache: map[syntax.NodeID]text.Span{}}
}

// ExtendedRange implements RangeResolver.
func (r *CommentRanges) ExtendedRange(id syntax.NodeID) text.Span {
	if sp, ok := r.cache[id]; ok {
		return sp
	}
	sp, ok := rangeNodeSpan(r, r.infos, id)
	if !ok {
		n := r.tree.NodeByID(id)
		switch {
		case n == nil || !n.IsOriginal():
			return text.Span{Start: -1, End: -1}
		case !r.isListMember(n):
			sp = n.Span
		default:
			sp = text.Span{Start: r.leadingStart(n.Span), End: r.trailingEnd(n.Span)}
		}
	}
	r.cache[id] = sp
	return sp
}

func (r *CommentRanges) isListMember(n *syntax.Node) bool {
	if n.Parent == syntax.NoNode {
		return false
	}
	parent := r.tree.NodeByID(n.Parent)
	if parent == nil {
		return false
	}
	for _, p := range r.tree.Schema.Properties(parent.Kind) {
		if p.IsList() && slices.Contains(r.tree.List(parent.ID, p.Name), n.ID) {
			return true
		}
	}
	return false
}

func (r *CommentRanges) tokenAt(off text.ByteOffset) int {
	return sort.Search(len(r.starts), func(i int) bool { return r.starts[i] >= off })
}

func (r *CommentRanges) leadingStart(span text.Span) text.ByteOffset {
	i := r.tokenAt(span.Start)
	if i >= len(r.tree.Tokens) || r.starts[i] != span.Start {
		return span.Start
	}
	leading := r.tree.Tokens[i].Leading
	start := span.Start
	newlines := 0
	for j := len(leading) - 1; j >= 0; j-- {
		tr := leading[j]
		switch {
		case tr.Kind == lexer.TriviaNewline:
			newlines++
			if newlines > 1 {
				return start
			}
		case tr.Kind == lexer.TriviaWhitespace:
		case tr.IsComment():
			if !r.startsLine(leading, j, i) {
				return start
			}
			if tr.IsLineComment() && newlines == 0 {
				return start
			}
			start = tr.Span.Start
			newlines = 0
		}
	}
	return start
}

// startsLine reports whether only whitespace precedes leading[j] on its line.
func (r *CommentRanges) startsLine(leading []lexer.Trivia, j, tok int) bool {
	for k := j - 1; k >= 0; k-- {
		switch leading[k].Kind {
		case lexer.TriviaWhitespace:
		case lexer.TriviaNewline:
			return true
		default:
			return false
		}
	}
	return tok == 0
}

func (r *CommentRanges) trailingEnd(span text.Span) text.ByteOffset {
	i := r.tokenAt(span.End)
	if i >= len(r.tree.Tokens) {
		return span.End
	}
	tok := r.tree.Tokens[i]
	for _, tr := range tok.Leading {
		switch {
		case tr.Span.Start < span.End:
		case tr.Kind == lexer.TriviaWhitespace:
		case tr.IsLineComment():
			return tr.Span.End
		default:
			return span.End
		}
	}
	return span.End
}
