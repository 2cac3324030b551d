package edit

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// ErrCycle is returned when copy sources contain each other's targets.
var ErrCycle = errors.New("copy source cycle")

// Result is the outcome of applying an edit tree.
type Result struct {
	Output []byte
	ranges map[*Edit]text.Span
}

// Range returns the output span of a range marker, copy source or plain edit
// that was applied in the main document.
func (r *Result) Range(e *Edit) (text.Span, bool) {
	sp, ok := r.ranges[e]
	return sp, ok
}

// GroupRange returns the output span covering all range markers of g.
func (r *Result) GroupRange(g *Group) (text.Span, bool) {
	out := text.Span{Start: -1, End: -1}
	found := false
	for _, e := range g.Edits() {
		if e.kind != KindRangeMarker {
			continue
		}
		if sp, ok := r.ranges[e]; ok {
			out = out.Union(sp)
			found = true
		}
	}
	return out, found
}

type op struct {
	span text.Span
	text string
	mark *Edit
	end  bool
}

type resolver struct {
	src      []byte
	captured map[*Edit]string
	visiting map[*Edit]bool
}

// Flatten resolves the edit tree into flat byte edits against src.
func Flatten(src []byte, root *Edit) ([]text.ByteEdit, error) {
	r := &resolver{src: src, captured: map[*Edit]string{}, visiting: map[*Edit]bool{}}
	ops, err := r.collect(root, false)
	if err != nil {
		return nil, err
	}
	out := make([]text.ByteEdit, 0, len(ops))
	for _, o := range ops {
		if o.mark != nil {
			continue
		}
		out = append(out, text.ByteEdit{Span: o.span, NewText: []byte(o.text)})
	}
	if err := text.ValidateEdits(text.ByteOffset(len(src)), out); err != nil {
		return nil, err
	}
	return text.SortEdits(out), nil
}

// Apply resolves root against src and returns the rewritten buffer.
//
// Edits nested in a delete or replace are dropped, except copy and move
// sources, which capture their region with their own nested edits applied.
// Move sources remove their region. Range markers change nothing and report
// their output location through Result.Range.
func Apply(src []byte, root *Edit) (*Result, error) {
	r := &resolver{src: src, captured: map[*Edit]string{}, visiting: map[*Edit]bool{}}
	ops, err := r.collect(root, true)
	if err != nil {
		return nil, err
	}
	res := &Result{ranges: map[*Edit]text.Span{}}
	out, err := r.splice(text.Span{Start: 0, End: text.ByteOffset(len(src))}, ops, res.ranges)
	if err != nil {
		return nil, err
	}
	res.Output = out
	return res, nil
}

func (r *resolver) collect(root *Edit, withMarks bool) ([]op, error) {
	if root.kind != KindMulti {
		return nil, fmt.Errorf("%w: root must be a Multi edit, got %s", ErrMalformed, root.kind)
	}
	var ops []op
	var rec func(e *Edit) error
	rec = func(e *Edit) error {
		switch e.kind {
		case KindMulti, KindCopySource:
			if e.kind == KindCopySource && withMarks {
				ops = append(ops, op{span: emptyAt(e.span.Start), mark: e})
			}
			for _, c := range e.children {
				if err := rec(c); err != nil {
					return err
				}
			}
			if e.kind == KindCopySource && withMarks {
				ops = append(ops, op{span: emptyAt(e.span.End), mark: e, end: true})
			}
		case KindRangeMarker:
			if withMarks {
				ops = append(ops, op{span: emptyAt(e.span.Start), mark: e})
			}
			for _, c := range e.children {
				if err := rec(c); err != nil {
					return err
				}
			}
			if withMarks {
				ops = append(ops, op{span: emptyAt(e.span.End), mark: e, end: true})
			}
		case KindInsert:
			ops = append(ops, op{span: e.span, text: e.text})
		case KindDelete, KindMoveSource:
			ops = append(ops, op{span: e.span})
		case KindReplace:
			ops = append(ops, op{span: e.span, text: e.text})
		case KindCopyTarget, KindMoveTarget:
			s, err := r.capture(e.peer)
			if err != nil {
				return err
			}
			ops = append(ops, op{span: e.span, text: s})
		default:
			return fmt.Errorf("%w: unknown edit kind %s", ErrMalformed, e.kind)
		}
		return nil
	}
	for _, c := range root.children {
		if err := rec(c); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (r *resolver) capture(src *Edit) (string, error) {
	if src == nil {
		return "", fmt.Errorf("%w: target without source", ErrMalformed)
	}
	if s, ok := r.captured[src]; ok {
		return s, nil
	}
	if r.visiting[src] {
		return "", fmt.Errorf("%w at %s", ErrCycle, src.span)
	}
	r.visiting[src] = true
	defer delete(r.visiting, src)

	var ops []op
	for _, c := range src.children {
		child, err := r.collect(&Edit{kind: KindMulti, children: []*Edit{c}}, false)
		if err != nil {
			return "", err
		}
		ops = append(ops, child...)
	}
	out, err := r.splice(src.span, ops, nil)
	if err != nil {
		return "", err
	}
	s := src.modifier.Modify(string(out))
	r.captured[src] = s
	return s, nil
}

// splice applies ops to the region of the source buffer. Marked positions are
// recorded into ranges when it is non-nil.
func (r *resolver) splice(region text.Span, ops []op, ranges map[*Edit]text.Span) ([]byte, error) {
	if !region.IsValid() || region.End > text.ByteOffset(len(r.src)) {
		return nil, fmt.Errorf("%w: region %s exceeds source length %d", ErrMalformed, region, len(r.src))
	}
	slices.SortStableFunc(ops, func(a, b op) int {
		if c := cmp.Compare(a.span.Start, b.span.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.span.End, b.span.End)
	})

	var out bytes.Buffer
	cursor := region.Start
	for _, o := range ops {
		if !region.ContainsSpan(o.span) {
			return nil, fmt.Errorf("%w: edit %s outside region %s", ErrMalformed, o.span, region)
		}
		if o.span.Start < cursor {
			if o.mark != nil {
				continue
			}
			return nil, fmt.Errorf("overlapping edits at %s", o.span)
		}
		out.Write(r.src[cursor:o.span.Start])
		cursor = o.span.Start
		if o.mark != nil {
			if ranges != nil {
				pos := text.ByteOffset(out.Len())
				sp := ranges[o.mark]
				if o.end {
					sp.End = pos
				} else {
					sp = text.Span{Start: pos, End: pos}
				}
				ranges[o.mark] = sp
			}
			continue
		}
		out.WriteString(o.text)
		cursor = o.span.End
	}
	out.Write(r.src[cursor:region.End])
	return out.Bytes(), nil
}

func emptyAt(off text.ByteOffset) text.Span { return text.Span{Start: off, End: off} }
