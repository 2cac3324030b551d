package rewrite

import (
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

type listStyle uint8

const (
	plainList listStyle = iota
	paragraphList
	labelList
)

// defaultSpacing is the number of blank lines between paragraph members when
// nothing can be inferred from the existing members.
const defaultSpacing = 1

type separatorState uint8

const (
	sepNone separatorState = iota
	sepNew
	sepExisting
)

// listRewriter emits the edits of one changed list property. The slots are a
// merge of the original and the new elements, see ListEvent.
type listRewriter struct {
	a      *analyzer
	parent syntax.NodeID
	slots  []*NodeEvent
	style  listStyle

	separator      string
	initialIndent  int
	separatorLines int
	tight          func(prev, next syntax.Kind) bool
	label          func(View, syntax.NodeID) LabelForm

	startPos text.ByteOffset
}

func (a *analyzer) newListRewriter(parent syntax.NodeID, prop string, style listStyle) (*listRewriter, error) {
	slots, err := a.slotsFor(parent, prop)
	if err != nil {
		return nil, err
	}
	return &listRewriter{a: a, parent: parent, slots: slots, style: style, initialIndent: -1}, nil
}

func (lr *listRewriter) group(i int) *edit.Group { return lr.slots[i].Group() }

func (lr *listRewriter) kind(i int) ChangeKind { return lr.slots[i].Kind() }

func (lr *listRewriter) original(i int) syntax.NodeID { return lr.slots[i].Original() }

// node returns the original element of slot i, or its new value when the slot
// was inserted.
func (lr *listRewriter) node(i int) syntax.NodeID {
	if id := lr.original(i); id != syntax.NoNode {
		return id
	}
	return lr.slots[i].New()
}

// rewrite emits the edits of the list and returns the offset after its last
// element. keyword is inserted at offset when the list only has inserted
// elements, endKeyword after the last of them.
func (lr *listRewriter) rewrite(offset text.ByteOffset, keyword, endKeyword string) (text.ByteOffset, error) {
	a := lr.a
	lr.startPos = offset
	total := len(lr.slots)
	if total == 0 {
		return offset, nil
	}
	if lr.initialIndent < 0 {
		lr.initialIndent = a.indentAt(offset)
	}

	currPos := text.ByteOffset(-1)
	lastNonInsert, lastNonDelete := -1, -1
	for i := range lr.slots {
		k := lr.kind(i)
		if k != Inserted {
			lastNonInsert = i
			if currPos == -1 {
				currPos = a.extendedRange(lr.original(i)).Start
			}
		}
		if k != Removed {
			lastNonDelete = i
		}
	}

	insertNew := currPos == -1
	if insertNew {
		if err := a.insertText(offset, keyword, lr.group(0)); err != nil {
			return 0, err
		}
		currPos = offset
	}
	if lastNonDelete == -1 {
		currPos = offset
	}

	prevEnd := currPos
	prevMark := Unchanged
	state := sepNew

	for i := range total {
		ev := lr.slots[i]
		currMark := ev.Kind()
		g := ev.Group()
		next := i + 1

		switch currMark {
		case Inserted:
			if state == sepNone {
				if err := a.insertText(currPos, lr.sep(i-1), g); err != nil {
					return 0, err
				}
				state = sepNew
			}
			if state == sepNew || lr.insertAfterSeparator(ev.New()) {
				if state == sepExisting {
					if err := lr.updateIndent(prevMark, currPos, i, g); err != nil {
						return 0, err
					}
				}
				if err := a.insertNode(currPos, ev.New(), lr.nodeIndent(i), g); err != nil {
					return 0, err
				}
				state = sepNew
				if i != lastNonDelete {
					if lr.kind(next) != Inserted {
						if err := a.insertText(currPos, lr.sep(i), g); err != nil {
							return 0, err
						}
					} else {
						state = sepNone
					}
				}
			} else {
				if err := a.insertText(prevEnd, lr.sep(i-1), g); err != nil {
					return 0, err
				}
				if err := a.insertNode(prevEnd, ev.New(), lr.nodeIndent(i), g); err != nil {
					return 0, err
				}
			}
			if insertNew && i == lastNonDelete && endKeyword != "" {
				if err := a.insertText(currPos, endKeyword, g); err != nil {
					return 0, err
				}
			}

		case Removed:
			orig := ev.Original()
			ext := a.extendedRange(orig)
			currEnd := ext.End
			if protected, ok := lr.skipComments(prevEnd, ext.Start); ok {
				if currPos < protected {
					currPos = ext.Start
				}
				prevEnd = protected
			}

			if i > lastNonDelete && state == sepExisting {
				// The separator goes with the trailing element; comments
				// after it stay with the previous one.
				from := prevEnd
				if sep, ok := lr.separatorSpan(prevEnd, currPos); ok {
					if err := a.removeText(sep.Start, sep.End, g); err != nil {
						return 0, err
					}
					from = sep.End
					if protected, ok := lr.skipComments(sep.End, currPos); ok {
						from = protected
					}
				}
				if err := a.removeText(from, currPos, g); err != nil {
					return 0, err
				}
				if err := a.removeAndVisit(currPos, currEnd, orig, g); err != nil {
					return 0, err
				}
				if lr.lineCommentSwallowsActualCode(from) {
					closing := a.opts.LineDelimiter + a.indentString(a.indentAt(lr.startPos))
					if err := a.insertText(currEnd, closing, g); err != nil {
						return 0, err
					}
				}
				currPos = currEnd
				prevEnd = currEnd
			} else {
				if i < lastNonDelete {
					if err := lr.updateIndent(prevMark, currPos, i, g); err != nil {
						return 0, err
					}
				}
				end := lr.startOfNextNode(next, currEnd)
				if k, err := a.cursor.ReadNext(currEnd, true); err == nil && lexer.IsComment(k) {
					if s, err := a.cursor.NextStartOffset(currEnd, true); err == nil && end != s {
						end = currEnd
					}
				}
				if err := a.removeAndVisit(currPos, currEnd, orig, g); err != nil {
					return 0, err
				}
				if lr.mustRemoveSeparator(currPos, i) {
					if err := a.removeText(currEnd, end, g); err != nil {
						return 0, err
					}
				}
				currPos = end
				prevEnd = currEnd
				state = sepNew
			}

		case Replaced:
			orig := ev.Original()
			ext := a.extendedRange(orig)
			currEnd := ext.End
			if err := lr.updateIndent(prevMark, currPos, i, g); err != nil {
				return 0, err
			}
			if protected, ok := lr.skipComments(prevEnd, ext.Start); ok && currPos < protected {
				currPos = ext.Start
			}
			if err := a.removeAndVisit(currPos, currEnd, orig, g); err != nil {
				return 0, err
			}
			if err := a.insertNode(currPos, ev.New(), lr.nodeIndent(i), g); err != nil {
				return 0, err
			}
			prevEnd = currEnd

		case Unchanged:
			if _, err := a.visitEnd(ev.Original()); err != nil {
				return 0, err
			}
		}

		if currMark == Replaced || currMark == Unchanged {
			if i == lastNonInsert {
				state = sepNone
				if currMark == Unchanged {
					prevEnd = a.extendedRange(ev.Original()).End
				}
				currPos = prevEnd
			} else if lr.kind(next) != Unchanged {
				if currMark == Unchanged {
					prevEnd = a.extendedRange(ev.Original()).End
				}
				currPos = lr.startOfNextNode(next, prevEnd)
				state = sepExisting
			}
		}
		prevMark = currMark
	}
	return currPos, nil
}

// skipComments advances from over the comments that lie before limit. The
// comments belong to the previous element and survive its neighbour's
// removal. ok is false when the tokens cannot be read.
func (lr *listRewriter) skipComments(from, limit text.ByteOffset) (text.ByteOffset, bool) {
	c := lr.a.cursor
	off := from
	for {
		k, err := c.ReadNext(off, true)
		if err != nil {
			return 0, false
		}
		if !lexer.IsComment(k) {
			return off, true
		}
		end := c.CurrentEnd()
		if end >= limit {
			return off, true
		}
		off = end
	}
}

// separatorSpan returns the separator token between from and limit. Comments
// before the separator are left out of the span.
func (lr *listRewriter) separatorSpan(from, limit text.ByteOffset) (text.Span, bool) {
	c := lr.a.cursor
	if _, err := c.ReadNext(from, false); err != nil || c.CurrentEnd() > limit {
		return text.Span{}, false
	}
	sep := c.CurrentSpan()
	if next, err := c.NextStartOffset(from, true); err == nil && next < sep.Start {
		return sep, true
	}
	return text.Span{Start: from, End: sep.End}, true
}

// startOfNextNode returns the extended start of the first non-inserted slot
// at or after i, or def.
func (lr *listRewriter) startOfNextNode(i int, def text.ByteOffset) text.ByteOffset {
	for ; i < len(lr.slots); i++ {
		if lr.kind(i) != Inserted {
			return lr.a.extendedRange(lr.original(i)).Start
		}
	}
	return def
}

// lineCommentSwallowsActualCode reports whether removing the trailing
// elements leaves a line comment ending at prevEnd directly followed by code
// on the same line.
func (lr *listRewriter) lineCommentSwallowsActualCode(prevEnd text.ByteOffset) bool {
	a := lr.a
	if !a.commentEnds[prevEnd] {
		return false
	}
	last := lr.original(len(lr.slots) - 1)
	if last == syntax.NoNode {
		return false
	}
	lastEnd := a.extendedRange(last).End
	next, err := a.cursor.NextStartOffset(lastEnd, true)
	if err != nil {
		return false
	}
	return a.lines.LineNumber(lastEnd) == a.lines.LineNumber(next)
}

func (lr *listRewriter) insertAfterSeparator(node syntax.NodeID) bool {
	return !lr.a.insertBoundToPrevious(node)
}

// nodeIndent returns the indent level of slot i.
func (lr *listRewriter) nodeIndent(i int) int {
	if lr.style == labelList {
		return lr.labelIndent(i)
	}
	if i < 0 || i >= len(lr.slots) {
		return lr.initialIndent
	}
	for j := i; j >= 0; j-- {
		if orig := lr.original(j); orig != syntax.NoNode {
			return lr.a.indentAt(lr.a.nodeStart(orig))
		}
	}
	return lr.initialIndent
}

// labelIndent returns the indent level of slot i in a label list. Labels sit
// at the base level; statements one level deeper unless they follow an arrow
// label on its line.
func (lr *listRewriter) labelIndent(i int) int {
	indent := lr.initialIndent
	if !lr.a.opts.IndentSwitchStatementsCompareToCases || i < 0 || i >= len(lr.slots) {
		return indent
	}
	if lr.labelForm(lr.newNode(i)) != NotLabel {
		return indent
	}
	if prev := lr.previousSurvivor(i); prev >= 0 && lr.labelForm(lr.newNode(prev)) == ArrowLabel {
		return indent
	}
	return indent + 1
}

// newNode returns the element slot i holds after the rewrite, or the removed
// original.
func (lr *listRewriter) newNode(i int) syntax.NodeID {
	ev := lr.slots[i]
	if k := ev.Kind(); k == Inserted || k == Replaced {
		return ev.New()
	}
	return ev.Original()
}

func (lr *listRewriter) labelForm(id syntax.NodeID) LabelForm {
	if lr.label == nil || id == syntax.NoNode {
		return NotLabel
	}
	return lr.label(lr.a.view, id)
}

// sep returns the text placed between slot i and the next slot.
func (lr *listRewriter) sep(i int) string {
	switch lr.style {
	case paragraphList:
		return lr.sepBetween(i, i+1)
	case labelList:
		next := i + 1
		for next < len(lr.slots) && lr.kind(next) == Removed {
			next++
		}
		if next == len(lr.slots) {
			next = i + 1
		}
		return lr.sepBetween(i, next)
	default:
		return lr.separator
	}
}

func (lr *listRewriter) sepBetween(i, next int) string {
	delim := lr.a.opts.LineDelimiter
	if lr.style == labelList {
		if lr.isLabeledRule(i, next) {
			if lr.a.opts.InsertSpaceAfterArrowInSwitch {
				return " "
			}
			return ""
		}
		return delim + lr.a.indentString(lr.nodeIndent(next))
	}
	lines := lr.separatorLines
	if lines == -1 {
		lines = lr.newLines(i)
	}
	return strings.Repeat(delim, 1+lines) + lr.a.indentString(lr.nodeIndent(next))
}

func (lr *listRewriter) isLabeledRule(i, next int) bool {
	if i < 0 || i >= len(lr.slots) || next >= len(lr.slots) {
		return false
	}
	return lr.labelForm(lr.newNode(i)) == ArrowLabel && lr.labelForm(lr.newNode(next)) == NotLabel
}

// newLines infers the number of blank lines between slot i and the next slot
// from an existing pair of members of the same kinds.
func (lr *listRewriter) newLines(i int) int {
	v := lr.a.view
	currKind := v.Kind(lr.node(i))
	nextKind := currKind
	if i+1 < len(lr.slots) {
		nextKind = v.Kind(lr.node(i + 1))
	}
	last, secondLast := syntax.NoNode, syntax.NoNode
	for j := range lr.slots {
		elem := lr.original(j)
		if elem == syntax.NoNode {
			continue
		}
		if last != syntax.NoNode {
			if v.Kind(elem) == nextKind && v.Kind(last) == currKind {
				return lr.countEmptyLines(last)
			}
			secondLast = last
		}
		last = elem
	}
	if lr.tight != nil && lr.tight(currKind, nextKind) {
		return 0
	}
	if secondLast != syntax.NoNode {
		return lr.countEmptyLines(secondLast)
	}
	return defaultSpacing
}

// countEmptyLines returns the number of blank lines after the line on which
// id ends.
func (lr *listRewriter) countEmptyLines(id syntax.NodeID) int {
	a := lr.a
	lines := a.lines
	startLine := lines.LineNumber(a.extendedRange(id).End) + 1
	if startLine >= lines.LineCount() {
		return 0
	}
	start := lines.LineStart(startLine)
	i := start
	for i < text.ByteOffset(len(a.src)) && isSpace(a.src[i]) {
		i++
	}
	if i > start {
		if line := lines.LineNumber(i); line > startLine {
			return line - startLine
		}
	}
	return 0
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// mustRemoveSeparator reports whether the separator after the removed slot i
// goes with it. A separator is kept when the previous surviving element ends
// on the line of the removed one and the next element starts on another line.
func (lr *listRewriter) mustRemoveSeparator(originalOffset text.ByteOffset, i int) bool {
	if lr.style == plainList {
		return true
	}
	prev := lr.previousSurvivor(i)
	if prev < 0 {
		return true
	}
	a := lr.a
	if k := lr.kind(prev); k != Unchanged && k != Replaced {
		return true
	}
	prevLine := a.lines.LineNumber(a.nodeEnd(lr.original(prev)))
	line := a.lines.LineNumber(originalOffset)
	if prevLine != line || i+1 >= len(lr.slots) {
		return true
	}
	if k := lr.kind(i + 1); k != Unchanged && k != Replaced {
		return false
	}
	return a.lines.LineNumber(a.nodeStart(lr.original(i+1))) == line
}

func (lr *listRewriter) previousSurvivor(i int) int {
	j := i - 1
	for j >= 0 && lr.kind(j) == Removed {
		j--
	}
	return j
}

// updateIndent re-indents the line of an element that moves under a
// different label.
func (lr *listRewriter) updateIndent(prevMark ChangeKind, originalOffset text.ByteOffset, i int, g *edit.Group) error {
	if lr.style != labelList || (prevMark != Unchanged && prevMark != Replaced) {
		return nil
	}
	a := lr.a
	if prev := lr.previousSurvivor(i); prev >= 0 {
		if k := lr.kind(prev); k == Unchanged || k == Replaced {
			if a.lines.LineNumber(a.nodeEnd(lr.original(prev))) == a.lines.LineNumber(originalOffset) {
				return nil
			}
		}
	}
	for i < len(lr.slots) && lr.kind(i) == Removed {
		i++
	}
	if i == len(lr.slots) {
		return nil
	}
	newIndent := lr.nodeIndent(i)
	if a.indentAt(originalOffset) == newIndent {
		return nil
	}
	lineStart := a.lines.LineStartOf(originalOffset)
	return a.replaceText(text.Span{Start: lineStart, End: originalOffset}, a.indentString(newIndent), g)
}
