package rewrite

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/logging"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// analyzer walks the original tree once and emits the edits that turn the
// source into the text of the rewritten tree. Subtrees without changes,
// tracked nodes or copy sources are skipped.
type analyzer struct {
	ctx     context.Context
	logger  *log.Logger
	tree    *syntax.Tree
	src     []byte
	lines   *text.LineIndex
	store   *Store
	infos   *Annotations
	ranges  RangeResolver
	layouts *Layouts
	opts    Options
	indent  format.IndentOptions
	view    View
	cursor  *lexer.Cursor
	render  *renderer

	root    *edit.Edit
	current *edit.Edit

	commentEnds  map[text.ByteOffset]bool
	dirty        map[syntax.NodeID]bool
	sources      map[syntax.NodeID][]*CopySourceInfo
	sourceEdits  map[*CopySourceInfo]*edit.Edit
	rendered     map[*CopySourceInfo]bool
	rangeMembers map[syntax.NodeID][]syntax.NodeID
	rangeOwners  map[propKey][]*CopySourceInfo
	endStack     []syntax.NodeID
}

func newAnalyzer(ctx context.Context, in Input, opts Options, infos *Annotations, ranges RangeResolver) *analyzer {
	view := NewView(in.Tree, in.Store)
	indent, _ := opts.indent().Normalize()
	return &analyzer{
		ctx:          ctx,
		logger:       logging.FromContext(ctx),
		tree:         in.Tree,
		src:          in.Tree.Source,
		lines:        in.Tree.LineIndex,
		store:        in.Store,
		infos:        infos,
		ranges:       ranges,
		layouts:      in.Layouts,
		opts:         opts,
		indent:       indent,
		view:         view,
		cursor:       lexer.NewCursor(in.Tree.Source),
		render:       &renderer{ctx: newRenderContext(view, in.Layouts, infos), opts: opts},
		commentEnds:  map[text.ByteOffset]bool{},
		dirty:        map[syntax.NodeID]bool{},
		sources:      map[syntax.NodeID][]*CopySourceInfo{},
		sourceEdits:  map[*CopySourceInfo]*edit.Edit{},
		rendered:     map[*CopySourceInfo]bool{},
		rangeMembers: map[syntax.NodeID][]syntax.NodeID{},
		rangeOwners:  map[propKey][]*CopySourceInfo{},
	}
}

func (a *analyzer) run() (*edit.Edit, error) {
	a.root = edit.NewMulti()
	a.current = a.root
	if err := a.prepare(); err != nil {
		return nil, err
	}
	if a.tree.Root != syntax.NoNode && a.dirty[a.tree.Root] {
		if err := a.visit(a.tree.Root); err != nil {
			return nil, err
		}
	}
	for _, info := range a.infos.CopySources() {
		src := a.sourceEdits[info]
		switch {
		case !a.rendered[info]:
			return nil, fmt.Errorf("%w: %s of node %d is never placed", ErrDanglingPlaceholder, sourceVerb(info), info.First)
		case src == nil || src.Parent() == nil:
			return nil, fmt.Errorf("%w: source node %d of a %s is not part of the tree", ErrDanglingPlaceholder, info.First, sourceVerb(info))
		}
	}
	return a.root, nil
}

func sourceVerb(info *CopySourceInfo) string {
	if info.IsMove {
		return "move"
	}
	return "copy"
}

// prepare indexes copy sources and marks the nodes the walk must enter.
func (a *analyzer) prepare() error {
	for _, off := range lexer.LineCommentEnds(a.src) {
		a.commentEnds[off] = true
	}
	for _, id := range a.store.ChangedNodes() {
		a.markDirty(id)
	}
	for _, id := range a.infos.TrackedNodes() {
		if a.tree.IsOriginal(id) {
			a.markDirty(id)
		}
	}
	for _, info := range a.infos.CopySources() {
		if !a.tree.IsOriginal(info.First) || !a.tree.IsOriginal(info.Last) {
			return contractf("copy source", info.First, "source must be an original node")
		}
		if info.IsRange() {
			if err := a.indexRange(info); err != nil {
				return err
			}
		}
		a.sources[info.Node] = append(a.sources[info.Node], info)
		a.markDirty(info.First)
		a.markDirty(info.Last)
	}
	return nil
}

func (a *analyzer) indexRange(info *CopySourceInfo) error {
	first := a.tree.NodeByID(info.First)
	parent := a.tree.NodeByID(first.Parent)
	if parent == nil {
		return contractf("copy range", info.First, "range has no parent list")
	}
	for _, p := range a.tree.Schema.Properties(parent.Kind) {
		if !p.IsList() {
			continue
		}
		list := a.tree.List(parent.ID, p.Name)
		i := slices.Index(list, info.First)
		if i < 0 {
			continue
		}
		j := slices.Index(list, info.Last)
		if j < i {
			return contractf("copy range", info.First, "last node %d does not follow first node in %s", info.Last, p.Name)
		}
		a.rangeMembers[info.Node] = slices.Clone(list[i : j+1])
		k := propKey{parent.ID, p.Name}
		a.rangeOwners[k] = append(a.rangeOwners[k], info)
		return nil
	}
	return contractf("copy range", info.First, "first node is not a list element")
}

func (a *analyzer) markDirty(id syntax.NodeID) {
	for id != syntax.NoNode && !a.dirty[id] {
		a.dirty[id] = true
		n := a.tree.NodeByID(id)
		if n == nil {
			return
		}
		id = n.Parent
	}
}

// slotsFor returns the slots of a list property with copied ranges collapsed
// into their range node.
func (a *analyzer) slotsFor(parent syntax.NodeID, prop string) ([]*NodeEvent, error) {
	var slots []*NodeEvent
	if ev := a.store.ListEvent(parent, prop); ev != nil {
		slots = slices.Clone(ev.Slots())
	} else {
		for _, id := range a.tree.List(parent, prop) {
			slots = append(slots, &NodeEvent{original: id, value: id})
		}
	}
	for _, info := range a.rangeOwners[propKey{parent, prop}] {
		i := slices.IndexFunc(slots, func(s *NodeEvent) bool { return s.original == info.First })
		j := slices.IndexFunc(slots, func(s *NodeEvent) bool { return s.original == info.Last })
		if i < 0 || j < i {
			return nil, contractf("copy range", info.First, "range is not contiguous in %s", prop)
		}
		kind := slots[i].Kind()
		for _, s := range slots[i : j+1] {
			if s.original == syntax.NoNode {
				return nil, contractf("copy range", info.First, "insertion inside a copied range")
			}
			if s.Kind() != kind || (kind != Unchanged && kind != Removed) {
				return nil, contractf("copy range", info.First, "a copied range must be kept or removed as a whole")
			}
		}
		collapsed := &NodeEvent{original: info.Node, value: info.Node, group: slots[i].group}
		if kind == Removed {
			collapsed.value = syntax.NoNode
		}
		slots = slices.Replace(slots, i, j+1, collapsed)
	}
	return slots, nil
}

func (a *analyzer) originalList(parent syntax.NodeID, prop string) ([]syntax.NodeID, error) {
	list := a.tree.List(parent, prop)
	if len(a.rangeOwners[propKey{parent, prop}]) == 0 {
		return list, nil
	}
	slots, err := a.slotsFor(parent, prop)
	if err != nil {
		return nil, err
	}
	out := make([]syntax.NodeID, 0, len(slots))
	for _, s := range slots {
		if s.original != syntax.NoNode {
			out = append(out, s.original)
		}
	}
	return out, nil
}

// visit enters an original node: copy sources and tracked ranges open before
// its children and close after them.
func (a *analyzer) visit(id syntax.NodeID) error {
	if err := a.preVisit(id); err != nil {
		return err
	}
	var err error
	if members, ok := a.rangeMembers[id]; ok {
		for _, m := range members {
			if _, err = a.visitEnd(m); err != nil {
				break
			}
		}
	} else if a.dirty[id] {
		err = a.visitNode(id)
	}
	if err != nil {
		return err
	}
	a.postVisit(id)
	return nil
}

// visitEnd visits id and returns its extended end.
func (a *analyzer) visitEnd(id syntax.NodeID) (text.ByteOffset, error) {
	if err := a.visit(id); err != nil {
		return 0, err
	}
	return a.extendedRange(id).End, nil
}

func (a *analyzer) preVisit(id syntax.NodeID) error {
	for _, info := range a.sources[id] {
		e := a.sourceEdit(info)
		if err := a.addEdit(e); err != nil {
			return err
		}
		a.current = e
		a.endStack = append(a.endStack, id)
	}
	if g := a.infos.Tracked(id); g != nil {
		m := edit.NewRangeMarker(a.extendedRange(id))
		if err := a.addEdit(m); err != nil {
			return err
		}
		g.Add(m)
		a.current = m
	}
	return nil
}

func (a *analyzer) postVisit(id syntax.NodeID) {
	if a.infos.Tracked(id) != nil {
		a.current = a.current.Parent()
	}
	for len(a.endStack) > 0 && a.endStack[len(a.endStack)-1] == id {
		a.endStack = a.endStack[:len(a.endStack)-1]
		a.current = a.current.Parent()
	}
}

func (a *analyzer) sourceEdit(info *CopySourceInfo) *edit.Edit {
	if e, ok := a.sourceEdits[info]; ok {
		return e
	}
	span := a.extendedRange(info.Node)
	var e *edit.Edit
	if info.IsMove {
		e = edit.NewMoveSource(span)
	} else {
		e = edit.NewCopySource(span)
	}
	a.sourceEdits[info] = e
	return e
}

func (a *analyzer) visitNode(id syntax.NodeID) error {
	if err := a.ctx.Err(); err != nil {
		return err
	}
	n := a.tree.NodeByID(id)
	if !a.store.HasChildrenChanges(id) {
		return a.visitChildren(id)
	}
	layout := a.layouts.For(n.Kind)
	if layout == nil {
		return fmt.Errorf("%w: no layout for %s", ErrSchemaViolation, a.tree.KindName(id))
	}
	if layout.Immutable {
		return &ChangeNotSupportedError{Kind: a.tree.KindName(id)}
	}
	a.logger.Debug("rewrite node", logging.FieldKind, a.tree.KindName(id), logging.FieldNodes, id)
	pos := n.Span.Start
	if layout.Keyword != lexer.TokenError {
		var err error
		if pos, err = a.tokenEnd(layout.Keyword, pos); err != nil {
			return err
		}
	}
	for i := range layout.Slots {
		var err error
		if pos, err = a.rewriteSlot(id, &layout.Slots[i], pos); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) visitChildren(id syntax.NodeID) error {
	n := a.tree.NodeByID(id)
	for _, p := range a.tree.Schema.Properties(n.Kind) {
		if _, err := a.visitProperty(id, p.Name, 0); err != nil {
			return err
		}
	}
	return nil
}

// visitProperty visits the original value of prop and returns the extended
// end of its last node, or pos when it holds none.
func (a *analyzer) visitProperty(id syntax.NodeID, prop string, pos text.ByteOffset) (text.ByteOffset, error) {
	i, ok := a.tree.PropertyIndex(id, prop)
	if !ok {
		return pos, nil
	}
	n := a.tree.NodeByID(id)
	switch a.tree.Schema.Properties(n.Kind)[i].Kind {
	case syntax.PropertyChild:
		if c := a.tree.Child(id, prop); c != syntax.NoNode {
			return a.visitEnd(c)
		}
	case syntax.PropertyList:
		list, err := a.originalList(id, prop)
		if err != nil {
			return 0, err
		}
		for _, c := range list {
			if pos, err = a.visitEnd(c); err != nil {
				return 0, err
			}
		}
	}
	return pos, nil
}

func (a *analyzer) rewriteSlot(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	switch s.Policy {
	case SlotRequired:
		return a.rewriteRequired(id, s, pos)
	case SlotOptional:
		return a.rewriteOptional(id, s, pos)
	case SlotLeading:
		return a.rewriteLeading(id, s, pos)
	case SlotModifier:
		return a.rewriteModifier(id, s, pos)
	case SlotToken:
		return a.rewriteToken(id, s, pos)
	case SlotLeaf:
		return a.rewriteLeaf(id, s, pos)
	case SlotTrailing:
		return a.rewriteTrailing(id, s, pos)
	case SlotList:
		return a.rewriteList(id, s, pos)
	case SlotOptionalList:
		return a.rewriteOptionalList(id, s, pos)
	case SlotParagraph:
		return a.rewriteParagraph(id, s, pos)
	case SlotLabels:
		return a.rewriteLabels(id, s, pos)
	case SlotFixed:
		return a.rewriteFixed(id, s, pos)
	default:
		return 0, fmt.Errorf("%w: %s.%s has no slot policy", ErrSchemaViolation, a.tree.KindName(id), s.Property)
	}
}

func (a *analyzer) notSupported(id syntax.NodeID, prop string) error {
	return &ChangeNotSupportedError{Kind: a.tree.KindName(id), Property: prop}
}

func (a *analyzer) rewriteRequired(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.Event(id, s.Property)
	switch ev.Kind() {
	case Replaced:
		r := a.extendedRange(ev.Original())
		if err := a.removeAndVisit(r.Start, r.End, ev.Original(), ev.Group()); err != nil {
			return 0, err
		}
		if err := a.insertNode(r.Start, ev.New(), a.indentAt(r.Start), ev.Group()); err != nil {
			return 0, err
		}
		return r.End, nil
	case Inserted, Removed:
		return 0, a.notSupported(id, s.Property)
	}
	return a.visitProperty(id, s.Property, pos)
}

func (a *analyzer) rewriteOptional(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.Event(id, s.Property)
	g := ev.Group()
	switch ev.Kind() {
	case Inserted:
		indent := a.indentAt(pos)
		if err := a.insertText(pos, s.Prefix, g); err != nil {
			return 0, err
		}
		if err := a.insertNode(pos, ev.New(), indent, g); err != nil {
			return 0, err
		}
		return pos, nil
	case Removed:
		r := a.extendedRange(ev.Original())
		if err := a.removeAndVisit(pos, r.End, ev.Original(), g); err != nil {
			return 0, err
		}
		return r.End, nil
	case Replaced:
		r := a.extendedRange(ev.Original())
		if err := a.removeAndVisit(r.Start, r.End, ev.Original(), g); err != nil {
			return 0, err
		}
		if err := a.insertNode(r.Start, ev.New(), a.indentAt(pos), g); err != nil {
			return 0, err
		}
		return r.End, nil
	}
	return a.visitProperty(id, s.Property, pos)
}

func (a *analyzer) rewriteLeading(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.Event(id, s.Property)
	g := ev.Group()
	switch ev.Kind() {
	case Inserted:
		if err := a.insertNode(pos, ev.New(), a.indentAt(pos), g); err != nil {
			return 0, err
		}
		if err := a.insertText(pos, s.Suffix, g); err != nil {
			return 0, err
		}
		return pos, nil
	case Removed:
		orig := ev.Original()
		end, err := a.tokenEnd(s.Terminator, a.nodeEnd(orig))
		if err != nil {
			return 0, err
		}
		next := a.nextStart(end, true)
		if err := a.removeAndVisit(pos, next, orig, g); err != nil {
			return 0, err
		}
		return next, nil
	case Replaced:
		r := a.extendedRange(ev.Original())
		if err := a.removeAndVisit(r.Start, r.End, ev.Original(), g); err != nil {
			return 0, err
		}
		if err := a.insertNode(r.Start, ev.New(), a.indentAt(pos), g); err != nil {
			return 0, err
		}
		return a.tokenEnd(s.Terminator, r.End)
	}
	orig := a.tree.Child(id, s.Property)
	if orig == syntax.NoNode {
		return pos, nil
	}
	end, err := a.visitEnd(orig)
	if err != nil {
		return 0, err
	}
	return a.tokenEnd(s.Terminator, end)
}

func (a *analyzer) rewriteModifier(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.ScalarEvent(id, s.Property)
	kw, found := a.findKeyword(pos, s.Keywords)
	g := ev.Group()
	switch ev.Kind() {
	case Inserted:
		at := a.nextStart(pos, false)
		if err := a.insertText(at, ev.New()+" ", g); err != nil {
			return 0, err
		}
		return at, nil
	case Removed:
		if !found {
			return 0, mismatch(fmt.Sprintf("%s keyword of %s", s.Property, a.tree.KindName(id)), nil)
		}
		next := a.nextStart(kw.End, true)
		if err := a.removeText(kw.Start, next, g); err != nil {
			return 0, err
		}
		return next, nil
	case Replaced:
		if !found {
			return 0, mismatch(fmt.Sprintf("%s keyword of %s", s.Property, a.tree.KindName(id)), nil)
		}
		if err := a.replaceText(kw, ev.New(), g); err != nil {
			return 0, err
		}
		return kw.End, nil
	}
	if found {
		return kw.End, nil
	}
	return pos, nil
}

// findKeyword reports the span of the token after pos when its text is one
// of keywords.
func (a *analyzer) findKeyword(pos text.ByteOffset, keywords []string) (text.Span, bool) {
	if _, err := a.cursor.ReadNext(pos, false); err != nil {
		return text.Span{}, false
	}
	sp := a.cursor.CurrentSpan()
	if !slices.Contains(keywords, string(a.src[sp.Start:sp.End])) {
		return text.Span{}, false
	}
	return sp, true
}

func (a *analyzer) rewriteToken(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	k, err := a.cursor.ReadNext(pos, false)
	if err != nil || (len(s.Tokens) > 0 && !slices.Contains(s.Tokens, k)) {
		return 0, mismatch(fmt.Sprintf("%s token of %s at offset %d", s.Property, a.tree.KindName(id), pos), err)
	}
	sp := a.cursor.CurrentSpan()
	ev := a.store.ScalarEvent(id, s.Property)
	switch ev.Kind() {
	case Replaced:
		if err := a.replaceText(sp, ev.New(), ev.Group()); err != nil {
			return 0, err
		}
	case Inserted, Removed:
		return 0, a.notSupported(id, s.Property)
	}
	return sp.End, nil
}

func (a *analyzer) rewriteLeaf(id syntax.NodeID, s *Slot, _ text.ByteOffset) (text.ByteOffset, error) {
	sp := a.tree.NodeByID(id).Span
	ev := a.store.ScalarEvent(id, s.Property)
	switch ev.Kind() {
	case Replaced:
		if err := a.replaceText(sp, ev.New(), ev.Group()); err != nil {
			return 0, err
		}
	case Inserted, Removed:
		return 0, a.notSupported(id, s.Property)
	}
	return sp.End, nil
}

func (a *analyzer) rewriteTrailing(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.ScalarEvent(id, s.Property)
	var tok text.Span
	if a.tree.Scalar(id, s.Property) != "" {
		k, err := a.cursor.ReadNext(pos, false)
		if err != nil || (len(s.Tokens) > 0 && !slices.Contains(s.Tokens, k)) {
			return 0, mismatch(fmt.Sprintf("%s of %s at offset %d", s.Property, a.tree.KindName(id), pos), err)
		}
		tok = a.cursor.CurrentSpan()
	}
	g := ev.Group()
	switch ev.Kind() {
	case Inserted:
		if err := a.insertText(pos, ev.New(), g); err != nil {
			return 0, err
		}
		return pos, nil
	case Removed:
		if err := a.removeText(tok.Start, tok.End, g); err != nil {
			return 0, err
		}
		return tok.End, nil
	case Replaced:
		if err := a.replaceText(tok, ev.New(), g); err != nil {
			return 0, err
		}
		return tok.End, nil
	}
	if tok.End > pos {
		return tok.End, nil
	}
	return pos, nil
}

func (a *analyzer) rewriteList(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	var err error
	if s.Open != lexer.TokenError {
		if pos, err = a.tokenEnd(s.Open, pos); err != nil {
			return 0, err
		}
	}
	if a.store.ListEvent(id, s.Property).Kind() == Unchanged {
		pos, err = a.visitProperty(id, s.Property, pos)
	} else {
		var lr *listRewriter
		if lr, err = a.newListRewriter(id, s.Property, plainList); err != nil {
			return 0, err
		}
		lr.separator = s.Separator
		pos, err = lr.rewrite(pos, "", "")
	}
	if err != nil {
		return 0, err
	}
	if s.Close != lexer.TokenError {
		return a.tokenEnd(s.Close, pos)
	}
	return pos, nil
}

// rewriteOptionalList rewrites a list whose brackets go away with its last
// element and come back with the first new one.
func (a *analyzer) rewriteOptionalList(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	ev := a.store.ListEvent(id, s.Property)
	if ev.Kind() == Unchanged {
		if len(a.tree.List(id, s.Property)) == 0 {
			return pos, nil
		}
		start, err := a.tokenEnd(s.Open, pos)
		if err != nil {
			return 0, err
		}
		end, err := a.visitProperty(id, s.Property, start)
		if err != nil {
			return 0, err
		}
		return a.tokenEnd(s.Close, end)
	}

	allInserted := ev.AllOf(Inserted)
	allRemoved := !allInserted && ev.AllOf(Removed)
	keyword, endKeyword := "", ""
	if allInserted {
		keyword, endKeyword = s.Keyword, s.EndKeyword
	}
	lr, err := a.newListRewriter(id, s.Property, plainList)
	if err != nil {
		return 0, err
	}
	lr.separator = s.Separator
	end, err := lr.rewrite(pos, keyword, endKeyword)
	if err != nil {
		return 0, err
	}
	switch {
	case allInserted:
		return end, nil
	case allRemoved:
		closeEnd, err := a.tokenEnd(s.Close, end)
		if err != nil {
			return 0, err
		}
		slots := ev.Slots()
		if err := a.removeText(end, closeEnd, slots[len(slots)-1].Group()); err != nil {
			return 0, err
		}
		return closeEnd, nil
	default:
		return a.tokenEnd(s.Close, end)
	}
}

func (a *analyzer) rewriteParagraph(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	start := pos
	var err error
	if s.Open != lexer.TokenError {
		if start, err = a.tokenEnd(s.Open, pos); err != nil {
			return 0, err
		}
	}
	ev := a.store.ListEvent(id, s.Property)
	var end text.ByteOffset
	if ev.Kind() == Unchanged {
		end, err = a.visitProperty(id, s.Property, start)
	} else {
		indent := a.indentAt(a.nodeStart(id)) + s.Indent
		lead, endKeyword := "", ""
		if ev.AllOf(Inserted) {
			lead = strings.Repeat(a.opts.LineDelimiter, s.Lead) + a.indentString(indent)
			if s.Close != lexer.TokenError && a.closeOnSameLine(start, s.Close) {
				endKeyword = a.opts.LineDelimiter + a.indentString(indent-s.Indent)
			}
		}
		var lr *listRewriter
		if lr, err = a.newListRewriter(id, s.Property, paragraphList); err != nil {
			return 0, err
		}
		lr.initialIndent = indent
		lr.separatorLines = s.SeparatorLines
		lr.tight = s.Tight
		end, err = lr.rewrite(start, lead, endKeyword)
	}
	if err != nil {
		return 0, err
	}
	if s.Close != lexer.TokenError {
		return a.tokenEnd(s.Close, end)
	}
	return end, nil
}

func (a *analyzer) closeOnSameLine(from text.ByteOffset, close lexer.TokenKind) bool {
	off, err := a.cursor.TokenStartOffset(close, from)
	if err != nil {
		return false
	}
	return a.lines.LineNumber(from) == a.lines.LineNumber(off)
}

func (a *analyzer) rewriteLabels(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	start, err := a.tokenEnd(s.Open, pos)
	if err != nil {
		return 0, err
	}
	var end text.ByteOffset
	if a.store.ListEvent(id, s.Property).Kind() == Unchanged {
		end, err = a.visitProperty(id, s.Property, start)
	} else {
		indent := a.indentAt(a.nodeStart(id))
		if a.opts.IndentSwitchStatementsCompareToSwitch {
			indent++
		}
		var lr *listRewriter
		if lr, err = a.newListRewriter(id, s.Property, labelList); err != nil {
			return 0, err
		}
		lr.initialIndent = indent
		lr.label = s.Label
		end, err = lr.rewrite(start, a.opts.LineDelimiter+a.indentString(indent), "")
	}
	if err != nil {
		return 0, err
	}
	return a.tokenEnd(s.Close, end)
}

func (a *analyzer) rewriteFixed(id syntax.NodeID, s *Slot, pos text.ByteOffset) (text.ByteOffset, error) {
	changed := a.store.Event(id, s.Property).Kind() != Unchanged ||
		a.store.ListEvent(id, s.Property).Kind() != Unchanged ||
		a.store.ScalarEvent(id, s.Property).Kind() != Unchanged
	if changed {
		return 0, a.notSupported(id, s.Property)
	}
	return a.visitProperty(id, s.Property, pos)
}

// Positions.

func (a *analyzer) extendedRange(id syntax.NodeID) text.Span {
	return a.ranges.ExtendedRange(id)
}

func (a *analyzer) nodeStart(id syntax.NodeID) text.ByteOffset {
	if _, ok := a.rangeMembers[id]; ok {
		return a.extendedRange(id).Start
	}
	return a.tree.NodeByID(id).Span.Start
}

func (a *analyzer) nodeEnd(id syntax.NodeID) text.ByteOffset {
	if _, ok := a.rangeMembers[id]; ok {
		return a.extendedRange(id).End
	}
	return a.tree.NodeByID(id).Span.End
}

func (a *analyzer) tokenEnd(kind lexer.TokenKind, from text.ByteOffset) (text.ByteOffset, error) {
	off, err := a.cursor.TokenEndOffset(kind, from)
	if err != nil {
		return 0, mismatch(fmt.Sprintf("expected %s after offset %d", kind, from), err)
	}
	return off, nil
}

// nextStart returns the start of the next token after from, or from at the
// end of the input.
func (a *analyzer) nextStart(from text.ByteOffset, includeComments bool) text.ByteOffset {
	off, err := a.cursor.NextStartOffset(from, includeComments)
	if err != nil {
		return from
	}
	return off
}

func (a *analyzer) indentAt(off text.ByteOffset) int {
	line := a.lines.LineContent(a.lines.LineNumber(off))
	return format.IndentUnits(string(a.src[line.Start:line.End]), a.indent)
}

func (a *analyzer) indentString(units int) string {
	return format.IndentString(units, a.indent)
}

func (a *analyzer) insertBoundToPrevious(id syntax.NodeID) bool {
	if bound, ok := a.infos.InsertBoundToPrevious(id); ok {
		return bound
	}
	if layout := a.layouts.For(a.view.Kind(id)); layout != nil {
		return layout.InsertBoundToPrevious
	}
	return false
}

// Edits.

func (a *analyzer) addEdit(e *edit.Edit) error {
	if err := a.current.AddChild(e); err != nil {
		return fmt.Errorf("add %s: %w", e, err)
	}
	return nil
}

// insertText inserts s at off. An insertion at the end of a line comment is
// moved to the next line once per comment.
func (a *analyzer) insertText(off text.ByteOffset, s string, g *edit.Group) error {
	if s == "" {
		return nil
	}
	if a.commentEnds[off] {
		if !strings.HasPrefix(s, a.opts.LineDelimiter) {
			s = a.opts.LineDelimiter + s
		}
		delete(a.commentEnds, off)
	}
	if edit.AppendInsert(a.current, g, off, s) {
		return nil
	}
	e := edit.NewInsert(off, s)
	if err := a.addEdit(e); err != nil {
		return err
	}
	g.Add(e)
	return nil
}

// removeText deletes [start, end), growing a deletion that ends at start.
func (a *analyzer) removeText(start, end text.ByteOffset, g *edit.Group) error {
	if end <= start {
		return nil
	}
	_, err := a.addDelete(text.Span{Start: start, End: end}, g)
	return err
}

func (a *analyzer) addDelete(sp text.Span, g *edit.Group) (*edit.Edit, error) {
	if e := edit.ExtendDelete(a.current, g, sp); e != nil {
		return e, nil
	}
	e := edit.NewDelete(sp)
	if err := a.addEdit(e); err != nil {
		return nil, err
	}
	g.Add(e)
	return e, nil
}

func (a *analyzer) replaceText(sp text.Span, s string, g *edit.Group) error {
	if sp.IsEmpty() && s == "" {
		return nil
	}
	e := edit.NewReplace(sp, s)
	if err := a.addEdit(e); err != nil {
		return err
	}
	g.Add(e)
	return nil
}

// removeAndVisit deletes [start, end) and visits node under the deletion so
// copy sources inside it are still captured.
func (a *analyzer) removeAndVisit(start, end text.ByteOffset, node syntax.NodeID, g *edit.Group) error {
	if end <= start {
		return a.visit(node)
	}
	e, err := a.addDelete(text.Span{Start: start, End: end}, g)
	if err != nil {
		return err
	}
	a.current = e
	err = a.visit(node)
	a.current = e.Parent()
	return err
}

// insertNode renders node at indent level indent and inserts it at off,
// resolving placeholders and tracked ranges left as markers in the text.
func (a *analyzer) insertNode(off text.ByteOffset, node syntax.NodeID, indent int, g *edit.Group) error {
	formatted, markers, err := a.render.render(node, indent)
	if err != nil {
		return err
	}
	currPos := 0
	for i := 0; i < len(markers); i++ {
		m := markers[i]
		if m.Offset < currPos {
			continue
		}
		if err := a.insertText(off, formatted[currPos:m.Offset], g); err != nil {
			return err
		}
		switch data := m.Data.(type) {
		case trackMark:
			marker := edit.NewRangeMarker(text.Span{Start: off, End: off})
			if err := a.addEdit(marker); err != nil {
				return err
			}
			data.group.Add(marker)
			if m.Length != 0 {
				end := format.Marker{Offset: m.Offset + m.Length, Data: data}
				k := i + 1
				for k < len(markers) && markers[k].Offset < end.Offset {
					k++
				}
				markers = slices.Insert(markers, k, end)
			}
			currPos = m.Offset
		case copyMark:
			if err := a.insertCopy(off, data.info, destIndent(formatted, m.Offset, a.indentString(indent)), g); err != nil {
				return err
			}
			currPos = m.Offset + m.Length
			if a.needsNewLineForLineComment(data.info, formatted, currPos) {
				if err := a.insertText(off, a.opts.LineDelimiter, g); err != nil {
					return err
				}
			}
		case codeMark:
			ind := destIndent(formatted, m.Offset, a.indentString(indent))
			code := format.ChangeIndent(data.code, 0, a.indent, ind, a.opts.LineDelimiter)
			if err := a.insertText(off, code, g); err != nil {
				return err
			}
			currPos = m.Offset + m.Length
		default:
			currPos = m.Offset
		}
	}
	if currPos < len(formatted) {
		return a.insertText(off, formatted[currPos:], g)
	}
	return nil
}

// destIndent returns the indentation of the rendered line holding off. The
// first line starts at the insertion point and uses initial.
func destIndent(formatted string, off int, initial string) string {
	lineStart := strings.LastIndexByte(formatted[:off], '\n') + 1
	if lineStart == 0 {
		return initial
	}
	return format.LeadingWhitespace(formatted[lineStart:off])
}

func (a *analyzer) insertCopy(off text.ByteOffset, info *CopySourceInfo, dest string, g *edit.Group) error {
	if a.rendered[info] {
		return fmt.Errorf("%w: node %d", ErrCopySourceReused, info.First)
	}
	a.rendered[info] = true
	src := a.sourceEdit(info)
	src.SetModifier(&edit.SourceModifier{
		SourceIndent: a.indentAt(a.nodeStart(info.Node)),
		DestIndent:   dest,
		Indent:       a.indent,
		Newline:      a.opts.LineDelimiter,
	})
	target, err := edit.NewTarget(src, off)
	if err != nil {
		return err
	}
	if err := a.addEdit(target); err != nil {
		return err
	}
	g.Add(src)
	g.Add(target)
	return nil
}

// needsNewLineForLineComment reports whether copied text ending in a line
// comment is followed by more rendered text on the same line.
func (a *analyzer) needsNewLineForLineComment(info *CopySourceInfo, formatted string, off int) bool {
	if !a.commentEnds[a.extendedRange(info.Node).End] {
		return false
	}
	return off < len(formatted) && formatted[off] != '\n' && formatted[off] != '\r'
}
