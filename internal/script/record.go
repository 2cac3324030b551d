package script

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/logging"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/thrift"
)

// Record records every operation of s in sess and returns one edit group per
// operation, in script order. Nothing is rewritten until the session is
// applied.
func (s *Script) Record(ctx context.Context, sess *rewrite.Session) ([]*edit.Group, error) {
	r := &recorder{
		sess: sess,
		tree: sess.Tree(),
		orig: rewrite.NewView(sess.Tree(), nil),
	}
	logger := logging.FromContext(ctx)
	groups := make([]*edit.Group, 0, len(s.Edits))
	for i, o := range s.Edits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g := edit.NewGroup(o.GroupName())
		if err := r.record(o, g); err != nil {
			return nil, fmt.Errorf("edit %d (%s): %w", i+1, g.Name(), err)
		}
		logger.Debug("edit recorded", logging.FieldOp, o.Op, logging.FieldTarget, o.Target)
		groups = append(groups, g)
	}
	return groups, nil
}

type recorder struct {
	sess *rewrite.Session
	tree *syntax.Tree
	orig rewrite.View
}

func (r *recorder) record(o Op, g *edit.Group) error {
	switch o.Op {
	case OpRemove:
		id, err := r.find(o.Target)
		if err != nil {
			return err
		}
		return r.sess.Remove(id, g)
	case OpInsert:
		return r.insert(o, g)
	case OpReplace:
		return r.replace(o, g)
	case OpMove, OpCopy:
		return r.transfer(o, g)
	case OpRename:
		return r.rename(o, g)
	case OpSet:
		return r.set(o, g)
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
}

func (r *recorder) find(selector string) (syntax.NodeID, error) {
	return thrift.FindSelector(r.orig, selector)
}

// owner resolves the list that insert, move and copy place nodes into.
func (r *recorder) owner(o Op) (syntax.NodeID, string, error) {
	id := r.tree.Root
	if o.Into != "" {
		var err error
		if id, err = r.find(o.Into); err != nil {
			return syntax.NoNode, "", err
		}
	}
	kind := r.orig.Kind(id)
	if o.Property != "" {
		prop, ok := lookupProperty(kind, o.Property, syntax.PropertyList)
		if !ok {
			return syntax.NoNode, "", fmt.Errorf("%s has no list property %q", thrift.Schema.KindName(kind), o.Property)
		}
		return id, prop, nil
	}
	if kind == thrift.KindFunction {
		return id, thrift.PropParams, nil
	}
	prop := thrift.MembersProperty(kind)
	if prop == "" {
		return syntax.NoNode, "", fmt.Errorf("%s %q has no members", thrift.Schema.KindName(kind), o.Into)
	}
	return id, prop, nil
}

func (r *recorder) insert(o Op, g *edit.Group) error {
	owner, prop, err := r.owner(o)
	if err != nil {
		return err
	}
	kind, err := elementKind(prop, o.Code)
	if err != nil {
		return err
	}
	node, err := thrift.Fragment(r.sess, kind, o.Code)
	if err != nil {
		return err
	}
	if err := r.place(o, owner, prop, node, g); err != nil {
		return err
	}
	return r.fixSeparators(owner, prop, node, g)
}

func (r *recorder) transfer(o Op, g *edit.Group) error {
	src, err := r.find(o.Target)
	if err != nil {
		return err
	}
	owner, prop, err := r.owner(o)
	if err != nil {
		return err
	}
	var node syntax.NodeID
	switch {
	case o.Through != "":
		last, err := r.find(o.Through)
		if err != nil {
			return err
		}
		node, err = r.sess.CreateRangeCopyTarget(src, last, o.Op == OpMove)
		if err != nil {
			return err
		}
	case o.Op == OpMove:
		node, err = r.sess.CreateMoveTarget(src)
	default:
		node, err = r.sess.CreateCopyTarget(src)
	}
	if err != nil {
		return err
	}
	return r.place(o, owner, prop, node, g)
}

func (r *recorder) place(o Op, owner syntax.NodeID, prop string, node syntax.NodeID, g *edit.Group) error {
	pos, err := parsePosition(o.Position)
	if err != nil {
		return err
	}
	list := r.sess.List(owner, prop)
	switch pos.kind {
	case posFirst:
		return list.InsertFirst(node, g)
	case posIndex:
		return list.InsertAt(node, pos.index, g)
	case posBefore, posAfter:
		path := []string{pos.ref}
		if o.Into != "" {
			path = append(strings.Split(o.Into, "."), pos.ref)
		}
		ref, err := thrift.Find(r.orig, path...)
		if err != nil {
			return err
		}
		if pos.kind == posBefore {
			return list.InsertBefore(node, ref, g)
		}
		return list.InsertAfter(node, ref, g)
	default:
		return list.InsertLast(node, g)
	}
}

func (r *recorder) replace(o Op, g *edit.Group) error {
	target, err := r.find(o.Target)
	if err != nil {
		return err
	}
	kind := r.orig.Kind(target)
	if thrift.IsDefinition(kind) {
		if k, ok := thrift.DefinitionKind(o.Code); ok {
			kind = k
		}
	}
	node, err := thrift.Fragment(r.sess, kind, o.Code)
	if err != nil {
		return err
	}
	if hasSeparator(kind) {
		b := r.sess.Builder()
		switch {
		case r.orig.Kind(r.tree.NodeByID(target).Parent) == thrift.KindFunction:
			b.SetScalar(node, thrift.PropSeparator, "")
		case r.tree.Scalar(node, thrift.PropSeparator) == "":
			b.SetScalar(node, thrift.PropSeparator, r.orig.Scalar(target, thrift.PropSeparator))
		}
	}
	return r.sess.Replace(target, node, g)
}

func (r *recorder) rename(o Op, g *edit.Group) error {
	target, err := r.find(o.Target)
	if err != nil {
		return err
	}
	kind := r.orig.Kind(target)
	if _, ok := lookupProperty(kind, thrift.PropName, syntax.PropertyScalar); !ok {
		return fmt.Errorf("cannot rename a %s", thrift.Schema.KindName(kind))
	}
	return r.sess.SetScalar(target, thrift.PropName, o.Name, g)
}

func (r *recorder) set(o Op, g *edit.Group) error {
	target, err := r.find(o.Target)
	if err != nil {
		return err
	}
	kind := r.orig.Kind(target)
	for _, pk := range []syntax.PropertyKind{syntax.PropertyScalar, syntax.PropertyChild} {
		prop, ok := lookupProperty(kind, o.Property, pk)
		if !ok {
			continue
		}
		if pk == syntax.PropertyScalar {
			return r.sess.SetScalar(target, prop, o.Value, g)
		}
		if o.Value == "" {
			return r.sess.Set(target, prop, syntax.NoNode, g)
		}
		node, err := thrift.Fragment(r.sess, r.valueKind(target, prop), o.Value)
		if err != nil {
			return err
		}
		return r.sess.Set(target, prop, node, g)
	}
	return fmt.Errorf("%s has no property %q to set", thrift.Schema.KindName(kind), o.Property)
}

// valueKind picks the fragment kind of a child property: the kind of the
// current value, or the family the property holds.
func (r *recorder) valueKind(target syntax.NodeID, prop string) syntax.Kind {
	if cur := r.orig.Child(target, prop); cur != syntax.NoNode {
		return r.orig.Kind(cur)
	}
	switch prop {
	case thrift.PropID:
		return thrift.KindIntLiteral
	case thrift.PropType, thrift.PropReturnType, thrift.PropKey, thrift.PropElem, thrift.PropExtends:
		return thrift.KindTypeRef
	default:
		return thrift.KindIdentifier
	}
}

// fixSeparators makes an inserted member follow the separator style of its
// siblings. Parameters and exceptions never carry one; the list owns their
// commas. When the last original member has none, the new last member takes
// its place and the old one gains the separator.
func (r *recorder) fixSeparators(owner syntax.NodeID, prop string, node syntax.NodeID, g *edit.Group) error {
	kind := r.orig.Kind(node)
	if !hasSeparator(kind) {
		return nil
	}
	b := r.sess.Builder()
	if prop == thrift.PropParams || prop == thrift.PropThrows {
		b.SetScalar(node, thrift.PropSeparator, "")
		return nil
	}
	orig := r.tree.List(owner, prop)
	sep := commonSeparator(r.tree, orig)
	if sep == "" {
		return nil
	}
	lastBare := len(orig) > 1 && r.tree.Scalar(orig[len(orig)-1], thrift.PropSeparator) == ""
	list := r.sess.List(owner, prop).NewList()
	i := slices.Index(list, node)
	atEnd := i == len(list)-1
	if r.tree.Scalar(node, thrift.PropSeparator) == "" && !(lastBare && atEnd) {
		b.SetScalar(node, thrift.PropSeparator, sep)
	}
	if lastBare && atEnd && i > 0 {
		prev := list[i-1]
		if r.tree.IsOriginal(prev) && hasSeparator(r.orig.Kind(prev)) && r.tree.Scalar(prev, thrift.PropSeparator) == "" {
			return r.sess.SetScalar(prev, thrift.PropSeparator, sep, g)
		}
	}
	return nil
}

// commonSeparator returns the most frequent separator among members.
func commonSeparator(tree *syntax.Tree, members []syntax.NodeID) string {
	counts := map[string]int{}
	best := ""
	for _, m := range members {
		sep := tree.Scalar(m, thrift.PropSeparator)
		if sep == "" {
			continue
		}
		counts[sep]++
		if counts[sep] > counts[best] {
			best = sep
		}
	}
	return best
}

func hasSeparator(kind syntax.Kind) bool {
	_, ok := lookupProperty(kind, thrift.PropSeparator, syntax.PropertyScalar)
	return ok
}

// lookupProperty matches name against the properties of kind that have
// property kind pk, ignoring case, underscores and dashes.
func lookupProperty(kind syntax.Kind, name string, pk syntax.PropertyKind) (string, bool) {
	name = strings.NewReplacer("_", "", "-", "").Replace(name)
	for _, p := range thrift.Schema.Properties(kind) {
		if p.Kind == pk && strings.EqualFold(p.Name, name) {
			return p.Name, true
		}
	}
	return "", false
}

// elementKind returns the fragment kind of code placed in a list property.
func elementKind(prop, code string) (syntax.Kind, error) {
	switch prop {
	case thrift.PropMembers:
		kind, ok := thrift.DefinitionKind(code)
		if !ok {
			return 0, fmt.Errorf("%q does not start a definition", code)
		}
		return kind, nil
	case thrift.PropValues:
		return thrift.KindEnumValue, nil
	case thrift.PropFields, thrift.PropParams, thrift.PropThrows:
		return thrift.KindField, nil
	case thrift.PropFunctions:
		return thrift.KindFunction, nil
	case thrift.PropAnnotations:
		return thrift.KindAnnotation, nil
	case thrift.PropItems:
		return thrift.KindIdentifier, nil
	default:
		return 0, fmt.Errorf("cannot insert into %s", prop)
	}
}
