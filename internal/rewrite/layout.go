package rewrite

import (
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// SlotPolicy selects how the analyzer rewrites one property of a node.
type SlotPolicy uint8

const (
	// SlotRequired is a child that is always present. It may only be replaced.
	SlotRequired SlotPolicy = iota + 1
	// SlotOptional is a child introduced by Prefix when inserted.
	SlotOptional
	// SlotLeading is an optional child that opens its parent and is closed by
	// the Terminator token, such as a field id followed by a colon.
	SlotLeading
	// SlotModifier is a scalar keyword drawn from Keywords that may be
	// inserted, removed or replaced.
	SlotModifier
	// SlotToken is a scalar held by the next token. It may only be replaced.
	SlotToken
	// SlotLeaf is the scalar text of the node itself.
	SlotLeaf
	// SlotTrailing is an optional scalar separator token such as "," or ";".
	SlotTrailing
	// SlotList is a list between the Open and Close tokens, elements joined by
	// Separator.
	SlotList
	// SlotOptionalList is a list whose brackets exist only while it has
	// elements. Keyword and EndKeyword wrap a list created from nothing.
	SlotOptionalList
	// SlotParagraph is a list of line-separated members.
	SlotParagraph
	// SlotLabels is a paragraph list of labels and the statements under them.
	SlotLabels
	// SlotFixed rejects every change.
	SlotFixed
)

// LabelForm classifies an element of a SlotLabels list.
type LabelForm uint8

const (
	NotLabel LabelForm = iota
	// ColonLabel is followed by statements on the next lines.
	ColonLabel
	// ArrowLabel is followed by one statement on the same line.
	ArrowLabel
)

// Slot describes one property of a node kind.
type Slot struct {
	Property string
	Policy   SlotPolicy

	// Prefix precedes an inserted SlotOptional child.
	Prefix string
	// Suffix follows an inserted SlotLeading child.
	Suffix string
	// Terminator closes a SlotLeading child.
	Terminator lexer.TokenKind
	// Keywords is the vocabulary of a SlotModifier.
	Keywords []string
	// Tokens restricts the token kinds accepted by SlotToken and SlotTrailing.
	Tokens []lexer.TokenKind

	Open  lexer.TokenKind
	Close lexer.TokenKind
	// Separator joins the elements of SlotList and SlotOptionalList.
	Separator string
	// Keyword and EndKeyword surround a SlotOptionalList created from nothing.
	Keyword    string
	EndKeyword string

	// SeparatorLines is the number of blank lines between paragraph members;
	// -1 infers it from the existing members.
	SeparatorLines int
	// Lead is the number of line breaks before the first member of a paragraph
	// created from nothing.
	Lead int
	// Indent is added to the owner's indentation for paragraph members.
	Indent int
	// Tight reports whether a member of kind next follows prev without blank
	// lines by default.
	Tight func(prev, next syntax.Kind) bool
	// Label classifies SlotLabels elements.
	Label func(v View, id syntax.NodeID) LabelForm
}

// Layout tells the analyzer where the properties of a node kind live in the
// source and how new nodes of the kind are rendered.
type Layout struct {
	// Keyword is the token skipped before the first slot.
	Keyword lexer.TokenKind
	// Slots lists the properties in schema order.
	Slots []Slot
	// Render builds the text of a synthesized node.
	Render func(c *RenderContext, id syntax.NodeID) format.Doc
	// InsertBoundToPrevious makes inserted list elements of this kind attach
	// to the separator after the previous element instead of before the next.
	InsertBoundToPrevious bool
	// Immutable rejects every change to the node's properties.
	Immutable bool
}

// Layouts maps the kinds of a schema to their layouts.
type Layouts struct {
	schema *syntax.Schema
	byKind map[syntax.Kind]*Layout
}

// NewLayouts returns an empty table for schema.
func NewLayouts(schema *syntax.Schema) *Layouts {
	return &Layouts{schema: schema, byKind: map[syntax.Kind]*Layout{}}
}

// Schema returns the schema the layouts describe.
func (l *Layouts) Schema() *syntax.Schema { return l.schema }

// Define registers the layout of kind. It panics when the slots do not name
// the kind's properties in schema order or a slot policy does not fit the
// property kind.
func (l *Layouts) Define(kind syntax.Kind, layout Layout) {
	props := l.schema.Properties(kind)
	if l.schema.Info(kind) == nil {
		panic(fmt.Sprintf("rewrite: unknown kind %d", kind))
	}
	if len(layout.Slots) != len(props) {
		panic(fmt.Sprintf("rewrite: %s has %d properties, layout has %d slots", l.schema.KindName(kind), len(props), len(layout.Slots)))
	}
	for i, s := range layout.Slots {
		p := props[i]
		if s.Property != p.Name {
			panic(fmt.Sprintf("rewrite: %s slot %d is %q, want %q", l.schema.KindName(kind), i, s.Property, p.Name))
		}
		if want := s.Policy.propertyKind(); want != p.Kind {
			panic(fmt.Sprintf("rewrite: %s.%s is a %s property, slot policy needs %s", l.schema.KindName(kind), p.Name, p.Kind, want))
		}
	}
	cp := layout
	l.byKind[kind] = &cp
}

// For returns the layout of kind, or nil.
func (l *Layouts) For(kind syntax.Kind) *Layout {
	if l == nil {
		return nil
	}
	return l.byKind[kind]
}

func (p SlotPolicy) propertyKind() syntax.PropertyKind {
	switch p {
	case SlotRequired, SlotOptional, SlotLeading:
		return syntax.PropertyChild
	case SlotModifier, SlotToken, SlotLeaf, SlotTrailing:
		return syntax.PropertyScalar
	case SlotList, SlotOptionalList, SlotParagraph, SlotLabels:
		return syntax.PropertyList
	default:
		return 0
	}
}

// View reads property values as they will be after the rewrite.
type View struct {
	tree  *syntax.Tree
	store *Store
}

// NewView returns a view of tree with the events of store applied.
func NewView(tree *syntax.Tree, store *Store) View {
	return View{tree: tree, store: store}
}

// Tree returns the underlying tree.
func (v View) Tree() *syntax.Tree { return v.tree }

// Kind returns the kind of id.
func (v View) Kind(id syntax.NodeID) syntax.Kind {
	if n := v.tree.NodeByID(id); n != nil {
		return n.Kind
	}
	return syntax.InvalidKind
}

// KindName returns the schema name of the kind of id.
func (v View) KindName(id syntax.NodeID) string { return v.tree.KindName(id) }

// Child returns the new value of a child property.
func (v View) Child(id syntax.NodeID, prop string) syntax.NodeID {
	if v.store == nil {
		return v.tree.Child(id, prop)
	}
	return v.store.Child(id, prop)
}

// List returns the new value of a list property.
func (v View) List(id syntax.NodeID, prop string) []syntax.NodeID {
	if v.store == nil {
		return v.tree.List(id, prop)
	}
	return v.store.List(id, prop)
}

// Scalar returns the new value of a scalar property.
func (v View) Scalar(id syntax.NodeID, prop string) string {
	if v.store == nil {
		return v.tree.Scalar(id, prop)
	}
	return v.store.Scalar(id, prop)
}
