package rewrite

import (
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// Marker payloads left in rendered text for the analyzer.
type (
	codeMark  struct{ code string }
	copyMark  struct{ info *CopySourceInfo }
	trackMark struct{ group *edit.Group }
)

// RenderContext builds the Doc of a synthesized node. Layout render functions
// receive it and read the node's properties through the embedded View.
type RenderContext struct {
	View
	layouts *Layouts
	infos   *Annotations
	err     error
}

func newRenderContext(v View, layouts *Layouts, infos *Annotations) *RenderContext {
	return &RenderContext{View: v, layouts: layouts, infos: infos}
}

// Err returns the first error recorded while rendering.
func (c *RenderContext) Err() error { return c.err }

// Fail records err. Only the first error is kept.
func (c *RenderContext) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Node renders id. Placeholders render as markers resolved by the analyzer.
func (c *RenderContext) Node(id syntax.NodeID) format.Doc {
	if id == syntax.NoNode {
		return format.Empty()
	}
	doc := c.node(id)
	if g := c.infos.Tracked(id); g != nil {
		doc = format.Mark(trackMark{group: g}, doc)
	}
	return doc
}

func (c *RenderContext) node(id syntax.NodeID) format.Doc {
	info := c.infos.Info(id)
	switch {
	case info != nil && info.Copy != nil:
		return format.Mark(copyMark{info: info.Copy}, format.Empty())
	case info.IsCollapsed():
		docs := make([]format.Doc, 0, len(info.Members))
		for _, m := range info.Members {
			docs = append(docs, c.Node(m))
		}
		return Join(format.Line(), docs)
	case info.IsStringPlaceholder():
		return format.Mark(codeMark{code: info.Code}, format.Empty())
	}

	n := c.tree.NodeByID(id)
	if n == nil {
		c.Fail(contractf("render", id, "unknown node"))
		return format.Empty()
	}
	if n.IsOriginal() {
		c.Fail(contractf("render", id, "original %s placed in new content; use a copy or move placeholder", c.KindName(id)))
		return format.Empty()
	}
	layout := c.layouts.For(n.Kind)
	if layout == nil || layout.Render == nil {
		c.Fail(fmt.Errorf("%w: no renderer for %s", ErrSchemaViolation, c.KindName(id)))
		return format.Empty()
	}
	return layout.Render(c, id)
}

// Child renders the child stored in prop.
func (c *RenderContext) Child(id syntax.NodeID, prop string) format.Doc {
	return c.Node(c.View.Child(id, prop))
}

// Items renders each element of the list stored in prop.
func (c *RenderContext) Items(id syntax.NodeID, prop string) []format.Doc {
	list := c.View.List(id, prop)
	out := make([]format.Doc, 0, len(list))
	for _, m := range list {
		out = append(out, c.Node(m))
	}
	return out
}

// Text renders the scalar stored in prop.
func (c *RenderContext) Text(id syntax.NodeID, prop string) format.Doc {
	return format.Text(c.View.Scalar(id, prop))
}

// Has reports whether prop of id holds a child, a non-empty list or a
// non-empty scalar.
func (c *RenderContext) Has(id syntax.NodeID, prop string) bool {
	n := c.tree.NodeByID(id)
	if n == nil {
		return false
	}
	i, ok := c.tree.Schema.PropertyIndex(n.Kind, prop)
	if !ok {
		return false
	}
	switch c.tree.Schema.Properties(n.Kind)[i].Kind {
	case syntax.PropertyChild:
		return c.View.Child(id, prop) != syntax.NoNode
	case syntax.PropertyList:
		return len(c.View.List(id, prop)) > 0
	default:
		return c.View.Scalar(id, prop) != ""
	}
}

// Join concatenates docs with sep between neighbours.
func Join(sep format.Doc, docs []format.Doc) format.Doc {
	parts := make([]format.Doc, 0, 2*len(docs))
	for i, d := range docs {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, d)
	}
	return format.Concat(parts...)
}

// Block renders members one per line inside open and close, indented one
// level. An empty block renders as open immediately followed by close.
func Block(open string, members []format.Doc, close string) format.Doc {
	if len(members) == 0 {
		return format.Text(open + close)
	}
	return format.Concat(
		format.Text(open),
		format.Indent(format.Concat(format.Line(), Join(format.Line(), members))),
		format.Line(),
		format.Text(close),
	)
}

type renderer struct {
	ctx  *RenderContext
	opts Options
}

// render returns the text of id at indent level indent. The first line is
// not indented. Markers are ordered by offset.
func (r *renderer) render(id syntax.NodeID, indent int) (string, []format.Marker, error) {
	doc := r.ctx.Node(id)
	if err := r.ctx.Err(); err != nil {
		r.ctx.err = nil
		return "", nil, err
	}
	out, markers, err := format.RenderMarked(doc, format.RenderOptions{
		LineWidth:     r.opts.LineWidth,
		Indent:        r.opts.indent().Unit(),
		Newline:       r.opts.LineDelimiter,
		InitialIndent: indent,
	})
	if err != nil {
		return "", nil, err
	}
	return string(out), markers, nil
}
