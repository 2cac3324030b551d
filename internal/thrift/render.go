package thrift

import (
	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// Render templates produce the canonical spacing of the formatter: one space
// between words, ", " inside lists, " = " around defaults and one member per
// line inside braces.

func renderDocument(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	members := c.List(id, PropMembers)
	parts := make([]format.Doc, 0, 3*len(members))
	for i, m := range members {
		if i > 0 {
			parts = append(parts, format.Line())
			if !sameDirectiveGroup(c.Kind(members[i-1]), c.Kind(m)) {
				parts = append(parts, format.Line())
			}
		}
		parts = append(parts, c.Node(m))
	}
	return format.Concat(parts...)
}

func renderInclude(keyword string) func(*rewrite.RenderContext, syntax.NodeID) format.Doc {
	return func(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
		return format.Concat(format.Text(keyword), c.Text(id, PropPath))
	}
}

func renderNamespace(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("namespace "),
		c.Child(id, PropScope),
		format.Text(" "),
		c.Child(id, PropName),
		annotations(c, id),
	)
}

func renderTypedef(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("typedef "),
		c.Child(id, PropType),
		format.Text(" "),
		c.Text(id, PropName),
		annotations(c, id),
		c.Text(id, PropSeparator),
	)
}

func renderConst(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("const "),
		c.Child(id, PropType),
		format.Text(" "),
		c.Text(id, PropName),
		format.Text(" = "),
		c.Child(id, PropValue),
		c.Text(id, PropSeparator),
	)
}

func renderEnum(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("enum "),
		c.Text(id, PropName),
		format.Text(" "),
		rewrite.Block("{", c.Items(id, PropValues), "}"),
		annotations(c, id),
	)
}

func renderEnumValue(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		c.Text(id, PropName),
		prefixed(c, id, PropValue, " = "),
		annotations(c, id),
		c.Text(id, PropSeparator),
	)
}

func renderStructLike(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	keyword := "struct "
	switch c.Kind(id) {
	case KindUnion:
		keyword = "union "
	case KindException:
		keyword = "exception "
	}
	return format.Concat(
		format.Text(keyword),
		c.Text(id, PropName),
		format.Text(" "),
		rewrite.Block("{", c.Items(id, PropFields), "}"),
		annotations(c, id),
	)
}

func renderService(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("service "),
		c.Text(id, PropName),
		prefixed(c, id, PropExtends, " extends "),
		format.Text(" "),
		rewrite.Block("{", c.Items(id, PropFunctions), "}"),
		annotations(c, id),
	)
}

func renderFunction(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	var oneway format.Doc
	if c.Has(id, PropOneway) {
		oneway = format.Concat(c.Text(id, PropOneway), format.Text(" "))
	}
	var throws format.Doc
	if c.Has(id, PropThrows) {
		throws = format.Concat(format.Text(" throws "), parenList(c.Items(id, PropThrows)))
	}
	return format.Concat(
		oneway,
		c.Child(id, PropReturnType),
		format.Text(" "),
		c.Text(id, PropName),
		parenList(c.Items(id, PropParams)),
		throws,
		annotations(c, id),
		c.Text(id, PropSeparator),
	)
}

func renderField(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	var fid, req format.Doc
	if c.Has(id, PropID) {
		fid = format.Concat(c.Child(id, PropID), format.Text(": "))
	}
	if c.Has(id, PropRequiredness) {
		req = format.Concat(c.Text(id, PropRequiredness), format.Text(" "))
	}
	return format.Concat(
		fid,
		req,
		c.Child(id, PropType),
		format.Text(" "),
		c.Text(id, PropName),
		prefixed(c, id, PropDefault, " = "),
		annotations(c, id),
		c.Text(id, PropSeparator),
	)
}

func renderMapType(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("map<"),
		c.Child(id, PropKey),
		format.Text(", "),
		c.Child(id, PropValue),
		format.Text(">"),
	)
}

func renderContainer(keyword string) func(*rewrite.RenderContext, syntax.NodeID) format.Doc {
	return func(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
		return format.Concat(format.Text(keyword+"<"), c.Child(id, PropElem), format.Text(">"))
	}
}

func renderScalar(prop string) func(*rewrite.RenderContext, syntax.NodeID) format.Doc {
	return func(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
		return c.Text(id, prop)
	}
}

func renderConstList(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("["),
		rewrite.Join(format.Text(", "), c.Items(id, PropItems)),
		format.Text("]"),
	)
}

func renderConstMap(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(
		format.Text("{"),
		rewrite.Join(format.Text(", "), c.Items(id, PropEntries)),
		format.Text("}"),
	)
}

func renderMapEntry(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(c.Child(id, PropKey), format.Text(": "), c.Child(id, PropValue))
}

func renderAnnotation(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	return format.Concat(c.Child(id, PropKey), prefixed(c, id, PropValue, " = "))
}

func annotations(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
	items := c.Items(id, PropAnnotations)
	if len(items) == 0 {
		return format.Empty()
	}
	return format.Concat(format.Text(" "), parenList(items))
}

func parenList(items []format.Doc) format.Doc {
	return format.Concat(format.Text("("), rewrite.Join(format.Text(", "), items), format.Text(")"))
}

func prefixed(c *rewrite.RenderContext, id syntax.NodeID, prop, prefix string) format.Doc {
	if !c.Has(id, prop) {
		return format.Empty()
	}
	return format.Concat(format.Text(prefix), c.Child(id, prop))
}
