package format

import (
	"bytes"
	"fmt"
	"strings"
)

type docKind uint8

const (
	docEmpty docKind = iota
	docText
	docLine
	docSoftLine
	docConcat
	docIndent
	docGroup
	docMark
)

// Doc is a formatter document node.
type Doc struct {
	kind  docKind
	text  string
	child *Doc
	list  []Doc
	data  any
}

// Empty returns an empty document.
func Empty() Doc { return Doc{kind: docEmpty} }

// Text returns a text document.
func Text(s string) Doc {
	if s == "" {
		return Empty()
	}
	return Doc{kind: docText, text: s}
}

// Line returns a hard line break document.
func Line() Doc { return Doc{kind: docLine} }

// SoftLine returns a breakable line that renders as a space when flattened.
func SoftLine() Doc { return Doc{kind: docSoftLine} }

// Concat concatenates documents in order.
func Concat(parts ...Doc) Doc {
	filtered := make([]Doc, 0, len(parts))
	for _, p := range parts {
		if p.kind == docEmpty {
			continue
		}
		if p.kind == docConcat {
			filtered = append(filtered, p.list...)
			continue
		}
		filtered = append(filtered, p)
	}
	switch len(filtered) {
	case 0:
		return Empty()
	case 1:
		return filtered[0]
	default:
		return Doc{kind: docConcat, list: filtered}
	}
}

// Indent increases indentation for nested line breaks.
func Indent(doc Doc) Doc {
	if doc.kind == docEmpty {
		return doc
	}
	return Doc{kind: docIndent, child: &doc}
}

// Group attempts to render doc on one line and falls back to line breaks when needed.
func Group(doc Doc) Doc {
	if doc.kind == docEmpty {
		return doc
	}
	return Doc{kind: docGroup, child: &doc}
}

// Mark wraps doc so that RenderMarked reports the output range it produced.
// An empty doc still yields a zero-length marker.
func Mark(data any, doc Doc) Doc {
	return Doc{kind: docMark, child: &doc, data: data}
}

// Marker is the output range produced by a Mark doc.
type Marker struct {
	Offset int
	Length int
	Data   any
}

// RenderOptions configure doc rendering.
type RenderOptions struct {
	LineWidth int
	Indent    string
	Newline   string
	// InitialIndent is the indent level applied after every line break. The
	// first line is never indented.
	InitialIndent int
}

type renderMode uint8

const (
	modeBreak renderMode = iota
	modeFlat
)

type renderFrame struct {
	indent int
	mode   renderMode
	doc    Doc
	// closes is the index+1 of an open marker finished when this frame pops.
	closes int
}

// Render renders doc into bytes using width-aware grouping.
func Render(doc Doc, opts RenderOptions) ([]byte, error) {
	out, _, err := RenderMarked(doc, opts)
	return out, err
}

// RenderMarked renders doc and returns the markers of all Mark docs ordered
// by start offset.
func RenderMarked(doc Doc, opts RenderOptions) ([]byte, []Marker, error) {
	norm, err := normalizeRenderOptions(opts)
	if err != nil {
		return nil, nil, err
	}

	var out bytes.Buffer
	var markers []Marker
	column := 0
	stack := []renderFrame{{indent: norm.InitialIndent, mode: modeBreak, doc: doc}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.closes > 0 {
			m := &markers[f.closes-1]
			m.Length = out.Len() - m.Offset
			continue
		}

		switch f.doc.kind {
		case docEmpty:
			continue
		case docMark:
			markers = append(markers, Marker{Offset: out.Len(), Data: f.doc.data})
			stack = append(stack, renderFrame{closes: len(markers)})
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent, mode: f.mode, doc: *f.doc.child})
			}
		case docText:
			out.WriteString(f.doc.text)
			column += len(f.doc.text)
		case docLine:
			writeLineBreak(&out, norm.Newline, norm.Indent, f.indent)
			column = f.indent * len(norm.Indent)
		case docSoftLine:
			if f.mode == modeFlat {
				out.WriteByte(' ')
				column++
				continue
			}
			writeLineBreak(&out, norm.Newline, norm.Indent, f.indent)
			column = f.indent * len(norm.Indent)
		case docConcat:
			pushConcat(&stack, f.indent, f.mode, f.doc.list)
		case docIndent:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent + 1, mode: f.mode, doc: *f.doc.child})
			}
		case docGroup:
			if f.doc.child == nil {
				continue
			}
			child := *f.doc.child
			mode := f.mode
			if mode == modeBreak && fits(norm.LineWidth-column, stack, renderFrame{indent: f.indent, mode: modeFlat, doc: child}) {
				mode = modeFlat
			}
			stack = append(stack, renderFrame{indent: f.indent, mode: mode, doc: child})
		default:
			return nil, nil, fmt.Errorf("unknown doc kind %d", f.doc.kind)
		}
	}

	return out.Bytes(), markers, nil
}

func normalizeRenderOptions(opts RenderOptions) (RenderOptions, error) {
	if opts.LineWidth < 0 {
		return RenderOptions{}, fmt.Errorf("invalid LineWidth %d", opts.LineWidth)
	}
	if opts.InitialIndent < 0 {
		return RenderOptions{}, fmt.Errorf("invalid InitialIndent %d", opts.InitialIndent)
	}
	if opts.LineWidth == 0 {
		opts.LineWidth = DefaultLineWidth
	}
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	if opts.Newline == "" {
		opts.Newline = "\n"
	}
	if opts.Newline != "\n" && opts.Newline != "\r\n" {
		return RenderOptions{}, fmt.Errorf("invalid newline %q", opts.Newline)
	}
	return opts, nil
}

func writeLineBreak(out *bytes.Buffer, newline, indent string, indentLevel int) {
	out.WriteString(newline)
	out.WriteString(strings.Repeat(indent, indentLevel))
}

func pushConcat(stack *[]renderFrame, indent int, mode renderMode, list []Doc) {
	for i := len(list) - 1; i >= 0; i-- {
		*stack = append(*stack, renderFrame{indent: indent, mode: mode, doc: list[i]})
	}
}

func fits(width int, tail []renderFrame, first renderFrame) bool {
	if width < 0 {
		return false
	}
	stack := make([]renderFrame, 0, len(tail)+1)
	stack = append(stack, tail...)
	stack = append(stack, first)

	for len(stack) > 0 {
		if width < 0 {
			return false
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.closes > 0 {
			continue
		}

		switch f.doc.kind {
		case docEmpty:
			continue
		case docMark:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent, mode: f.mode, doc: *f.doc.child})
			}
		case docText:
			width -= len(f.doc.text)
		case docLine:
			return true
		case docSoftLine:
			if f.mode == modeFlat {
				width--
				continue
			}
			return true
		case docConcat:
			pushConcat(&stack, f.indent, f.mode, f.doc.list)
		case docIndent:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent + 1, mode: f.mode, doc: *f.doc.child})
			}
		case docGroup:
			if f.doc.child != nil {
				stack = append(stack, renderFrame{indent: f.indent, mode: modeFlat, doc: *f.doc.child})
			}
		}
	}

	return width >= 0
}
