package rewrite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/format"
	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// A switch body is a label list: "case N:" labels own the statements on the
// following lines, "case N ->" labels one statement on their own line.
var (
	switchSchema = syntax.NewSchema("switch")
	kindSwitch   = switchSchema.Define("Switch", syntax.List("body"))
	kindLabel    = switchSchema.Define("Label", syntax.Scalar("text"))
	kindStmt     = switchSchema.Define("Stmt", syntax.Scalar("text"))
)

func switchLayouts() *rewrite.Layouts {
	l := rewrite.NewLayouts(switchSchema)
	l.Define(kindSwitch, rewrite.Layout{Slots: []rewrite.Slot{{
		Property: "body",
		Policy:   rewrite.SlotLabels,
		Open:     lexer.TokenLBrace,
		Close:    lexer.TokenRBrace,
		Label:    switchLabel,
	}}})
	leaf := rewrite.Layout{
		Slots: []rewrite.Slot{{Property: "text", Policy: rewrite.SlotLeaf}},
		Render: func(c *rewrite.RenderContext, id syntax.NodeID) format.Doc {
			return c.Text(id, "text")
		},
	}
	l.Define(kindLabel, leaf)
	l.Define(kindStmt, leaf)
	return l
}

func switchLabel(v rewrite.View, id syntax.NodeID) rewrite.LabelForm {
	switch {
	case v.Kind(id) != kindLabel:
		return rewrite.NotLabel
	case strings.HasSuffix(v.Scalar(id, "text"), "->"):
		return rewrite.ArrowLabel
	default:
		return rewrite.ColonLabel
	}
}

// parseSwitch reads "switch { ... }" where a label runs from "case" to ":" or
// "->" and a statement ends with ";".
func parseSwitch(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	res := lexer.Lex([]byte(src))
	require.Empty(t, res.Diagnostics)
	tree := syntax.NewTree(switchSchema, []byte(src), res.Tokens)
	b := syntax.NewBuilder(tree)
	toks := res.Tokens
	closing := len(toks) - 2
	require.Equal(t, lexer.TokenRBrace, toks[closing].Kind)
	tree.Root = b.Original(kindSwitch, text.Span{Start: toks[0].Span.Start, End: toks[closing].Span.End})

	var body []syntax.NodeID
	for i := 2; i < closing; {
		kind, end := kindStmt, i
		if string(toks[i].Bytes(tree.Source)) == "case" {
			kind = kindLabel
			for toks[end].Kind != lexer.TokenColon && toks[end].Kind != lexer.TokenRAngle {
				end++
			}
		} else {
			for toks[end].Kind != lexer.TokenSemi {
				end++
			}
		}
		sp := text.Span{Start: toks[i].Span.Start, End: toks[end].Span.End}
		id := b.Original(kind, sp)
		b.SetScalar(id, "text", string(tree.Source[sp.Start:sp.End]))
		body = append(body, id)
		i = end + 1
	}
	b.SetList(tree.Root, "body", body...)
	return tree
}

func switchSession(t *testing.T, src string, configure func(*rewrite.Options)) *rewrite.Session {
	t.Helper()
	opts := rewrite.DefaultOptions()
	opts.IndentSwitchStatementsCompareToSwitch = true
	if configure != nil {
		configure(&opts)
	}
	return rewrite.NewSession(parseSwitch(t, src), switchLayouts(), rewrite.WithOptions(opts))
}

func newLeaf(s *rewrite.Session, kind syntax.Kind, code string) syntax.NodeID {
	id := s.Builder().New(kind)
	s.Builder().SetScalar(id, "text", code)
	return id
}

func body(s *rewrite.Session) []syntax.NodeID {
	return s.Tree().List(s.Tree().Root, "body")
}

func applySwitch(t *testing.T, s *rewrite.Session) string {
	t.Helper()
	out, err := s.Apply(context.Background())
	require.NoError(t, err)
	return string(out)
}

func TestLabelListIndentsStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		compareToCase bool
		want          string
	}{
		{name: "statements under labels", compareToCase: true, want: "switch {\n  case 1:\n    a;\n  case 2:\n    b;\n}\n"},
		{name: "statements beside labels", compareToCase: false, want: "switch {\n  case 1:\n    a;\n  case 2:\n  b;\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := switchSession(t, "switch {\n  case 1:\n    a;\n}\n", func(o *rewrite.Options) {
				o.IndentSwitchStatementsCompareToCases = tt.compareToCase
			})
			list := s.List(s.Tree().Root, "body")
			require.NoError(t, list.InsertLast(newLeaf(s, kindLabel, "case 2:"), nil))
			require.NoError(t, list.InsertLast(newLeaf(s, kindStmt, "b;"), nil))
			assert.Equal(t, tt.want, applySwitch(t, s))
		})
	}
}

func TestLabelListArrowStatementFollowsLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		space bool
		want  string
	}{
		{name: "space after arrow", space: true, want: "switch {\n  case 1 -> a;\n  case 2 -> b;\n}\n"},
		{name: "no space after arrow", space: false, want: "switch {\n  case 1 -> a;\n  case 2 ->b;\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := switchSession(t, "switch {\n  case 1 -> a;\n}\n", func(o *rewrite.Options) {
				o.InsertSpaceAfterArrowInSwitch = tt.space
			})
			list := s.List(s.Tree().Root, "body")
			require.NoError(t, list.InsertLast(newLeaf(s, kindLabel, "case 2 ->"), nil))
			require.NoError(t, list.InsertLast(newLeaf(s, kindStmt, "b;"), nil))
			assert.Equal(t, tt.want, applySwitch(t, s))
		})
	}
}

func TestLabelListArrowBlockKeepsLabelIndent(t *testing.T) {
	t.Parallel()

	s := switchSession(t, "switch {\n  case 1 -> a;\n}\n", nil)
	list := s.List(s.Tree().Root, "body")
	require.NoError(t, list.InsertLast(newLeaf(s, kindLabel, "case 2 ->"), nil))
	require.NoError(t, list.InsertLast(s.CreateStringPlaceholder("{\n  x;\n}", kindStmt), nil))
	assert.Equal(t, "switch {\n  case 1 -> a;\n  case 2 -> {\n    x;\n  }\n}\n", applySwitch(t, s))
}

func TestLabelListReindentsStatementsOfRemovedLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "colon label",
			src:  "switch {\n  case 1:\n    a;\n  case 2:\n    b;\n}\n",
			want: "switch {\n  case 1:\n    a;\n    b;\n}\n",
		},
		{
			name: "arrow label",
			src:  "switch {\n  case 1:\n  case 2 -> a;\n}\n",
			want: "switch {\n  case 1:\n    a;\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := switchSession(t, tt.src, nil)
			labels := body(s)
			require.NoError(t, s.List(s.Tree().Root, "body").Remove(labels[len(labels)-2], nil))
			assert.Equal(t, tt.want, applySwitch(t, s))
		})
	}
}
