// Package syntax defines the schema-described syntax tree consumed by the
// rewrite engine: an arena of nodes whose structural properties are declared
// per kind in a Schema.
package syntax

import (
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// NodeID identifies a node in Tree.Nodes.
type NodeID uint32

const (
	// NoNode is the sentinel value for the absence of a node.
	NoNode NodeID = 0
)

// NodeFlags carry parser recovery and provenance metadata.
type NodeFlags uint8

const (
	// NodeFlagError marks a node produced during parser recovery.
	NodeFlagError NodeFlags = 1 << iota
	// NodeFlagSynthesized marks a node created after parsing. It has no span.
	NodeFlagSynthesized
)

// Has reports whether all bits in mask are set.
func (f NodeFlags) Has(mask NodeFlags) bool {
	return f&mask == mask
}

// Value holds the content of one structural property. Exactly one field is
// meaningful, selected by the property kind.
type Value struct {
	Node   NodeID
	List   []NodeID
	Scalar string
}

// Node is an arena node. Values is indexed like the kind's schema properties.
type Node struct {
	ID     NodeID
	Kind   Kind
	Span   text.Span
	Parent NodeID
	Values []Value
	Flags  NodeFlags
}

// IsOriginal reports whether the node was parsed from the source buffer.
func (n *Node) IsOriginal() bool {
	return n != nil && !n.Flags.Has(NodeFlagSynthesized)
}

// Severity is a diagnostic severity level.
type Severity uint8

const (
	// SeverityError indicates an error diagnostic.
	SeverityError Severity = iota + 1
	// SeverityWarning indicates a warning diagnostic.
	SeverityWarning
	// SeverityInfo indicates an informational diagnostic.
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// DiagnosticCode identifies a syntax-layer diagnostic kind.
type DiagnosticCode string

const (
	// DiagnosticUnexpectedToken reports a token the parser could not place.
	DiagnosticUnexpectedToken DiagnosticCode = "PARSE_UNEXPECTED_TOKEN"
	// DiagnosticMissingToken reports a required token that was absent.
	DiagnosticMissingToken DiagnosticCode = "PARSE_MISSING_TOKEN"
	// DiagnosticLexer wraps a lexer diagnostic.
	DiagnosticLexer DiagnosticCode = "PARSE_LEXER"
)

// RelatedDiagnostic adds context to a diagnostic.
type RelatedDiagnostic struct {
	Message string
	Span    text.Span
}

// Diagnostic is a unified syntax diagnostic.
type Diagnostic struct {
	Code        DiagnosticCode
	Message     string
	Severity    Severity
	Span        text.Span
	Related     []RelatedDiagnostic
	Source      string // lexer | parser
	Recoverable bool
}

// Tree is a parsed source buffer plus any nodes synthesized for a rewrite.
// Parsed nodes are never mutated after parsing.
type Tree struct {
	URI         string
	Source      []byte
	Tokens      []lexer.Token
	Nodes       []Node // index 0 is unused sentinel; real NodeIDs are 1-based
	Root        NodeID
	Diagnostics []Diagnostic
	LineIndex   *text.LineIndex
	Schema      *Schema
}

// NewTree creates an empty tree over src.
func NewTree(schema *Schema, src []byte, tokens []lexer.Token) *Tree {
	return &Tree{
		Source:    src,
		Tokens:    tokens,
		Nodes:     make([]Node, 1),
		LineIndex: text.NewLineIndex(src),
		Schema:    schema,
	}
}

// NodeByID returns the node for id or nil if not present.
func (t *Tree) NodeByID(id NodeID) *Node {
	if t == nil || id == NoNode {
		return nil
	}
	idx := int(id)
	if idx < 0 || idx >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[idx]
}

// RootNode returns the root node or nil.
func (t *Tree) RootNode() *Node {
	return t.NodeByID(t.Root)
}

// KindName returns the schema name of the node's kind.
func (t *Tree) KindName(id NodeID) string {
	n := t.NodeByID(id)
	if n == nil {
		return ""
	}
	return t.Schema.KindName(n.Kind)
}

// IsOriginal reports whether id names a parsed node.
func (t *Tree) IsOriginal(id NodeID) bool {
	return t.NodeByID(id).IsOriginal()
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (t *Tree) HasErrors() bool {
	if t == nil {
		return false
	}
	for _, d := range t.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (t *Tree) String() string {
	if t == nil {
		return "Tree(nil)"
	}
	return fmt.Sprintf("Tree{uri=%q nodes=%d root=%d}", t.URI, len(t.Nodes)-1, t.Root)
}
