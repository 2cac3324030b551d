package thrift

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	URI string
}

// Parse tokenizes and parses src into a syntax tree. Lexer and parser
// problems are reported as tree diagnostics; the returned error is only set
// when ctx is done.
func Parse(ctx context.Context, src []byte, opts ParseOptions) (*syntax.Tree, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sourceCopy := slices.Clone(src)
	lexRes := lexer.Lex(sourceCopy)
	tree := syntax.NewTree(Schema, sourceCopy, lexRes.Tokens)
	tree.URI = opts.URI
	tree.Diagnostics = append(tree.Diagnostics, mapLexerDiagnostics(lexRes.Diagnostics)...)

	p := newParser(syntax.NewBuilder(tree), sourceCopy, lexRes.Tokens, false)
	tree.Root = p.parseDocument()
	tree.Diagnostics = append(tree.Diagnostics, p.diagnostics...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tree, nil
}

// ParseFragment parses code as a node of kind and appends it to the tree of
// b as synthesized nodes. Supported kinds are the definitions, Field,
// Function, EnumValue, Annotation, the type kinds and the const value kinds.
func ParseFragment(b *syntax.Builder, kind syntax.Kind, code string) (syntax.NodeID, error) {
	src := []byte(code)
	lexRes := lexer.Lex(src)
	if len(lexRes.Diagnostics) > 0 {
		d := lexRes.Diagnostics[0]
		return syntax.NoNode, fmt.Errorf("parse %s fragment: %s: %s", Schema.KindName(kind), d.Code, d.Message)
	}
	p := newParser(b, src, lexRes.Tokens, true)

	var id syntax.NodeID
	switch {
	case IsDefinition(kind):
		id = p.parseDefinition()
	case kind == KindField:
		id = p.parseField(true)
	case kind == KindFunction:
		id = p.parseFunction()
	case kind == KindEnumValue:
		id = p.parseEnumValue()
	case kind == KindAnnotation:
		id = p.parseAnnotation()
	case IsType(kind):
		id = p.parseType()
	case IsConstValue(kind):
		id = p.parseConstValue()
	default:
		return syntax.NoNode, fmt.Errorf("parse fragment: unsupported kind %s", Schema.KindName(kind))
	}
	if p.peek().Kind != lexer.TokenEOF {
		p.errorf(p.peek().Span, "unexpected %s after %s", p.describe(p.peek()), Schema.KindName(kind))
	}
	if len(p.diagnostics) > 0 {
		errs := make([]error, 0, len(p.diagnostics))
		for _, d := range p.diagnostics {
			errs = append(errs, errors.New(d.Message))
		}
		return syntax.NoNode, fmt.Errorf("parse %s fragment %q: %w", Schema.KindName(kind), code, errors.Join(errs...))
	}
	if got := b.Tree().NodeByID(id).Kind; got != kind && !(IsConstValue(kind) && IsConstValue(got)) && !(IsType(kind) && IsType(got)) {
		return syntax.NoNode, fmt.Errorf("parse fragment: %q is a %s, want %s", code, Schema.KindName(got), Schema.KindName(kind))
	}
	return id, nil
}

func mapLexerDiagnostics(in []lexer.Diagnostic) []syntax.Diagnostic {
	out := make([]syntax.Diagnostic, 0, len(in))
	for _, d := range in {
		out = append(out, syntax.Diagnostic{
			Code:        syntax.DiagnosticLexer,
			Message:     fmt.Sprintf("%s: %s", d.Code, d.Message),
			Severity:    syntax.SeverityError,
			Span:        d.Span,
			Source:      "lexer",
			Recoverable: true,
		})
	}
	return out
}

// parser is a recursive-descent parser over lexer tokens. In synthesize mode
// it creates nodes without spans for fragments of new code.
type parser struct {
	b           *syntax.Builder
	src         []byte
	tokens      []lexer.Token
	pos         int
	lastEnd     text.ByteOffset
	synthesize  bool
	diagnostics []syntax.Diagnostic
}

func newParser(b *syntax.Builder, src []byte, tokens []lexer.Token, synthesize bool) *parser {
	return &parser{b: b, src: src, tokens: tokens, synthesize: synthesize}
}

// Token access.

func (p *parser) peek() lexer.Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) lexer.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	end := text.ByteOffset(len(p.src))
	return lexer.Token{Kind: lexer.TokenEOF, Span: text.Span{Start: end, End: end}}
}

func (p *parser) at(kinds ...lexer.TokenKind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Kind != lexer.TokenEOF {
		p.pos++
		p.lastEnd = tok.Span.End
	}
	return tok
}

func (p *parser) accept(kind lexer.TokenKind) (lexer.Token, bool) {
	if p.peek().Kind != kind {
		return lexer.Token{}, false
	}
	return p.advance(), true
}

func (p *parser) expect(kind lexer.TokenKind, what string) (lexer.Token, bool) {
	if tok, ok := p.accept(kind); ok {
		return tok, true
	}
	tok := p.peek()
	p.diagnostics = append(p.diagnostics, syntax.Diagnostic{
		Code:        syntax.DiagnosticMissingToken,
		Message:     fmt.Sprintf("expected %s, found %s", what, p.describe(tok)),
		Severity:    syntax.SeverityError,
		Span:        text.Span{Start: tok.Span.Start, End: tok.Span.Start},
		Source:      "parser",
		Recoverable: true,
	})
	return lexer.Token{}, false
}

func (p *parser) errorf(sp text.Span, format string, args ...any) {
	p.diagnostics = append(p.diagnostics, syntax.Diagnostic{
		Code:        syntax.DiagnosticUnexpectedToken,
		Message:     fmt.Sprintf(format, args...),
		Severity:    syntax.SeverityError,
		Span:        sp,
		Source:      "parser",
		Recoverable: true,
	})
}

func (p *parser) tokenText(tok lexer.Token) string {
	return string(tok.Bytes(p.src))
}

func (p *parser) describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokenEOF:
		return "end of file"
	case lexer.TokenError:
		return fmt.Sprintf("invalid token %q", p.tokenText(tok))
	default:
		return fmt.Sprintf("%q", p.tokenText(tok))
	}
}

// Nodes.

func (p *parser) open(kind syntax.Kind) syntax.NodeID {
	if p.synthesize {
		return p.b.New(kind)
	}
	start := p.peek().Span.Start
	return p.b.Original(kind, text.Span{Start: start, End: start})
}

// close ends the span of id at the last consumed token.
func (p *parser) close(id syntax.NodeID) syntax.NodeID {
	if p.synthesize {
		return id
	}
	n := p.b.Tree().NodeByID(id)
	end := p.lastEnd
	if end < n.Span.Start {
		end = n.Span.Start
	}
	p.b.SetSpan(id, text.Span{Start: n.Span.Start, End: end})
	return id
}

// fail marks id as produced by recovery and skips to the next token of
// stop, which is left unconsumed.
func (p *parser) fail(id syntax.NodeID, stop ...lexer.TokenKind) {
	if !p.synthesize {
		p.b.MarkError(id)
	}
	for !p.at(lexer.TokenEOF) && !p.at(stop...) {
		p.advance()
	}
}

// leaf consumes tok, the current token, as the text of a new leaf node.
func (p *parser) leaf(kind syntax.Kind, prop string, tok lexer.Token) syntax.NodeID {
	id := p.open(kind)
	p.advance()
	p.b.SetScalar(id, prop, p.tokenText(tok))
	return p.close(id)
}

// Document.

func (p *parser) parseDocument() syntax.NodeID {
	doc := p.b.Original(KindDocument, text.Span{Start: 0, End: text.ByteOffset(len(p.src))})
	for !p.at(lexer.TokenEOF) {
		if !isDefinitionStart(p.peek().Kind) {
			tok := p.advance()
			p.errorf(tok.Span, "unexpected %s, expected a definition", p.describe(tok))
			for !p.at(lexer.TokenEOF) && !isDefinitionStart(p.peek().Kind) {
				p.advance()
			}
			continue
		}
		start := p.pos
		if id := p.parseDefinition(); id != syntax.NoNode {
			p.b.Append(doc, PropMembers, id)
		}
		if p.pos == start {
			p.advance()
		}
	}
	return doc
}

func isDefinitionStart(k lexer.TokenKind) bool {
	switch k {
	case lexer.TokenKwInclude, lexer.TokenKwCppInclude, lexer.TokenKwNamespace,
		lexer.TokenKwTypedef, lexer.TokenKwConst, lexer.TokenKwEnum,
		lexer.TokenKwStruct, lexer.TokenKwUnion, lexer.TokenKwException,
		lexer.TokenKwService:
		return true
	default:
		return false
	}
}

func (p *parser) parseDefinition() syntax.NodeID {
	switch p.peek().Kind {
	case lexer.TokenKwInclude:
		return p.parseInclude(KindInclude)
	case lexer.TokenKwCppInclude:
		return p.parseInclude(KindCppInclude)
	case lexer.TokenKwNamespace:
		return p.parseNamespace()
	case lexer.TokenKwTypedef:
		return p.parseTypedef()
	case lexer.TokenKwConst:
		return p.parseConst()
	case lexer.TokenKwEnum:
		return p.parseEnum()
	case lexer.TokenKwStruct:
		return p.parseStructLike(KindStruct)
	case lexer.TokenKwUnion:
		return p.parseStructLike(KindUnion)
	case lexer.TokenKwException:
		return p.parseStructLike(KindException)
	case lexer.TokenKwService:
		return p.parseService()
	default:
		tok := p.peek()
		p.errorf(tok.Span, "unexpected %s, expected a definition", p.describe(tok))
		return syntax.NoNode
	}
}

func (p *parser) parseInclude(kind syntax.Kind) syntax.NodeID {
	id := p.open(kind)
	p.advance()
	if tok, ok := p.expect(lexer.TokenStringLiteral, "include path"); ok {
		p.b.SetScalar(id, PropPath, p.tokenText(tok))
	} else {
		p.fail(id, definitionStarts...)
	}
	return p.close(id)
}

var definitionStarts = []lexer.TokenKind{
	lexer.TokenKwInclude, lexer.TokenKwCppInclude, lexer.TokenKwNamespace,
	lexer.TokenKwTypedef, lexer.TokenKwConst, lexer.TokenKwEnum,
	lexer.TokenKwStruct, lexer.TokenKwUnion, lexer.TokenKwException,
	lexer.TokenKwService,
}

func (p *parser) parseNamespace() syntax.NodeID {
	id := p.open(KindNamespace)
	p.advance()
	var scope syntax.NodeID
	if tok, ok := p.accept(lexer.TokenStar); ok {
		scope = p.open(KindIdentifier)
		if !p.synthesize {
			p.b.SetSpan(scope, tok.Span)
		}
		p.b.SetScalar(scope, PropText, "*")
	} else {
		scope = p.parseDottedName(KindIdentifier, PropText, "namespace scope")
	}
	if scope == syntax.NoNode {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.b.SetChild(id, PropScope, scope)
	name := p.parseDottedName(KindIdentifier, PropText, "namespace name")
	if name == syntax.NoNode {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.b.SetChild(id, PropName, name)
	p.parseAnnotations(id)
	return p.close(id)
}

func (p *parser) parseTypedef() syntax.NodeID {
	id := p.open(KindTypedef)
	p.advance()
	typ := p.parseType()
	if typ == syntax.NoNode {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.b.SetChild(id, PropType, typ)
	if !p.parseName(id) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.parseAnnotations(id)
	p.parseSeparator(id)
	return p.close(id)
}

func (p *parser) parseConst() syntax.NodeID {
	id := p.open(KindConst)
	p.advance()
	typ := p.parseType()
	if typ == syntax.NoNode {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.b.SetChild(id, PropType, typ)
	if !p.parseName(id) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	if _, ok := p.expect(lexer.TokenEqual, `"="`); !ok {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	value := p.parseConstValue()
	if value == syntax.NoNode {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.b.SetChild(id, PropValue, value)
	p.parseSeparator(id)
	return p.close(id)
}

func (p *parser) parseEnum() syntax.NodeID {
	id := p.open(KindEnum)
	p.advance()
	if !p.parseName(id) || !p.parseBlock(id, PropValues, p.parseEnumValue) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.parseAnnotations(id)
	return p.close(id)
}

func (p *parser) parseEnumValue() syntax.NodeID {
	id := p.open(KindEnumValue)
	if !p.parseName(id) {
		p.fail(id, memberStops...)
		return p.close(id)
	}
	if _, ok := p.accept(lexer.TokenEqual); ok {
		value := p.parseIntLiteral()
		if value == syntax.NoNode {
			p.fail(id, memberStops...)
			p.parseSeparator(id)
			return p.close(id)
		}
		p.b.SetChild(id, PropValue, value)
	}
	p.parseAnnotations(id)
	p.parseSeparator(id)
	return p.close(id)
}

// memberStops ends recovery inside a braced block.
var memberStops = []lexer.TokenKind{lexer.TokenComma, lexer.TokenSemi, lexer.TokenRBrace}

func (p *parser) parseStructLike(kind syntax.Kind) syntax.NodeID {
	id := p.open(kind)
	p.advance()
	if !p.parseName(id) || !p.parseBlock(id, PropFields, func() syntax.NodeID { return p.parseField(true) }) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.parseAnnotations(id)
	return p.close(id)
}

func (p *parser) parseService() syntax.NodeID {
	id := p.open(KindService)
	p.advance()
	if !p.parseName(id) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	if _, ok := p.accept(lexer.TokenKwExtends); ok {
		base := p.parseDottedName(KindTypeRef, PropName, "base service")
		if base == syntax.NoNode {
			p.fail(id, definitionStarts...)
			return p.close(id)
		}
		p.b.SetChild(id, PropExtends, base)
	}
	if !p.parseBlock(id, PropFunctions, p.parseFunction) {
		p.fail(id, definitionStarts...)
		return p.close(id)
	}
	p.parseAnnotations(id)
	return p.close(id)
}

// parseBlock parses "{" member* "}" into the list prop of id.
func (p *parser) parseBlock(id syntax.NodeID, prop string, member func() syntax.NodeID) bool {
	if _, ok := p.expect(lexer.TokenLBrace, `"{"`); !ok {
		return false
	}
	for !p.at(lexer.TokenRBrace, lexer.TokenEOF) {
		start := p.pos
		if m := member(); m != syntax.NoNode {
			p.b.Append(id, prop, m)
		}
		if p.pos == start {
			tok := p.advance()
			p.errorf(tok.Span, "unexpected %s in %s", p.describe(tok), p.b.Tree().KindName(id))
		}
	}
	_, ok := p.expect(lexer.TokenRBrace, `"}"`)
	return ok
}

func (p *parser) parseFunction() syntax.NodeID {
	id := p.open(KindFunction)
	if tok, ok := p.acceptAny(lexer.TokenKwOneway, lexer.TokenKwAsync); ok {
		p.b.SetScalar(id, PropOneway, p.tokenText(tok))
	}
	ret := p.parseType()
	if ret == syntax.NoNode {
		p.fail(id, memberStops...)
		p.parseSeparator(id)
		return p.close(id)
	}
	p.b.SetChild(id, PropReturnType, ret)
	if !p.parseName(id) || !p.parseFieldList(id, PropParams) {
		p.fail(id, memberStops...)
		p.parseSeparator(id)
		return p.close(id)
	}
	if _, ok := p.accept(lexer.TokenKwThrows); ok {
		if !p.parseFieldList(id, PropThrows) {
			p.fail(id, memberStops...)
			p.parseSeparator(id)
			return p.close(id)
		}
	}
	p.parseAnnotations(id)
	p.parseSeparator(id)
	return p.close(id)
}

func (p *parser) acceptAny(kinds ...lexer.TokenKind) (lexer.Token, bool) {
	if !p.at(kinds...) {
		return lexer.Token{}, false
	}
	return p.advance(), true
}

// parseFieldList parses "(" field ("," field)* ")" where the list owns the
// separators.
func (p *parser) parseFieldList(id syntax.NodeID, prop string) bool {
	if _, ok := p.expect(lexer.TokenLParen, `"("`); !ok {
		return false
	}
	for !p.at(lexer.TokenRParen, lexer.TokenEOF) {
		start := p.pos
		if f := p.parseField(false); f != syntax.NoNode {
			p.b.Append(id, prop, f)
		}
		if _, ok := p.acceptAny(lexer.TokenComma, lexer.TokenSemi); !ok && !p.at(lexer.TokenRParen) {
			tok := p.peek()
			p.errorf(tok.Span, "unexpected %s in parameter list", p.describe(tok))
			for !p.at(lexer.TokenEOF, lexer.TokenRParen, lexer.TokenComma) {
				p.advance()
			}
		}
		if p.pos == start {
			p.advance()
		}
	}
	_, ok := p.expect(lexer.TokenRParen, `")"`)
	return ok
}

// parseField parses a field. Member fields own their trailing separator.
func (p *parser) parseField(member bool) syntax.NodeID {
	id := p.open(KindField)
	stops := memberStops
	if !member {
		stops = []lexer.TokenKind{lexer.TokenComma, lexer.TokenSemi, lexer.TokenRParen}
	}
	if p.at(lexer.TokenIntLiteral, lexer.TokenMinus, lexer.TokenPlus) {
		fid := p.parseIntLiteral()
		if fid == syntax.NoNode {
			p.fail(id, stops...)
			return p.close(id)
		}
		p.b.SetChild(id, PropID, fid)
		if _, ok := p.expect(lexer.TokenColon, `":" after field id`); !ok {
			p.fail(id, stops...)
			return p.close(id)
		}
	}
	if tok, ok := p.acceptAny(lexer.TokenKwRequired, lexer.TokenKwOptional); ok {
		p.b.SetScalar(id, PropRequiredness, p.tokenText(tok))
	}
	typ := p.parseType()
	if typ == syntax.NoNode {
		p.fail(id, stops...)
		return p.close(id)
	}
	p.b.SetChild(id, PropType, typ)
	if !p.parseName(id) {
		p.fail(id, stops...)
		return p.close(id)
	}
	if _, ok := p.accept(lexer.TokenEqual); ok {
		value := p.parseConstValue()
		if value == syntax.NoNode {
			p.fail(id, stops...)
			return p.close(id)
		}
		p.b.SetChild(id, PropDefault, value)
	}
	p.parseAnnotations(id)
	if member {
		p.parseSeparator(id)
	}
	return p.close(id)
}

// parseName reads a plain identifier into the Name scalar of id.
func (p *parser) parseName(id syntax.NodeID) bool {
	tok, ok := p.expect(lexer.TokenIdentifier, "identifier")
	if !ok {
		return false
	}
	p.b.SetScalar(id, PropName, p.tokenText(tok))
	return true
}

func (p *parser) parseSeparator(id syntax.NodeID) {
	if tok, ok := p.acceptAny(lexer.TokenComma, lexer.TokenSemi); ok {
		p.b.SetScalar(id, PropSeparator, p.tokenText(tok))
	}
}

// Types.

func (p *parser) parseType() syntax.NodeID {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenKwVoid, lexer.TokenKwBool, lexer.TokenKwByte, lexer.TokenKwi8,
		lexer.TokenKwi16, lexer.TokenKwi32, lexer.TokenKwi64, lexer.TokenKwDouble,
		lexer.TokenKwString, lexer.TokenKwBinary:
		return p.leaf(KindBaseType, PropName, tok)
	case lexer.TokenKwMap:
		id := p.open(KindMapType)
		p.advance()
		if _, ok := p.expect(lexer.TokenLAngle, `"<"`); !ok {
			return syntax.NoNode
		}
		key := p.parseType()
		if key == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.SetChild(id, PropKey, key)
		if _, ok := p.expect(lexer.TokenComma, `","`); !ok {
			return syntax.NoNode
		}
		value := p.parseType()
		if value == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.SetChild(id, PropValue, value)
		if _, ok := p.expect(lexer.TokenRAngle, `">"`); !ok {
			return syntax.NoNode
		}
		return p.close(id)
	case lexer.TokenKwList, lexer.TokenKwSet:
		kind := KindListType
		if tok.Kind == lexer.TokenKwSet {
			kind = KindSetType
		}
		id := p.open(kind)
		p.advance()
		if _, ok := p.expect(lexer.TokenLAngle, `"<"`); !ok {
			return syntax.NoNode
		}
		elem := p.parseType()
		if elem == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.SetChild(id, PropElem, elem)
		if _, ok := p.expect(lexer.TokenRAngle, `">"`); !ok {
			return syntax.NoNode
		}
		return p.close(id)
	case lexer.TokenIdentifier:
		return p.parseDottedName(KindTypeRef, PropName, "type")
	default:
		p.errorf(tok.Span, "unexpected %s, expected a type", p.describe(tok))
		return syntax.NoNode
	}
}

// parseDottedName reads identifier ("." identifier)* into a leaf node.
// Keywords are accepted after a dot.
func (p *parser) parseDottedName(kind syntax.Kind, prop, what string) syntax.NodeID {
	first, ok := p.expect(lexer.TokenIdentifier, what)
	if !ok {
		return syntax.NoNode
	}
	var sb strings.Builder
	sb.WriteString(p.tokenText(first))
	id := p.open(kind)
	if !p.synthesize {
		p.b.SetSpan(id, first.Span)
	}
	for p.peek().Kind == lexer.TokenDot {
		next := p.peekAt(1)
		if next.Kind != lexer.TokenIdentifier && !next.Kind.IsKeyword() {
			break
		}
		p.advance()
		p.advance()
		sb.WriteByte('.')
		sb.WriteString(p.tokenText(next))
	}
	p.b.SetScalar(id, prop, sb.String())
	return p.close(id)
}

// Constants.

func (p *parser) parseConstValue() syntax.NodeID {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenIntLiteral, lexer.TokenMinus, lexer.TokenPlus:
		if p.peekAt(1).Kind == lexer.TokenFloatLiteral && tok.Kind != lexer.TokenIntLiteral {
			return p.parseSigned(KindDoubleLiteral, lexer.TokenFloatLiteral)
		}
		return p.parseIntLiteral()
	case lexer.TokenFloatLiteral:
		return p.leaf(KindDoubleLiteral, PropText, tok)
	case lexer.TokenStringLiteral:
		return p.leaf(KindStringLiteral, PropText, tok)
	case lexer.TokenKwTrue, lexer.TokenKwFalse:
		return p.leaf(KindIdentifier, PropText, tok)
	case lexer.TokenIdentifier:
		return p.parseDottedName(KindIdentifier, PropText, "constant")
	case lexer.TokenLBracket:
		return p.parseConstList()
	case lexer.TokenLBrace:
		return p.parseConstMap()
	default:
		p.errorf(tok.Span, "unexpected %s, expected a constant value", p.describe(tok))
		return syntax.NoNode
	}
}

func (p *parser) parseIntLiteral() syntax.NodeID {
	return p.parseSigned(KindIntLiteral, lexer.TokenIntLiteral)
}

// parseSigned reads an optionally signed numeric literal into one leaf.
func (p *parser) parseSigned(kind syntax.Kind, lit lexer.TokenKind) syntax.NodeID {
	id := p.open(kind)
	sign := ""
	if tok, ok := p.acceptAny(lexer.TokenMinus, lexer.TokenPlus); ok {
		sign = p.tokenText(tok)
	}
	tok, ok := p.expect(lit, "number")
	if !ok {
		return syntax.NoNode
	}
	p.b.SetScalar(id, PropText, sign+p.tokenText(tok))
	return p.close(id)
}

func (p *parser) parseConstList() syntax.NodeID {
	id := p.open(KindConstList)
	p.advance()
	for !p.at(lexer.TokenRBracket, lexer.TokenEOF) {
		item := p.parseConstValue()
		if item == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.Append(id, PropItems, item)
		p.acceptAny(lexer.TokenComma, lexer.TokenSemi)
	}
	if _, ok := p.expect(lexer.TokenRBracket, `"]"`); !ok {
		return syntax.NoNode
	}
	return p.close(id)
}

func (p *parser) parseConstMap() syntax.NodeID {
	id := p.open(KindConstMap)
	p.advance()
	for !p.at(lexer.TokenRBrace, lexer.TokenEOF) {
		entry := p.open(KindMapEntry)
		key := p.parseConstValue()
		if key == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.SetChild(entry, PropKey, key)
		if _, ok := p.expect(lexer.TokenColon, `":"`); !ok {
			return syntax.NoNode
		}
		value := p.parseConstValue()
		if value == syntax.NoNode {
			return syntax.NoNode
		}
		p.b.SetChild(entry, PropValue, value)
		p.b.Append(id, PropEntries, p.close(entry))
		p.acceptAny(lexer.TokenComma, lexer.TokenSemi)
	}
	if _, ok := p.expect(lexer.TokenRBrace, `"}"`); !ok {
		return syntax.NoNode
	}
	return p.close(id)
}

// Annotations.

// parseAnnotations parses an optional "(" annotation ("," annotation)* ")"
// into the Annotations list of id.
func (p *parser) parseAnnotations(id syntax.NodeID) {
	if _, ok := p.accept(lexer.TokenLParen); !ok {
		return
	}
	for !p.at(lexer.TokenRParen, lexer.TokenEOF) {
		a := p.parseAnnotation()
		if a == syntax.NoNode {
			p.fail(id, lexer.TokenRParen)
			break
		}
		p.b.Append(id, PropAnnotations, a)
		p.acceptAny(lexer.TokenComma, lexer.TokenSemi)
	}
	p.expect(lexer.TokenRParen, `")"`)
}

func (p *parser) parseAnnotation() syntax.NodeID {
	id := p.open(KindAnnotation)
	key := p.parseDottedName(KindIdentifier, PropText, "annotation name")
	if key == syntax.NoNode {
		return syntax.NoNode
	}
	p.b.SetChild(id, PropKey, key)
	if _, ok := p.accept(lexer.TokenEqual); ok {
		if !p.at(lexer.TokenStringLiteral) {
			p.expect(lexer.TokenStringLiteral, "annotation value")
			return syntax.NoNode
		}
		p.b.SetChild(id, PropValue, p.leaf(KindStringLiteral, PropText, p.peek()))
	}
	return p.close(id)
}

// DefinitionKind returns the kind of the definition code starts with.
func DefinitionKind(code string) (syntax.Kind, bool) {
	switch lexer.NewScanner([]byte(code)).Next(false).Kind {
	case lexer.TokenKwInclude:
		return KindInclude, true
	case lexer.TokenKwCppInclude:
		return KindCppInclude, true
	case lexer.TokenKwNamespace:
		return KindNamespace, true
	case lexer.TokenKwTypedef:
		return KindTypedef, true
	case lexer.TokenKwConst:
		return KindConst, true
	case lexer.TokenKwEnum:
		return KindEnum, true
	case lexer.TokenKwStruct:
		return KindStruct, true
	case lexer.TokenKwUnion:
		return KindUnion, true
	case lexer.TokenKwException:
		return KindException, true
	case lexer.TokenKwService:
		return KindService, true
	default:
		return 0, false
	}
}
