package lexer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

const serviceSource = "# ids\nservice S extends b.B {\n  /* g */ list<i8> get(1: i64 id = -0x1F, 2: double d = 1e3) throws (1: E e),\r\n}\n"

func TestLexServiceGolden(t *testing.T) {
	t.Parallel()

	src := []byte(serviceSource)
	res := Lex(src)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}

	want := strings.TrimSpace(`
KwService("service") lead=[HashComment("# ids"),Newline("\n")]
Identifier("S") lead=[Whitespace(" ")]
KwExtends("extends") lead=[Whitespace(" ")]
Identifier("b") lead=[Whitespace(" ")]
Dot(".") lead=[]
Identifier("B") lead=[]
LBrace("{") lead=[Whitespace(" ")]
KwList("list") lead=[Newline("\n"),Whitespace("  "),BlockComment("/* g */"),Whitespace(" ")]
LAngle("<") lead=[]
Kwi8("i8") lead=[]
RAngle(">") lead=[]
Identifier("get") lead=[Whitespace(" ")]
LParen("(") lead=[]
IntLiteral("1") lead=[]
Colon(":") lead=[]
Kwi64("i64") lead=[Whitespace(" ")]
Identifier("id") lead=[Whitespace(" ")]
Equal("=") lead=[Whitespace(" ")]
Minus("-") lead=[Whitespace(" ")]
IntLiteral("0x1F") lead=[]
Comma(",") lead=[]
IntLiteral("2") lead=[Whitespace(" ")]
Colon(":") lead=[]
KwDouble("double") lead=[Whitespace(" ")]
Identifier("d") lead=[Whitespace(" ")]
Equal("=") lead=[Whitespace(" ")]
FloatLiteral("1e3") lead=[Whitespace(" ")]
RParen(")") lead=[]
KwThrows("throws") lead=[Whitespace(" ")]
LParen("(") lead=[Whitespace(" ")]
IntLiteral("1") lead=[]
Colon(":") lead=[]
Identifier("E") lead=[Whitespace(" ")]
Identifier("e") lead=[Whitespace(" ")]
RParen(")") lead=[]
Comma(",") lead=[]
RBrace("}") lead=[Newline("\r\n")]
EOF("") lead=[Newline("\n")]
`)
	if got := renderTokens(src, res.Tokens); got != want {
		t.Fatalf("token stream mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestLexLiteralsKeepSpelling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		kind TokenKind
	}{
		{src: "0XBeEf", kind: TokenIntLiteral},
		{src: "42", kind: TokenIntLiteral},
		{src: "3.25", kind: TokenFloatLiteral},
		{src: ".5e+1", kind: TokenFloatLiteral},
		{src: "7E-2", kind: TokenFloatLiteral},
		{src: `"a\"b"`, kind: TokenStringLiteral},
		{src: `'bee'`, kind: TokenStringLiteral},
		{src: "cpp_include", kind: TokenKwCppInclude},
		{src: "_private9", kind: TokenIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			res := Lex([]byte(tt.src))
			if len(res.Diagnostics) != 0 {
				t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
			}
			if len(res.Tokens) != 2 {
				t.Fatalf("Lex(%q) = %d tokens, want literal and EOF", tt.src, len(res.Tokens))
			}
			tok := res.Tokens[0]
			if tok.Kind != tt.kind || string(tok.Bytes([]byte(tt.src))) != tt.src {
				t.Fatalf("Lex(%q) = %s(%q), want %s covering the input", tt.src, tok.Kind, tok.Bytes([]byte(tt.src)), tt.kind)
			}
		})
	}
}

func TestLexBareExponentIsIdentifier(t *testing.T) {
	t.Parallel()

	src := []byte("1e x")
	got := renderTokens(src, Lex(src).Tokens)
	want := "IntLiteral(\"1\") lead=[]\nIdentifier(\"e\") lead=[]\nIdentifier(\"x\") lead=[Whitespace(\" \")]\nEOF(\"\") lead=[]"
	if got != want {
		t.Fatalf("tokens = %s, want %s", got, want)
	}
}

func TestLexMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  []byte
		code DiagnosticCode
		span text.Span
	}{
		{name: "unterminated string", src: []byte("x = \"abc\n"), code: DiagnosticUnterminatedString, span: text.Span{Start: 4, End: 8}},
		{name: "unterminated block comment", src: []byte("a /* b"), code: DiagnosticUnterminatedBlockComment, span: text.Span{Start: 2, End: 6}},
		{name: "invalid byte", src: []byte{'a', ' ', 0xff}, code: DiagnosticInvalidByte, span: text.Span{Start: 2, End: 3}},
		{name: "non-ascii", src: []byte("é"), code: DiagnosticUnknownCharacter, span: text.Span{Start: 0, End: 2}},
		{name: "bare hex prefix", src: []byte("0x;"), code: DiagnosticInvalidHexLiteral, span: text.Span{Start: 0, End: 2}},
		{name: "unknown punctuation", src: []byte("a @ b"), code: DiagnosticUnknownCharacter, span: text.Span{Start: 2, End: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Lex(tt.src)
			if len(res.Diagnostics) != 1 {
				t.Fatalf("diagnostics = %+v, want exactly one", res.Diagnostics)
			}
			if d := res.Diagnostics[0]; d.Code != tt.code || d.Span != tt.span {
				t.Fatalf("diagnostic = %s at %s, want %s at %s", d.Code, d.Span, tt.code, tt.span)
			}
			var malformed []Token
			for _, tok := range res.Tokens {
				if tok.Kind == TokenError {
					malformed = append(malformed, tok)
				}
			}
			if len(malformed) != 1 || malformed[0].Span != tt.span || !malformed[0].Flags.Has(TokenFlagMalformed) {
				t.Fatalf("error tokens = %+v, want one malformed token at %s", malformed, tt.span)
			}
			if last := res.Tokens[len(res.Tokens)-1]; last.Kind != TokenEOF {
				t.Fatalf("last token = %s, want EOF", last.Kind)
			}
		})
	}
}

func TestScannerMatchesLex(t *testing.T) {
	t.Parallel()

	inputs := []string{
		serviceSource,
		"",
		"// only a comment",
		"struct X {\n 1: string name = \"a\n}\n",
		"a /* open",
		"enum E { A = 1, # one\n B }",
	}
	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			t.Parallel()

			src := []byte(in)
			tokens := Lex(src).Tokens
			for _, includeComments := range []bool{false, true} {
				want := flatten(tokens, includeComments)
				got := scanAll(NewScanner(src), includeComments)
				if got != want {
					t.Fatalf("Next(%t) stream\n%s\nwant\n%s", includeComments, got, want)
				}
			}
		})
	}
}

func TestScannerResumesFromOffset(t *testing.T) {
	t.Parallel()

	src := []byte(serviceSource)
	s := NewScanner(src)

	off := text.ByteOffset(bytes.Index(src, []byte("get(")))
	s.Reset(off)
	if tok := s.Next(false); tok.Kind != TokenIdentifier || tok.Span != (text.Span{Start: off, End: off + 3}) {
		t.Fatalf("Next after Reset(%d) = %s %s, want Identifier at get", off, tok.Kind, tok.Span)
	}
	if tok := s.Next(false); tok.Kind != TokenLParen {
		t.Fatalf("second Next = %s, want LParen", tok.Kind)
	}

	comment := text.ByteOffset(bytes.Index(src, []byte("/* g */")))
	s.Reset(comment - 2)
	if tok := s.Next(true); tok.Kind != TokenBlockComment || tok.Span.Start != comment {
		t.Fatalf("Next(true) = %s %s, want BlockComment at %d", tok.Kind, tok.Span, comment)
	}
	s.Reset(comment - 2)
	if tok := s.Next(false); tok.Kind != TokenKwList {
		t.Fatalf("Next(false) = %s, want KwList", tok.Kind)
	}

	s.Reset(text.ByteOffset(len(src) + 10))
	if got := s.Offset(); got != text.ByteOffset(len(src)) {
		t.Fatalf("Offset after Reset past end = %d, want %d", got, len(src))
	}
	if tok := s.Next(true); tok.Kind != TokenEOF {
		t.Fatalf("Next at end = %s, want EOF", tok.Kind)
	}
}

// flatten lists tokens, and the comments in their leading trivia when
// includeComments is set, in source order without the EOF token.
func flatten(tokens []Token, includeComments bool) string {
	var lines []string
	for _, tok := range tokens {
		for _, tr := range tok.Leading {
			if includeComments && tr.IsComment() {
				lines = append(lines, fmt.Sprintf("%s %s", tr.Kind.tokenKind(), tr.Span))
			}
		}
		if tok.Kind == TokenEOF {
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s", tok.Kind, tok.Span))
	}
	return strings.Join(lines, "\n")
}

func scanAll(s *Scanner, includeComments bool) string {
	var lines []string
	for {
		tok := s.Next(includeComments)
		if tok.Kind == TokenEOF {
			return strings.Join(lines, "\n")
		}
		lines = append(lines, fmt.Sprintf("%s %s", tok.Kind, tok.Span))
	}
}

func renderTokens(src []byte, tokens []Token) string {
	lines := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lead := make([]string, 0, len(tok.Leading))
		for _, tr := range tok.Leading {
			lead = append(lead, fmt.Sprintf("%s(%q)", tr.Kind, tr.Bytes(src)))
		}
		lines = append(lines, fmt.Sprintf("%s(%q) lead=[%s]", tok.Kind, tok.Bytes(src), strings.Join(lead, ",")))
	}
	return strings.Join(lines, "\n")
}
