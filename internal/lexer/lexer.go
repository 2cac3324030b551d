package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

// DiagnosticCode identifies lexer diagnostic categories.
type DiagnosticCode string

// DiagnosticCode values emitted by the lexer.
const (
	DiagnosticInvalidByte              DiagnosticCode = "LEX_INVALID_BYTE"
	DiagnosticUnknownCharacter         DiagnosticCode = "LEX_UNKNOWN_CHARACTER"
	DiagnosticUnterminatedString       DiagnosticCode = "LEX_UNTERMINATED_STRING"
	DiagnosticUnterminatedBlockComment DiagnosticCode = "LEX_UNTERMINATED_BLOCK_COMMENT"
	DiagnosticInvalidHexLiteral        DiagnosticCode = "LEX_INVALID_HEX_LITERAL"
)

// Diagnostic is a lexer-level issue with source location.
type Diagnostic struct {
	Code    DiagnosticCode
	Message string
	Span    text.Span
}

// Result is the output of lexing source bytes.
type Result struct {
	Tokens      []Token
	Diagnostics []Diagnostic
}

// Lex tokenizes src into a lossless token stream. Whitespace, newlines and
// comments are attached to the following token as leading trivia; the stream
// always ends with an EOF token.
func Lex(src []byte) Result {
	s := NewScanner(src)
	var (
		tokens  []Token
		leading []Trivia
	)
	for {
		tr, tok := s.step()
		if tok == nil {
			leading = append(leading, tr)
			continue
		}
		tok.Leading = leading
		leading = nil
		tokens = append(tokens, *tok)
		if tok.Kind == TokenEOF {
			return Result{Tokens: tokens, Diagnostics: s.diagnostics}
		}
	}
}

// Scanner reads tokens lazily from any offset of a source buffer. Comments
// are reported as tokens of the comment kinds when requested.
type Scanner struct {
	src         []byte
	i           int
	diagnostics []Diagnostic
}

// NewScanner returns a scanner positioned at the start of src.
func NewScanner(src []byte) *Scanner {
	return &Scanner{src: src}
}

// Reset moves the scanner to off, clamped to the buffer. Scanning resumes as
// if the source started there, so off must not fall inside a token or a
// comment.
func (s *Scanner) Reset(off text.ByteOffset) {
	s.i = min(max(int(off), 0), len(s.src))
}

// Offset returns the position of the next scan.
func (s *Scanner) Offset() text.ByteOffset { return text.ByteOffset(s.i) }

// Diagnostics returns the problems found so far.
func (s *Scanner) Diagnostics() []Diagnostic { return s.diagnostics }

// Next returns the next token, skipping whitespace and newlines. Comments are
// skipped too unless includeComments is set. At the end of the buffer it
// returns an EOF token.
func (s *Scanner) Next(includeComments bool) Token {
	for {
		tr, tok := s.step()
		if tok != nil {
			return *tok
		}
		if includeComments && tr.IsComment() {
			return Token{Kind: tr.Kind.tokenKind(), Span: tr.Span}
		}
	}
}

// step scans one lexeme. It returns either a token or, with a nil token, a
// piece of trivia.
func (s *Scanner) step() (Trivia, *Token) {
	if s.eof() {
		return Trivia{}, &Token{Kind: TokenEOF, Span: span(len(s.src), len(s.src))}
	}
	start := s.i
	b := s.src[s.i]
	switch {
	case isHorizontalSpace(b):
		for !s.eof() && isHorizontalSpace(s.src[s.i]) {
			s.i++
		}
		return Trivia{Kind: TriviaWhitespace, Span: span(start, s.i)}, nil
	case b == '\n' || b == '\r':
		s.i++
		if b == '\r' && s.peekByte(0) == '\n' {
			s.i++
		}
		return Trivia{Kind: TriviaNewline, Span: span(start, s.i)}, nil
	case b == '#':
		s.skipLine()
		return Trivia{Kind: TriviaHashComment, Span: span(start, s.i)}, nil
	case b == '/' && s.peekByte(1) == '/':
		s.skipLine()
		return Trivia{Kind: TriviaLineComment, Span: span(start, s.i)}, nil
	case b == '/' && s.peekByte(1) == '*':
		return s.scanBlockComment()
	}
	tok := s.scanToken()
	return Trivia{}, &tok
}

// punctuation maps single-byte tokens to their kinds; TokenError marks bytes
// that are not punctuation.
var punctuation = [utf8.RuneSelf]TokenKind{
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'<': TokenLAngle,
	'>': TokenRAngle,
	',': TokenComma,
	';': TokenSemi,
	':': TokenColon,
	'=': TokenEqual,
	'.': TokenDot,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
}

func (s *Scanner) scanToken() Token {
	start := s.i
	b := s.src[s.i]
	switch {
	case isIdentStart(b):
		for s.i++; !s.eof() && isIdentPart(s.src[s.i]); s.i++ {
		}
		kind := TokenIdentifier
		if kw, ok := keywordKinds[string(s.src[start:s.i])]; ok {
			kind = kw
		}
		return Token{Kind: kind, Span: span(start, s.i)}
	case isDigit(b):
		return s.scanNumber()
	case b == '.' && isDigit(s.peekByte(1)):
		s.i++
		s.skipDigits()
		s.scanExponent()
		return Token{Kind: TokenFloatLiteral, Span: span(start, s.i)}
	case b == '"' || b == '\'':
		return s.scanString()
	case b >= utf8.RuneSelf:
		r, size := utf8.DecodeRune(s.src[s.i:])
		s.i += size
		if r == utf8.RuneError && size == 1 {
			return s.errorToken(start, DiagnosticInvalidByte, "invalid UTF-8 byte")
		}
		return s.errorToken(start, DiagnosticUnknownCharacter, "unsupported non-ASCII token character")
	}
	s.i++
	if kind := punctuation[b]; kind != TokenError {
		return Token{Kind: kind, Span: span(start, s.i)}
	}
	return s.errorToken(start, DiagnosticUnknownCharacter, fmt.Sprintf("unknown character %q", b))
}

func (s *Scanner) scanNumber() Token {
	start := s.i
	if s.src[s.i] == '0' && (s.peekByte(1) == 'x' || s.peekByte(1) == 'X') {
		s.i += 2
		digits := s.i
		for !s.eof() && isHexDigit(s.src[s.i]) {
			s.i++
		}
		if s.i == digits {
			return s.errorToken(start, DiagnosticInvalidHexLiteral, "invalid hex literal")
		}
		return Token{Kind: TokenIntLiteral, Span: span(start, s.i)}
	}

	s.skipDigits()
	kind := TokenIntLiteral
	if s.peekByte(0) == '.' && isDigit(s.peekByte(1)) {
		s.i++
		s.skipDigits()
		kind = TokenFloatLiteral
	}
	if s.scanExponent() {
		kind = TokenFloatLiteral
	}
	return Token{Kind: kind, Span: span(start, s.i)}
}

// scanExponent consumes an exponent suffix such as "e+10" and reports whether
// one was present. A bare "e" is left for the next token.
func (s *Scanner) scanExponent() bool {
	if c := s.peekByte(0); c != 'e' && c != 'E' {
		return false
	}
	j := s.i + 1
	if c := s.peekByte(1); c == '+' || c == '-' {
		j++
	}
	if j >= len(s.src) || !isDigit(s.src[j]) {
		return false
	}
	s.i = j
	s.skipDigits()
	return true
}

func (s *Scanner) skipDigits() {
	for !s.eof() && isDigit(s.src[s.i]) {
		s.i++
	}
}

func (s *Scanner) scanString() Token {
	start := s.i
	quote := s.src[s.i]
	for s.i++; !s.eof(); s.i++ {
		switch s.src[s.i] {
		case quote:
			s.i++
			return Token{Kind: TokenStringLiteral, Span: span(start, s.i)}
		case '\\':
			if s.i+1 < len(s.src) {
				s.i++
			}
		case '\r', '\n':
			return s.errorToken(start, DiagnosticUnterminatedString, "unterminated string literal")
		}
	}
	return s.errorToken(start, DiagnosticUnterminatedString, "unterminated string literal")
}

// skipLine advances to the line break ending the current line.
func (s *Scanner) skipLine() {
	for !s.eof() && s.src[s.i] != '\n' && s.src[s.i] != '\r' {
		s.i++
	}
}

func (s *Scanner) scanBlockComment() (Trivia, *Token) {
	start := s.i
	kind := TriviaBlockComment
	if s.peekByte(2) == '*' {
		kind = TriviaDocComment
	}
	for s.i += 2; !s.eof(); s.i++ {
		if s.src[s.i] == '*' && s.peekByte(1) == '/' {
			s.i += 2
			return Trivia{Kind: kind, Span: span(start, s.i)}, nil
		}
	}
	tok := s.errorToken(start, DiagnosticUnterminatedBlockComment, "unterminated block comment")
	return Trivia{}, &tok
}

// errorToken records a diagnostic and returns a malformed token covering the
// bytes from start to the current position.
func (s *Scanner) errorToken(start int, code DiagnosticCode, msg string) Token {
	sp := span(start, s.i)
	s.diagnostics = append(s.diagnostics, Diagnostic{Code: code, Message: msg, Span: sp})
	return Token{Kind: TokenError, Span: sp, Flags: TokenFlagMalformed}
}

func (s *Scanner) eof() bool {
	return s.i >= len(s.src)
}

func (s *Scanner) peekByte(delta int) byte {
	j := s.i + delta
	if j < 0 || j >= len(s.src) {
		return 0
	}
	return s.src[j]
}

func span(start, end int) text.Span {
	return text.Span{Start: text.ByteOffset(start), End: text.ByteOffset(end)}
}

func isHorizontalSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
