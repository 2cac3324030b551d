package lexer

import (
	"errors"
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/text"
)

var (
	// ErrEndOfFile is returned when a read runs past the last token.
	ErrEndOfFile = errors.New("unexpected end of file")
	// ErrTokenNotFound is returned when an expected token kind is absent.
	ErrTokenNotFound = errors.New("token not found")
)

// TokenNotFoundError reports a required token that could not be located.
type TokenNotFoundError struct {
	Kind TokenKind
	From text.ByteOffset
}

func (e *TokenNotFoundError) Error() string {
	return fmt.Sprintf("token %s not found after offset %d", e.Kind, e.From)
}

// Unwrap allows errors.Is(err, ErrTokenNotFound).
func (e *TokenNotFoundError) Unwrap() error { return ErrTokenNotFound }

// Cursor is a repositionable reader over the tokens and comments of a source
// buffer. Tokens are scanned on demand from the requested offset. A Cursor
// holds one mutable position and must not be shared between concurrent
// rewrites.
type Cursor struct {
	scanner *Scanner
	cur     Token
}

// NewCursor returns a cursor over src.
func NewCursor(src []byte) *Cursor {
	return &Cursor{scanner: NewScanner(src)}
}

// SetOffset positions the cursor so the next read returns the first token
// starting at or after off. off must lie between tokens.
func (c *Cursor) SetOffset(off text.ByteOffset) {
	c.scanner.Reset(off)
}

// Next reads the token after the current position.
func (c *Cursor) Next(includeComments bool) (TokenKind, error) {
	c.cur = c.scanner.Next(includeComments)
	if c.cur.Kind == TokenEOF {
		return TokenEOF, ErrEndOfFile
	}
	return c.cur.Kind, nil
}

// ReadNext repositions to from and reads the next token.
func (c *Cursor) ReadNext(from text.ByteOffset, includeComments bool) (TokenKind, error) {
	c.SetOffset(from)
	return c.Next(includeComments)
}

// CurrentStart returns the start offset of the last token read.
func (c *Cursor) CurrentStart() text.ByteOffset { return c.cur.Span.Start }

// CurrentEnd returns the end offset of the last token read.
func (c *Cursor) CurrentEnd() text.ByteOffset { return c.cur.Span.End }

// CurrentSpan returns the span of the last token read.
func (c *Cursor) CurrentSpan() text.Span { return c.cur.Span }

// ReadToToken reads forward from from until a token of kind is current.
func (c *Cursor) ReadToToken(kind TokenKind, from text.ByteOffset) error {
	c.SetOffset(from)
	for {
		got, err := c.Next(IsComment(kind))
		if err != nil {
			return &TokenNotFoundError{Kind: kind, From: from}
		}
		if got == kind {
			return nil
		}
	}
}

// TokenEndOffset returns the end of the first token of kind at or after from.
func (c *Cursor) TokenEndOffset(kind TokenKind, from text.ByteOffset) (text.ByteOffset, error) {
	if err := c.ReadToToken(kind, from); err != nil {
		return 0, err
	}
	return c.CurrentEnd(), nil
}

// TokenStartOffset returns the start of the first token of kind at or after from.
func (c *Cursor) TokenStartOffset(kind TokenKind, from text.ByteOffset) (text.ByteOffset, error) {
	if err := c.ReadToToken(kind, from); err != nil {
		return 0, err
	}
	return c.CurrentStart(), nil
}

// NextStartOffset returns the start of the first token at or after from.
func (c *Cursor) NextStartOffset(from text.ByteOffset, includeComments bool) (text.ByteOffset, error) {
	if _, err := c.ReadNext(from, includeComments); err != nil {
		return 0, err
	}
	return c.CurrentStart(), nil
}

// NextEndOffset returns the end of the first token at or after from.
func (c *Cursor) NextEndOffset(from text.ByteOffset, includeComments bool) (text.ByteOffset, error) {
	if _, err := c.ReadNext(from, includeComments); err != nil {
		return 0, err
	}
	return c.CurrentEnd(), nil
}

// LineCommentEnds returns the sorted end offsets of all line and hash
// comments in src. An insertion at one of these offsets would be swallowed
// by the comment unless a line break is inserted first.
func LineCommentEnds(src []byte) []text.ByteOffset {
	var out []text.ByteOffset
	s := NewScanner(src)
	for {
		tok := s.Next(true)
		switch tok.Kind {
		case TokenEOF:
			return out
		case TokenLineComment, TokenHashComment:
			out = append(out, tok.Span.End)
		}
	}
}
