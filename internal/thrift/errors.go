package thrift

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// UnsafeReason identifies why a source was refused for rewriting.
type UnsafeReason string

const (
	// UnsafeReasonInvalidUTF8 indicates invalid UTF-8 bytes in the source input.
	UnsafeReasonInvalidUTF8 UnsafeReason = "invalid_utf8"
	// UnsafeReasonSyntaxErrors indicates refusal due to parser or lexer error diagnostics.
	UnsafeReasonSyntaxErrors UnsafeReason = "syntax_errors"
)

// ErrUnsafeToRewrite is returned when a tree cannot be rewritten safely
// because its source did not parse cleanly.
type ErrUnsafeToRewrite struct {
	Reason  UnsafeReason
	Message string
}

func (e *ErrUnsafeToRewrite) Error() string {
	if e == nil {
		return "unsafe to rewrite"
	}
	if e.Message == "" {
		return fmt.Sprintf("unsafe to rewrite (%s)", e.Reason)
	}
	return fmt.Sprintf("unsafe to rewrite (%s): %s", e.Reason, e.Message)
}

// IsErrUnsafeToRewrite reports whether err is a rewrite safety refusal.
func IsErrUnsafeToRewrite(err error) bool {
	var target *ErrUnsafeToRewrite
	return AsUnsafeToRewrite(err, &target)
}

// AsUnsafeToRewrite reports whether err contains an ErrUnsafeToRewrite.
func AsUnsafeToRewrite(err error, target **ErrUnsafeToRewrite) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

// CheckRewritable refuses trees whose source is not valid UTF-8 or carries
// error diagnostics. Offsets into such trees cannot be trusted.
func CheckRewritable(tree *syntax.Tree) error {
	if tree == nil {
		return &ErrUnsafeToRewrite{Reason: UnsafeReasonSyntaxErrors, Message: "nil tree"}
	}
	if !utf8.Valid(tree.Source) {
		return &ErrUnsafeToRewrite{Reason: UnsafeReasonInvalidUTF8, Message: "source contains invalid UTF-8"}
	}
	for _, d := range tree.Diagnostics {
		if d.Severity == syntax.SeverityError {
			return &ErrUnsafeToRewrite{
				Reason:  UnsafeReasonSyntaxErrors,
				Message: formatDiagnostic(tree, d),
			}
		}
	}
	return nil
}

func formatDiagnostic(tree *syntax.Tree, d syntax.Diagnostic) string {
	if tree.LineIndex == nil || !d.Span.IsValid() {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	line, col := tree.LineIndex.LineOf(d.Span.Start)
	return fmt.Sprintf("%d:%d: %s: %s", line+1, col+1, d.Code, d.Message)
}
