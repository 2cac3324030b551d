package rewrite

import (
	"errors"
	"fmt"

	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

var (
	// ErrSchemaViolation is returned when recorded events disagree with the
	// schema of the node they are attached to.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrCopySourceReused is returned when a copy or move placeholder is
	// rendered more than once.
	ErrCopySourceReused = errors.New("copy source used more than once")
	// ErrDanglingPlaceholder is returned when a copy or move placeholder is
	// never reached, or its source is never visited.
	ErrDanglingPlaceholder = errors.New("dangling placeholder")
	// ErrDocumentMismatch is returned when a required token cannot be found
	// where the syntax tree says it is.
	ErrDocumentMismatch = errors.New("syntax tree does not match source")
	// ErrChangeNotSupported is the sentinel behind ChangeNotSupportedError.
	ErrChangeNotSupported = errors.New("change not supported")
)

// ContractError reports inconsistent input handed to the event store or a
// session, such as an inserted event that carries an original value.
type ContractError struct {
	Op      string
	Node    syntax.NodeID
	Message string
}

func (e *ContractError) Error() string {
	if e == nil {
		return "rewrite contract violation"
	}
	if e.Node == syntax.NoNode {
		return fmt.Sprintf("rewrite contract violation in %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("rewrite contract violation in %s (node %d): %s", e.Op, e.Node, e.Message)
}

// AsContractError reports whether err contains a ContractError.
func AsContractError(err error, target **ContractError) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

// ChangeNotSupportedError names a node kind or property that has no legal
// alternate rendering.
type ChangeNotSupportedError struct {
	Kind     string
	Property string
}

func (e *ChangeNotSupportedError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("change not supported in %s", e.Kind)
	}
	return fmt.Sprintf("change not supported in %s.%s", e.Kind, e.Property)
}

// Unwrap allows errors.Is(err, ErrChangeNotSupported).
func (e *ChangeNotSupportedError) Unwrap() error { return ErrChangeNotSupported }

// AsChangeNotSupported reports whether err contains a ChangeNotSupportedError.
func AsChangeNotSupported(err error, target **ChangeNotSupportedError) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

func contractf(op string, node syntax.NodeID, format string, args ...any) error {
	return &ContractError{Op: op, Node: node, Message: fmt.Sprintf(format, args...)}
}

func mismatch(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDocumentMismatch, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrDocumentMismatch, what, err)
}
