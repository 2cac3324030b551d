// Package script reads YAML edit scripts and records their operations in a
// rewrite session.
//
// A script is a list of operations applied in order:
//
//	edits:
//	  - op: remove
//	    target: User.email
//	  - op: insert
//	    into: User
//	    position: after:id
//	    code: "3: optional string nickname;"
//	  - op: rename
//	    target: User
//	    name: Account
//	  - op: move
//	    target: User.id
//	    through: User.name
//	    into: Account
//
// A move or copy with through transfers the run of siblings from target to
// through as one block of text.
//
// Selectors name a definition, optionally followed by a member and a
// parameter: "Service.method.arg". They resolve against the parsed tree, so
// every operation sees the original names.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation names.
const (
	OpRemove  = "remove"
	OpInsert  = "insert"
	OpReplace = "replace"
	OpMove    = "move"
	OpCopy    = "copy"
	OpRename  = "rename"
	OpSet     = "set"
)

var ops = []string{OpRemove, OpInsert, OpReplace, OpMove, OpCopy, OpRename, OpSet}

// ErrInvalidScript is returned for scripts that fail validation.
var ErrInvalidScript = errors.New("invalid edit script")

// Script is a parsed edit script.
type Script struct {
	Edits []Op `yaml:"edits"`
}

// Op is one operation of a script.
type Op struct {
	Op string `yaml:"op"`
	// Target selects the node the operation acts on.
	Target string `yaml:"target,omitempty"`
	// Through selects the last sibling of a moved or copied run.
	Through string `yaml:"through,omitempty"`
	// Into selects the list owner for insert, move and copy. Empty means the
	// document.
	Into string `yaml:"into,omitempty"`
	// Property overrides the list property of Into, or names the property
	// changed by set.
	Property string `yaml:"property,omitempty"`
	// Position is first, last, before:NAME, after:NAME or index:N.
	Position string `yaml:"position,omitempty"`
	Code     string `yaml:"code,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// GroupName returns the name of the edit group recorded for the operation.
func (o Op) GroupName() string {
	switch o.Op {
	case OpInsert:
		if o.Into == "" {
			return "insert document"
		}
		return "insert " + o.Into
	default:
		return o.Op + " " + o.Target
	}
}

// Parse decodes and validates a YAML script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse edit script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edit script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that every operation carries the fields it needs.
func (s *Script) Validate() error {
	var errs []error
	for i, o := range s.Edits {
		if err := o.validate(); err != nil {
			errs = append(errs, fmt.Errorf("edit %d: %w", i+1, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidScript, errors.Join(errs...))
	}
	return nil
}

func (o Op) validate() error {
	if !slices.Contains(ops, o.Op) {
		return fmt.Errorf("unknown op %q", o.Op)
	}
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s needs %s", o.Op, field)
		}
		return nil
	}
	var errs []error
	if o.Op != OpInsert {
		errs = append(errs, need("target", o.Target))
	}
	switch o.Op {
	case OpInsert, OpReplace:
		errs = append(errs, need("code", o.Code))
	case OpRename:
		errs = append(errs, need("name", o.Name))
	case OpSet:
		errs = append(errs, need("property", o.Property))
	}
	if o.Through != "" && o.Op != OpMove && o.Op != OpCopy {
		errs = append(errs, fmt.Errorf("%s does not take through", o.Op))
	}
	if o.Position != "" {
		if _, err := parsePosition(o.Position); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type positionKind uint8

const (
	posLast positionKind = iota
	posFirst
	posBefore
	posAfter
	posIndex
)

type position struct {
	kind  positionKind
	ref   string
	index int
}

func parsePosition(s string) (position, error) {
	switch s {
	case "", "last":
		return position{kind: posLast}, nil
	case "first":
		return position{kind: posFirst}, nil
	}
	key, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return position{}, fmt.Errorf("invalid position %q", s)
	}
	switch key {
	case "before":
		return position{kind: posBefore, ref: value}, nil
	case "after":
		return position{kind: posAfter, ref: value}, nil
	case "index":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return position{}, fmt.Errorf("invalid position index %q", value)
		}
		return position{kind: posIndex, index: n}, nil
	default:
		return position{}, fmt.Errorf("invalid position %q", s)
	}
}
