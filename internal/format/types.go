// Package format provides the Doc renderer and indentation primitives used to
// synthesize text for inserted and replaced syntax nodes.
package format

import "fmt"

const (
	// DefaultLineWidth is the soft width used by Group when none is configured.
	DefaultLineWidth = 100
	// DefaultIndent is the indent unit used when none is configured.
	DefaultIndent = "  "
	// DefaultTabWidth is the visual width of a tab character.
	DefaultTabWidth = 4
	// DefaultIndentWidth is the visual width of one indent level.
	DefaultIndentWidth = 2
)

// IndentOptions describe how indent levels map to whitespace.
type IndentOptions struct {
	TabWidth    int
	IndentWidth int
	UseTabs     bool
}

// Normalize applies defaults and validates widths.
func (o IndentOptions) Normalize() (IndentOptions, error) {
	if o.TabWidth < 0 {
		return IndentOptions{}, fmt.Errorf("invalid TabWidth %d", o.TabWidth)
	}
	if o.IndentWidth < 0 {
		return IndentOptions{}, fmt.Errorf("invalid IndentWidth %d", o.IndentWidth)
	}
	if o.TabWidth == 0 {
		o.TabWidth = DefaultTabWidth
	}
	if o.IndentWidth == 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	return o, nil
}

// Unit returns the whitespace for one indent level.
func (o IndentOptions) Unit() string {
	return IndentString(1, o)
}
