// Package diffview renders unified diffs of rewritten files for terminal
// preview.
package diffview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/mattn/go-isatty"
)

// Styles colors the parts of a diff.
type Styles struct {
	Header  lipgloss.Style
	Hunk    lipgloss.Style
	Add     lipgloss.Style
	Remove  lipgloss.Style
	Context lipgloss.Style

	plain bool
}

// NewStyles returns colored styles, or plain ones when color is false.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{Header: plain, Hunk: plain, Add: plain, Remove: plain, Context: plain, plain: true}
	}
	base := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Styles{
		Header:  base.Bold(true),
		Hunk:    base.Foreground(lipgloss.Color("14")),
		Add:     base.Foreground(lipgloss.Color("10")),
		Remove:  base.Foreground(lipgloss.Color("9")),
		Context: base.Foreground(lipgloss.Color("8")),
	}
}

// ColorEnabled resolves a color mode ("auto", "always" or "never") for w. In
// auto mode color is on for terminals unless NO_COLOR is set.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Unified returns the unified diff between before and after, or "" when they
// are equal.
func Unified(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), string(before), string(after))
	return fmt.Sprint(gotextdiff.ToUnified("a/"+path, "b/"+path, string(before), edits))
}

// Write renders the diff of path to w with styles applied per line.
func Write(w io.Writer, styles Styles, path string, before, after []byte) error {
	diff := Unified(path, before, after)
	if diff == "" {
		return nil
	}
	if styles.plain {
		_, err := io.WriteString(w, diff)
		return err
	}
	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		var style lipgloss.Style
		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
			style = styles.Header
		case strings.HasPrefix(body, "@@"):
			style = styles.Hunk
		case strings.HasPrefix(body, "+"):
			style = styles.Add
		case strings.HasPrefix(body, "-"):
			style = styles.Remove
		default:
			style = styles.Context
		}
		b.WriteString(style.Render(body))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
