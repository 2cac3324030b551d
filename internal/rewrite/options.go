package rewrite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kpumuk/thrift-rewrite/internal/format"
)

// Option keys recognized by OptionsFromMap.
const (
	KeyTabWidth                              = "tabWidth"
	KeyIndentWidth                           = "indentWidth"
	KeyUseTabs                               = "useTabs"
	KeyLineDelimiter                         = "lineDelimiter"
	KeyLineWidth                             = "lineWidth"
	KeyInsertSpaceAfterArrowInSwitch         = "insertSpaceAfterArrowInSwitch"
	KeyIndentSwitchStatementsCompareToCases  = "indentSwitchStatementsCompareToCases"
	KeyIndentSwitchStatementsCompareToSwitch = "indentSwitchStatementsCompareToSwitch"
)

// Options control the text synthesized for inserted and replaced nodes.
type Options struct {
	TabWidth    int
	IndentWidth int
	// UseTabs is detected from the source when false, unless it was given
	// to OptionsFromMap.
	UseTabs bool
	// LineDelimiter is detected from the source when empty.
	LineDelimiter string
	// LineWidth is the soft width used when rendering new nodes.
	LineWidth int

	InsertSpaceAfterArrowInSwitch         bool
	IndentSwitchStatementsCompareToCases  bool
	IndentSwitchStatementsCompareToSwitch bool

	tabsSet bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		TabWidth:                             format.DefaultTabWidth,
		IndentWidth:                          format.DefaultIndentWidth,
		LineWidth:                            format.DefaultLineWidth,
		InsertSpaceAfterArrowInSwitch:        true,
		IndentSwitchStatementsCompareToCases: true,
	}
}

// OptionsFromMap overlays recognized keys of m onto DefaultOptions. Integers
// may be given as any numeric type or decimal string; booleans as bool or one
// of "true", "false", "insert", "do not insert".
func OptionsFromMap(m map[string]any) (Options, error) {
	opts := DefaultOptions()
	for key, raw := range m {
		var err error
		switch key {
		case KeyTabWidth:
			opts.TabWidth, err = intOption(raw)
		case KeyIndentWidth:
			opts.IndentWidth, err = intOption(raw)
		case KeyLineWidth:
			opts.LineWidth, err = intOption(raw)
		case KeyUseTabs:
			opts.UseTabs, err = boolOption(raw)
			opts.tabsSet = true
		case KeyLineDelimiter:
			s, ok := raw.(string)
			if !ok || (s != "\n" && s != "\r\n") {
				err = fmt.Errorf("want \"\\n\" or \"\\r\\n\", got %v", raw)
			}
			opts.LineDelimiter = s
		case KeyInsertSpaceAfterArrowInSwitch:
			opts.InsertSpaceAfterArrowInSwitch, err = boolOption(raw)
		case KeyIndentSwitchStatementsCompareToCases:
			opts.IndentSwitchStatementsCompareToCases, err = boolOption(raw)
		case KeyIndentSwitchStatementsCompareToSwitch:
			opts.IndentSwitchStatementsCompareToSwitch, err = boolOption(raw)
		default:
			continue
		}
		if err != nil {
			return Options{}, fmt.Errorf("option %s: %w", key, err)
		}
	}
	return opts, nil
}

func intOption(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unsupported value %T", raw)
	}
}

func boolOption(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "insert":
			return true, nil
		case "false", "do not insert":
			return false, nil
		}
		return false, fmt.Errorf("unsupported value %q", v)
	default:
		return false, fmt.Errorf("unsupported value %T", raw)
	}
}

func (o Options) normalize(src []byte) (Options, error) {
	if o.TabWidth < 0 || o.IndentWidth < 0 || o.LineWidth < 0 {
		return Options{}, fmt.Errorf("invalid widths: tab %d, indent %d, line %d", o.TabWidth, o.IndentWidth, o.LineWidth)
	}
	if o.TabWidth == 0 {
		o.TabWidth = format.DefaultTabWidth
	}
	if o.IndentWidth == 0 {
		o.IndentWidth = format.DefaultIndentWidth
	}
	if o.LineWidth == 0 {
		o.LineWidth = format.DefaultLineWidth
	}
	policy := format.AnalyzeSource(src)
	if o.LineDelimiter == "" {
		o.LineDelimiter = policy.Newline
	}
	if !o.UseTabs && !o.tabsSet {
		o.UseTabs = policy.UsesTabs()
	}
	return o, nil
}

func (o Options) indent() format.IndentOptions {
	return format.IndentOptions{TabWidth: o.TabWidth, IndentWidth: o.IndentWidth, UseTabs: o.UseTabs}
}
