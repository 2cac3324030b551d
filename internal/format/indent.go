package format

import "strings"

// LeadingWhitespace returns the run of spaces and tabs at the start of line.
func LeadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// VisualWidth returns the column reached after ws, expanding tabs to the
// next multiple of tabWidth.
func VisualWidth(ws string, tabWidth int) int {
	col := 0
	for i := 0; i < len(ws); i++ {
		switch ws[i] {
		case '\t':
			if tabWidth > 0 {
				col += tabWidth - col%tabWidth
			}
		case ' ':
			col++
		default:
			return col
		}
	}
	return col
}

// IndentUnits returns the number of whole indent levels in the leading
// whitespace of line.
func IndentUnits(line string, opts IndentOptions) int {
	opts, _ = opts.Normalize()
	return VisualWidth(LeadingWhitespace(line), opts.TabWidth) / opts.IndentWidth
}

// IndentString returns the whitespace for units indent levels.
func IndentString(units int, opts IndentOptions) string {
	if units <= 0 {
		return ""
	}
	opts, _ = opts.Normalize()
	width := units * opts.IndentWidth
	if !opts.UseTabs {
		return strings.Repeat(" ", width)
	}
	return strings.Repeat("\t", width/opts.TabWidth) + strings.Repeat(" ", width%opts.TabWidth)
}

// trimIndent removes up to units indent levels from the start of line and
// returns the rest. A tab that straddles the cut is expanded to spaces.
func trimIndent(line string, units int, opts IndentOptions) string {
	if units <= 0 {
		return line
	}
	want := units * opts.IndentWidth
	col := 0
	for i := 0; i < len(line); i++ {
		if col >= want {
			return line[i:]
		}
		switch line[i] {
		case ' ':
			col++
		case '\t':
			next := col + opts.TabWidth - col%opts.TabWidth
			if next > want {
				return strings.Repeat(" ", next-want) + line[i+1:]
			}
			col = next
		default:
			return line[i:]
		}
	}
	return ""
}

// ChangeIndent re-indents code whose first line starts at indent level
// fromUnits so it continues at newIndent. The first line is left untouched;
// every following non-blank line loses fromUnits levels and gains newIndent.
// Line terminators are replaced by newline.
func ChangeIndent(code string, fromUnits int, opts IndentOptions, newIndent, newline string) string {
	opts, _ = opts.Normalize()
	lines := SplitLines(code)
	if len(lines) <= 1 {
		return code
	}
	var b strings.Builder
	b.Grow(len(code) + len(lines)*len(newIndent))
	b.WriteString(lines[0])
	for _, line := range lines[1:] {
		b.WriteString(newline)
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(newIndent)
		b.WriteString(trimIndent(line, fromUnits, opts))
	}
	return b.String()
}

// TrimLeadingIndent removes the indentation of the first line of code.
func TrimLeadingIndent(code string) string {
	return code[len(LeadingWhitespace(code)):]
}

// SplitLines splits s on LF and CRLF terminators. The terminators are not
// included in the result.
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
