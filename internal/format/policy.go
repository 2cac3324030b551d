package format

import "bytes"

const utf8BOM = "\xEF\xBB\xBF"

// SourcePolicy captures the byte-level conventions of an input buffer that
// synthesized text must follow.
type SourcePolicy struct {
	HasBOM        bool
	Newline       string // "\n" or "\r\n"
	MixedNewlines bool
	DominantLF    int
	DominantCRLF  int
	// TabIndented and SpaceIndented count the indented lines by the first
	// byte of their indentation.
	TabIndented   int
	SpaceIndented int
}

// UsesTabs reports whether most indented lines start with a tab.
func (p SourcePolicy) UsesTabs() bool { return p.TabIndented > p.SpaceIndented }

// AnalyzeSource inspects src for a BOM, its dominant newline style and its
// indentation character.
func AnalyzeSource(src []byte) SourcePolicy {
	body := src
	policy := SourcePolicy{Newline: "\n"}
	if bytes.HasPrefix(src, []byte(utf8BOM)) {
		policy.HasBOM = true
		body = src[len(utf8BOM):]
	}

	lf, crlf := countNewlines(body)
	policy.DominantLF = lf
	policy.DominantCRLF = crlf
	switch {
	case crlf > lf:
		policy.Newline = "\r\n"
	case lf > 0:
		policy.Newline = "\n"
	case crlf > 0:
		policy.Newline = "\r\n"
	}
	policy.MixedNewlines = lf > 0 && crlf > 0
	policy.TabIndented, policy.SpaceIndented = countIndents(body)
	return policy
}

func countIndents(src []byte) (tabs, spaces int) {
	for line := range bytes.Lines(src) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		switch line[0] {
		case '\t':
			tabs++
		case ' ':
			spaces++
		}
	}
	return tabs, spaces
}

func countNewlines(src []byte) (lf, crlf int) {
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				crlf++
				i++
			}
		case '\n':
			lf++
		}
	}
	return lf, crlf
}
