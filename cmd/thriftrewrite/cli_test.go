package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	twoStructs = "struct A {\n  1: i32 a;\n  2: i32 b;\n}\n\nstruct B {\n  1: i32 c;\n}\n"
	movedB     = "struct A {\n  1: i32 a;\n}\n\nstruct B {\n  1: i32 c;\n  2: i32 b;\n}\n"
	moveScript = "edits:\n  - op: move\n    target: A.b\n    into: B\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(stdin), &out, &errb, args)
	return code, out.String(), errb.String()
}

func TestApplyPrintsRewrittenFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "apply", "--script", sc, in)
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, movedB, out)

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, twoStructs, string(data), "input must stay untouched without --write")
}

func TestApplyReadsStdin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)

	code, out, errOut := runCLI(t, twoStructs, "apply", "-s", sc, "--stdin")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, movedB, out)
}

func TestApplyWritesFilesInPlace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	first := writeFile(t, dir, "first.thrift", twoStructs)
	second := writeFile(t, dir, "second.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "apply", "-s", sc, "--write", first, second)
	require.Equal(t, exitOK, code, errOut)
	assert.Empty(t, out)

	for _, p := range []string{first, second} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, movedB, string(data), p)
	}
}

func TestApplyCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "apply", "-s", sc, "--check", in)
	assert.Equal(t, exitCheck, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, in+": would rewrite")

	noop := writeFile(t, dir, "noop.yaml", "edits: []\n")
	code, _, errOut = runCLI(t, "", "apply", "-s", noop, "--check", in)
	assert.Equal(t, exitOK, code, errOut)
}

func TestApplyDiff(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "apply", "-s", sc, "--diff", "--color", "never", in)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "+++ b/"+in+"\n")
	assert.Contains(t, out, "-  2: i32 b;\n")
	assert.Contains(t, out, "+  2: i32 b;\n")
}

func TestApplyInputEdits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", "edits:\n  - op: rename\n    target: A\n    name: Alpha\n")
	in := writeFile(t, dir, "x.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "apply", "-s", sc, "--input-edits", in)
	require.Equal(t, exitOK, code, errOut)

	var got []fileEdits
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0].Path)
	require.Len(t, got[0].Edits, 1)
	e := got[0].Edits[0]
	assert.Equal(t, uint(7), e.StartByte)
	assert.Equal(t, uint(8), e.OldEndByte)
	assert.Equal(t, uint(12), e.NewEndByte)
}

func TestApplyRefusesBrokenSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)

	code, _, errOut := runCLI(t, "const string X = 'unterminated\n", "apply", "-s", sc, "--stdin")
	assert.Equal(t, exitUnsafe, code)
	assert.Contains(t, errOut, "unterminated string literal")
}

func TestApplyReportsScriptErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "x.thrift", twoStructs)
	missing := writeFile(t, dir, "missing.yaml", "edits:\n  - op: remove\n    target: A.zzz\n")
	invalid := writeFile(t, dir, "invalid.yaml", "edits:\n  - op: explode\n")

	code, _, errOut := runCLI(t, "", "apply", "-s", missing, in)
	assert.Equal(t, exitInternal, code)
	assert.Contains(t, errOut, "edit 1 (remove A.zzz)")

	code, _, errOut = runCLI(t, "", "apply", "-s", invalid, in)
	assert.Equal(t, exitInternal, code)
	assert.Contains(t, errOut, `unknown op "explode"`)
}

func TestApplyRejectsInvalidUsage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no script", args: []string{"apply", in}, want: "script"},
		{name: "no input", args: []string{"apply", "-s", sc}, want: "at least one input file"},
		{name: "stdin with paths", args: []string{"apply", "-s", sc, "--stdin", in}, want: "not allowed with --stdin"},
		{name: "several files to stdout", args: []string{"apply", "-s", sc, in, in}, want: "not supported"},
		{name: "write and check", args: []string{"apply", "-s", sc, "--write", "--check", in}, want: "check"},
		{name: "bad color", args: []string{"apply", "-s", sc, "--color", "rainbow", in}, want: "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, errOut := runCLI(t, "", tt.args...)
			assert.Equal(t, exitInternal, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestConfigFileSetsLogLevel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)
	cfg := writeFile(t, dir, ".thriftrewrite.yaml", "log_level: debug\n")

	code, out, errOut := runCLI(t, "", "--config", cfg, "apply", "-s", sc, in)
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, movedB, out)
	assert.Contains(t, errOut, "edit recorded")
	assert.Contains(t, errOut, "file rewritten")
}

func TestEditsCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sc := writeFile(t, dir, "edits.yaml", moveScript)
	in := writeFile(t, dir, "x.thrift", twoStructs)

	code, out, errOut := runCLI(t, "", "edits", "-s", sc, in)
	require.Equal(t, exitOK, code, errOut)
	assert.True(t, strings.HasPrefix(out, "Multi("), out)
	assert.Contains(t, out, "MoveSource(")
	assert.Contains(t, out, "MoveTarget(")
	assert.Contains(t, out, "groups:\n  move A.b: ")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "", "version")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "thriftrewrite")
	assert.Contains(t, out, version)
}
