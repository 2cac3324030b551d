// Package testutil provides shared helpers for repository tests.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Fixture file names inside a rewrite golden case directory.
const (
	InputFile    = "input.thrift"
	ScriptFile   = "script.yaml"
	ExpectedFile = "expected.thrift"
)

// GoldenCase is a rewrite fixture: an input document, the edit script applied
// to it and the expected output.
type GoldenCase struct {
	Name         string
	InputPath    string
	ScriptPath   string
	ExpectedPath string
}

// RepoRoot returns the repository root by walking up from this source file.
func RepoRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("runtime.Caller failed")
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("repository root not found")
		}
		dir = parent
	}
}

// MustRepoRoot returns the repository root or fails the test.
func MustRepoRoot(t testing.TB) string {
	t.Helper()
	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	return root
}

// RewriteGoldenCases returns sorted rewrite fixtures from testdata/rewrite.
// Every case directory must hold all three fixture files.
func RewriteGoldenCases() ([]GoldenCase, error) {
	root, err := RepoRoot()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, "testdata", "rewrite")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rewrite fixtures: %w", err)
	}

	var cases []GoldenCase
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		caseDir := filepath.Join(dir, e.Name())
		c := GoldenCase{
			Name:         e.Name(),
			InputPath:    filepath.Join(caseDir, InputFile),
			ScriptPath:   filepath.Join(caseDir, ScriptFile),
			ExpectedPath: filepath.Join(caseDir, ExpectedFile),
		}
		for _, p := range []string{c.InputPath, c.ScriptPath, c.ExpectedPath} {
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("rewrite fixture %s: %w", e.Name(), err)
			}
		}
		cases = append(cases, c)
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// ReadFile reads a fixture file or fails the test.
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return b
}
