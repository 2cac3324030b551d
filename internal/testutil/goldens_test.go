package testutil

import (
	"os"
	"testing"
)

func TestRewriteGoldenCasesDiscovered(t *testing.T) {
	cases, err := RewriteGoldenCases()
	if err != nil {
		t.Fatalf("RewriteGoldenCases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("expected at least one rewrite golden case")
	}

	for _, c := range cases {
		for _, p := range []string{c.InputPath, c.ScriptPath, c.ExpectedPath} {
			if _, err := os.Stat(p); err != nil {
				t.Fatalf("fixture missing for %s: %v", c.Name, err)
			}
		}
	}
}
