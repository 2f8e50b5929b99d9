// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// SetupTestProject creates a temporary project with a file-backed profile
// store and a small CSV feed, returning the project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	profiles := filepath.Join(tmpDir, ".gridstyle", "profiles")
	if err := os.MkdirAll(profiles, 0o755); err != nil {
		t.Fatalf("failed to create profiles dir: %v", err)
	}

	defaultProfile := `[
  {"id": "neg", "name": "Negative red", "enabled": true, "priority": 1,
   "expression": "[change] < 0",
   "formatting": {"style": {"color": "#c62828"}},
   "scope": {"target": "cell", "applyToColumns": ["change"]}},
  {"id": "pos", "name": "Positive green", "enabled": true, "priority": 2,
   "expression": "[change] > 0",
   "formatting": {"style": {"color": "#2e7d32"}},
   "scope": {"target": "cell", "applyToColumns": ["change"]}}
]`
	if err := os.WriteFile(filepath.Join(profiles, "default.json"), []byte(defaultProfile), 0o644); err != nil {
		t.Fatalf("failed to create default profile: %v", err)
	}

	feed := "symbol,change,status\nAAPL,1.5,open\nMSFT,-2,open\nGME,0,halted\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "feed.csv"), []byte(feed), 0o644); err != nil {
		t.Fatalf("failed to create feed: %v", err)
	}

	return tmpDir
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
