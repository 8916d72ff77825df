// Package testsupport provides shared helpers for package tests: a
// ready-to-use configuration rooted in a temporary workspace and small
// fixture writers.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// NewConfig returns a validated configuration rooted in a fresh temporary
// workspace with all stage directories created.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Workspace.RootDir = filepath.Join(t.TempDir(), "workspace")
	cfg.Workspace.InputDir = ""
	cfg.Workspace.AudioDir = ""
	cfg.Workspace.TextDir = ""
	cfg.Workspace.RecordDir = ""
	cfg.Workspace.StructuredDir = ""
	cfg.Workspace.LogDir = ""
	cfg.Structuring.APIKey = "sk-test"
	cfg.Structuring.RequestDelaySeconds = 0

	normalized, err := config.Finalize(cfg)
	if err != nil {
		t.Fatalf("finalize test config: %v", err)
	}
	if err := normalized.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test workspace: %v", err)
	}
	return normalized
}

// WriteFile creates a file with the given content, creating parents as
// needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
