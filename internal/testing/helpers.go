package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vsops/vsbootstrap/internal/logging"
)

// TestContext returns a context with a reasonable timeout for tests and
// logging discarded.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return logging.Discard(ctx)
}

// WriteFile creates path under dir with content, making parent directories.
func WriteFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", full, err)
	}
	return full
}

// PlatformTree creates a minimal platform directory with the database
// values file and deploy script, and returns its root.
func PlatformTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, root, "db-init/values.yaml", "auth:\n  username: verify\n")
	WriteFile(t, root, "deploy/install-all.sh", "#!/bin/sh\n")
	return root
}
