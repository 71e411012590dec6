package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hazbak/hazbak/pkg/types"
)

// CreateTree materializes files under root on the real filesystem. Keys
// are slash-separated relative paths, values are file contents.
func CreateTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// CreateMemoryTree materializes files under root in a MemoryFS.
func CreateMemoryTree(t *testing.T, fs *MemoryFS, root string, files map[string]string) {
	t.Helper()
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// IsolatedPaths points hazbak's durable locations into a temp directory
// for the duration of the test.
func IsolatedPaths(t *testing.T) {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HAZBAK_DATA_DIR", filepath.Join(tempDir, "data"))
	t.Setenv("HAZBAK_CONFIG_DIR", filepath.Join(tempDir, "config"))
	t.Setenv("HAZBAK_STATE_DIR", filepath.Join(tempDir, "state"))
}

// FakeArchiver is a test double for types.Archiver that records the paths
// it was asked to compress and can be told to fail or skip. Safe for
// concurrent use by parallel executors.
type FakeArchiver struct {
	mu         sync.Mutex
	Compressed []string
	Skip       bool
	Err        error
}

func (f *FakeArchiver) Compress(_ context.Context, path string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return "", false, f.Err
	}
	if f.Skip {
		return path, false, nil
	}
	f.Compressed = append(f.Compressed, path)
	return path + ".xz", true, nil
}

// CompressedPaths returns a copy of the recorded paths.
func (f *FakeArchiver) CompressedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Compressed...)
}

var _ types.Archiver = (*FakeArchiver)(nil)
