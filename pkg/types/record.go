package types

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileRecord is the fingerprint of one regular file under a source root.
// RelativePath is the stable identity key across runs; it is always
// slash-separated regardless of the host OS.
type FileRecord struct {
	RelativePath string    `json:"relativePath"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"modTime"`

	// ContentHash is a "sha256:<hex>" digest of the full file contents.
	// Empty only when the record was built for a comparison pass that
	// skipped hashing.
	ContentHash string `json:"contentHash"`
}

// Hashed reports whether this record carries a content hash.
func (r FileRecord) Hashed() bool {
	return r.ContentHash != ""
}

// NormalizeRelPath converts an OS-specific relative path to the canonical
// slash-separated form used as a manifest key.
func NormalizeRelPath(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimPrefix(rel, "./")
}

// Manifest is the last known state of all files under one source root,
// keyed by relative path.
type Manifest struct {
	// Root is the absolute source root this manifest describes.
	Root string

	Files map[string]FileRecord
}

// NewManifest creates an empty manifest for the given source root.
func NewManifest(root string) *Manifest {
	return &Manifest{
		Root:  root,
		Files: make(map[string]FileRecord),
	}
}

// Upsert inserts or replaces the record for its relative path.
func (m *Manifest) Upsert(rec FileRecord) {
	if m.Files == nil {
		m.Files = make(map[string]FileRecord)
	}
	m.Files[rec.RelativePath] = rec
}

// Remove deletes the record for the given relative path, if present.
func (m *Manifest) Remove(relPath string) {
	delete(m.Files, relPath)
}

// Get returns the record for the given relative path.
func (m *Manifest) Get(relPath string) (FileRecord, bool) {
	rec, ok := m.Files[relPath]
	return rec, ok
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	return len(m.Files)
}

// Paths returns all relative paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	clone := NewManifest(m.Root)
	for p, rec := range m.Files {
		clone.Files[p] = rec
	}
	return clone
}
