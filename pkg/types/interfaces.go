package types

import (
	"context"
	"io/fs"
)

// FS is the filesystem interface required for hazbak operations. The
// executor and manifest store go through it so tests can substitute an
// in-memory implementation with error injection.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Other operations
	Remove(name string) error
	Rename(oldpath, newpath string) error
}

// Pather provides the durable locations hazbak writes to.
type Pather interface {
	// ManifestDir is where per-source manifests live.
	ManifestDir() string

	// ConfigDir is the XDG config directory for hazbak.
	ConfigDir() string

	// StateDir is the XDG state directory (logs, failure log).
	StateDir() string

	// FailureLogPath is the append-only log of permanently failed files.
	FailureLogPath() string
}

// Archiver compresses one verified backup copy. Implementations invoke an
// external tool; a process error is a recoverable per-file failure and
// never retroactively fails the already-verified copy.
type Archiver interface {
	// Compress takes the path of a verified copy and returns the path of
	// the compressed artifact. When the file is not worth compressing the
	// input path is returned unchanged with ok=false.
	Compress(ctx context.Context, path string) (artifact string, ok bool, err error)
}

// SyncOperation is one configured pre-processing step executed before the
// pipeline scans its source roots.
type SyncOperation struct {
	Operation string `koanf:"operation"`
	Source    string `koanf:"source"`
	Dest      string `koanf:"dest"`
}

// Syncer runs pre-processing operations that materialize source roots
// (cloud pulls, dedupe). Failures are per-operation warnings.
type Syncer interface {
	Run(ctx context.Context, op SyncOperation) error
}
