// Package archiver delegates compression of verified backup copies to an
// external xz process with a fixed high-compression profile. Compression
// is best-effort: a process failure is a recoverable per-file error and
// never invalidates the already-verified copy.
package archiver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/types"
)

// DefaultMinSize is the smallest file worth compressing, in bytes.
// Anything below this costs more in container overhead than it saves.
const DefaultMinSize = 120

// DefaultSkipExtensions lists formats that are already compressed and
// gain nothing from another pass.
var DefaultSkipExtensions = []string{
	"jpeg", "jpg", "gif", "png",
	"bmp", "tiff", "tif", "avi",
	"mp4", "mpeg", "mp3",
	"wav", "flac", "mkv", "pdf",
	"zip", "rar", "7z", "gz",
	"xz", "tar", "iso",
}

// Suffix is appended to compressed artifacts.
const Suffix = ".xz"

// Config tunes the skip heuristics.
type Config struct {
	// MinSize is the minimum file size to compress; 0 uses DefaultMinSize.
	MinSize int64

	// SkipExtensions replaces DefaultSkipExtensions when non-nil.
	SkipExtensions []string
}

// XZ implements types.Archiver by invoking the xz binary. On success the
// plain copy is consumed and replaced by <path>.xz, matching xz's own
// behavior without -k.
type XZ struct {
	minSize int64
	skip    map[string]bool

	// run invokes the external process; replaced in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewXZ creates an xz-backed archiver.
func NewXZ(cfg Config) *XZ {
	minSize := cfg.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	exts := cfg.SkipExtensions
	if exts == nil {
		exts = DefaultSkipExtensions
	}

	skip := make(map[string]bool, len(exts))
	for _, e := range exts {
		skip[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	return &XZ{
		minSize: minSize,
		skip:    skip,
		run:     runCommand,
	}
}

var _ types.Archiver = (*XZ)(nil)

// Compress compresses path in place with a high-ratio profile. Files
// below the size threshold or with an already-compressed extension are
// left alone and reported with ok=false.
func (x *XZ) Compress(ctx context.Context, path string) (string, bool, error) {
	logger := logging.GetLogger("archiver")

	info, err := os.Stat(path)
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrArchive, "cannot stat %s", path)
	}

	if !x.worthCompressing(path, info.Size()) {
		logger.Debug().Str("path", path).Int64("size", info.Size()).Msg("Skipping compression")
		return path, false, nil
	}

	// -f overwrites a stale artifact from an interrupted earlier run.
	if err := x.run(ctx, "xz", "-9", "-e", "-T0", "-q", "-f", path); err != nil {
		return "", false, errors.Wrapf(err, errors.ErrArchive, "xz failed for %s", path)
	}

	artifact := path + Suffix
	logger.Debug().Str("path", path).Str("artifact", artifact).Msg("File compressed")
	return artifact, true, nil
}

// worthCompressing applies the size and extension heuristics.
func (x *XZ) worthCompressing(path string, size int64) bool {
	if size < x.minSize {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		// Extensionless files (and dotfiles) get compressed.
		return true
	}
	return !x.skip[ext]
}

// runCommand executes an external process, inheriting nothing.
func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}
