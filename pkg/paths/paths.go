// Package paths provides centralized path handling for hazbak.
// It implements XDG Base Directory specification compliance and derives
// the on-disk manifest location for each source root deterministically,
// so repeated runs address the same manifest file.
package paths

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/hazbak/hazbak/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for hazbak
	EnvDataDir = "HAZBAK_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for hazbak
	EnvConfigDir = "HAZBAK_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for hazbak
	EnvStateDir = "HAZBAK_STATE_DIR"
)

// Directory and file names. These define hazbak's durable layout and are
// not user-configurable.
const (
	// AppDirName is the directory name for hazbak-specific files
	AppDirName = "hazbak"

	// ManifestsDir is the subdirectory holding per-source manifests
	ManifestsDir = "manifests"

	// ManifestSuffix is the fixed suffix of manifest documents
	ManifestSuffix = ".manifest.json"

	// FailureLogName is the append-only log of permanently failed files
	FailureLogName = "failures.log"

	// LogFileName is the name of the debug log file
	LogFileName = "hazbak.log"

	// ConfigFileName is the default configuration file name
	ConfigFileName = "hazbak.toml"
)

// Paths provides centralized path management for hazbak.
type Paths struct {
	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a Paths instance, respecting environment overrides.
func New() (*Paths, error) {
	p := &Paths{}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, AppDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if stateDir := os.Getenv(EnvStateDir); stateDir != "" {
		p.xdgState = expandHome(stateDir)
	} else {
		p.xdgState = filepath.Join(xdg.StateHome, AppDirName)
	}

	return p, nil
}

// DataDir returns the XDG data directory for hazbak.
func (p *Paths) DataDir() string {
	return p.xdgData
}

// ConfigDir returns the XDG config directory for hazbak.
func (p *Paths) ConfigDir() string {
	return p.xdgConfig
}

// StateDir returns the XDG state directory for hazbak.
func (p *Paths) StateDir() string {
	return p.xdgState
}

// ManifestDir returns the directory holding per-source manifests.
func (p *Paths) ManifestDir() string {
	return filepath.Join(p.xdgData, ManifestsDir)
}

// ManifestPath derives the manifest location for a source root. The name
// combines the sanitized base name with a short digest of the absolute
// path, so distinct roots with the same base name never collide while
// repeated runs always address the same file.
func (p *Paths) ManifestPath(sourceRoot string) (string, error) {
	abs, err := filepath.Abs(sourceRoot)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve source root %s", sourceRoot)
	}

	base := sanitizeName(filepath.Base(abs))
	digest := sha256.Sum256([]byte(abs))
	name := fmt.Sprintf("%s-%x%s", base, digest[:4], ManifestSuffix)
	return filepath.Join(p.ManifestDir(), name), nil
}

// FailureLogPath returns the append-only log of permanently failed files.
func (p *Paths) FailureLogPath() string {
	return filepath.Join(p.xdgState, FailureLogName)
}

// LogFilePath returns the debug log location.
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// ConfigFilePath returns the default configuration file location.
func (p *Paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// sanitizeName makes a directory base name safe for use as a file name
// component.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "root"
	}
	return b.String()
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
