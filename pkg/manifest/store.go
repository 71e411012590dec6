// Package manifest persists the last known state of each source root as a
// versioned JSON document. The store owns persistence exclusively; no
// other component writes manifest files.
package manifest

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/types"
)

// FormatVersion is the current manifest document version. Documents with
// an unknown version are rejected as corrupt rather than reinterpreted.
const FormatVersion = 1

// document is the on-disk shape of a manifest.
type document struct {
	Version int                         `json:"version"`
	Root    string                      `json:"root"`
	SavedAt time.Time                   `json:"savedAt"`
	Files   map[string]types.FileRecord `json:"files"`
}

// Store loads and saves manifests at locations derived from each source
// root by the Pather.
type Store struct {
	fs    types.FS
	paths pather
}

// pather is the slice of paths.Paths the store needs.
type pather interface {
	ManifestDir() string
	ManifestPath(sourceRoot string) (string, error)
}

// NewStore creates a manifest store.
func NewStore(fsys types.FS, p pather) *Store {
	return &Store{fs: fsys, paths: p}
}

// Load reads the manifest for sourceRoot. A missing manifest is not an
// error: it returns (nil, nil) and means "no prior state", so the caller
// treats every scanned file as added. A malformed manifest is an error
// fatal to this source root only.
func (s *Store) Load(sourceRoot string) (*types.Manifest, error) {
	path, err := s.paths.ManifestPath(sourceRoot)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			logger := logging.GetLogger("manifest")
			logger.Debug().
				Str("root", sourceRoot).
				Str("path", path).
				Msg("No prior manifest, treating as initial backup")
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrManifestRead, "cannot read manifest %s", path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestCorrupt, "manifest %s is not valid JSON", path)
	}
	if doc.Version != FormatVersion {
		return nil, errors.Newf(errors.ErrManifestCorrupt,
			"manifest %s has unsupported version %d", path, doc.Version)
	}

	m := types.NewManifest(doc.Root)
	for rel, rec := range doc.Files {
		// The map key is authoritative; keep records self-consistent.
		rec.RelativePath = rel
		m.Files[rel] = rec
	}
	return m, nil
}

// Save atomically replaces the manifest for sourceRoot: the document is
// written to a temporary file in the same directory and renamed over the
// previous one, so a crash mid-write never corrupts the last valid state.
func (s *Store) Save(sourceRoot string, m *types.Manifest) error {
	path, err := s.paths.ManifestPath(sourceRoot)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.paths.ManifestDir(), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot create manifest directory")
	}

	doc := document{
		Version: FormatVersion,
		Root:    m.Root,
		SavedAt: time.Now().UTC(),
		Files:   m.Files,
	}

	data, err := marshalDocument(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "cannot encode manifest")
	}

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.tmp", filepath.Base(path)))
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot write manifest %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		// Leave no half-written temp file behind.
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot replace manifest %s", path)
	}

	logger := logging.GetLogger("manifest")
	logger.Debug().
		Str("root", sourceRoot).
		Str("path", path).
		Int("files", m.Len()).
		Msg("Manifest saved")
	return nil
}

// marshalDocument renders the document with sorted keys and indentation
// so manifests stay human-inspectable and diff-friendly.
func marshalDocument(doc document) ([]byte, error) {
	// encoding/json sorts map keys already; indent for inspectability.
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// SortedPaths returns the manifest's paths in deterministic order,
// mirroring the on-disk key order.
func SortedPaths(m *types.Manifest) []string {
	paths := make([]string, 0, m.Len())
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}
