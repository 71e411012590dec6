// Package scanner walks a source root and produces a fingerprint per
// regular file: relative path, size, modification time, and content hash.
// Unreadable files are surfaced as warnings, never as fatal errors, so a
// single bad file cannot abort a scan.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/hashutil"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/types"
)

// Options controls one scan pass.
type Options struct {
	// Hash requests content hashing. When false, records carry empty
	// hashes and only support weak comparison.
	Hash bool

	// Workers bounds parallel hashing. Values below 1 use NumCPU.
	Workers int
}

// Scanner fingerprints directory trees through a types.FS.
type Scanner struct {
	fs types.FS
}

// New creates a scanner backed by the given filesystem.
func New(fsys types.FS) *Scanner {
	return &Scanner{fs: fsys}
}

// candidate is a regular file found during the walk, prior to hashing.
type candidate struct {
	absPath string
	relPath string
	info    fs.FileInfo
}

// Scan traverses root and returns a record for every readable regular
// file. Symbolic links and other non-regular files are skipped, which
// also bounds the traversal against symlink cycles. The root itself must
// exist and be a directory.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*types.ScanResult, error) {
	logger := logging.GetLogger("scanner")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrScanRoot, "cannot resolve scan root %s", root)
	}

	info, err := s.fs.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "source root %s does not exist", absRoot)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrScanRoot, "source root %s is not a directory", absRoot)
	}

	result := &types.ScanResult{
		Root:    absRoot,
		Records: make(map[string]types.FileRecord),
		Hashed:  opts.Hash,
	}

	candidates, warnings, err := s.walk(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	result.Warnings = warnings

	logger.Debug().
		Str("root", absRoot).
		Int("files", len(candidates)).
		Bool("hash", opts.Hash).
		Msg("Walk complete")

	if !opts.Hash {
		for _, c := range candidates {
			result.Records[c.relPath] = types.FileRecord{
				RelativePath: c.relPath,
				Size:         c.info.Size(),
				ModTime:      c.info.ModTime(),
			}
		}
		return result, nil
	}

	records, hashWarnings := s.hashAll(ctx, candidates, opts.Workers)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrScanRead, "scan cancelled")
	}
	for _, rec := range records {
		result.Records[rec.RelativePath] = rec
	}
	result.Warnings = append(result.Warnings, hashWarnings...)

	for _, w := range result.Warnings {
		logger.Warn().Str("path", w.Path).Err(w.Err).Msg("File skipped during scan")
	}

	return result, nil
}

// walk recursively collects regular files under root. Unreadable
// directories produce a warning and their subtree is skipped.
func (s *Scanner) walk(ctx context.Context, root string) ([]candidate, []types.ScanWarning, error) {
	var files []candidate
	var warnings []types.ScanWarning

	var visit func(dir string) error
	visit = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrScanRead, "scan cancelled")
		}

		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			warnings = append(warnings, types.ScanWarning{Path: dir, Err: err})
			return nil
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				if err := visit(path); err != nil {
					return err
				}
				continue
			}
			// Symlinks and special files are not backed up; skipping
			// them also prevents traversal loops.
			if entry.Type() != 0 {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				warnings = append(warnings, types.ScanWarning{Path: path, Err: err})
				continue
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				warnings = append(warnings, types.ScanWarning{Path: path, Err: err})
				continue
			}

			files = append(files, candidate{
				absPath: path,
				relPath: types.NormalizeRelPath(rel),
				info:    info,
			})
		}
		return nil
	}

	if err := visit(root); err != nil {
		return nil, nil, err
	}
	return files, warnings, nil
}

// hashAll fingerprints candidates with a bounded worker pool. Files that
// cannot be read are returned as warnings and omitted from the records.
func (s *Scanner) hashAll(ctx context.Context, candidates []candidate, workers int) ([]types.FileRecord, []types.ScanWarning) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	type hashRes struct {
		rec  types.FileRecord
		warn *types.ScanWarning
	}
	results := make([]hashRes, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := s.fs.ReadFile(c.absPath)
			if err != nil {
				results[i] = hashRes{warn: &types.ScanWarning{Path: c.absPath, Err: err}}
				return nil
			}

			results[i] = hashRes{rec: types.FileRecord{
				RelativePath: c.relPath,
				Size:         c.info.Size(),
				ModTime:      c.info.ModTime(),
				ContentHash:  hashutil.CalculateBytesChecksum(data),
			}}
			return nil
		})
	}
	// Workers only return context errors; the caller checks ctx itself.
	_ = g.Wait()

	records := make([]types.FileRecord, 0, len(candidates))
	var warnings []types.ScanWarning
	for _, r := range results {
		if r.warn != nil {
			warnings = append(warnings, *r.warn)
			continue
		}
		if r.rec.RelativePath != "" {
			records = append(records, r.rec)
		}
	}
	return records, warnings
}
