// Package executor copies changed files into the backup destination and
// proves each copy by re-hashing it. The per-file sequence is
// copy -> verify -> compress with a bounded retry on verification
// mismatch; one file's failure never aborts the batch.
package executor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/filesystem"
	"github.com/hazbak/hazbak/pkg/hashutil"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/types"
)

// DefaultMaxAttempts bounds the copy retry loop.
const DefaultMaxAttempts = 3

// DeletedSuffix marks destination copies whose source file disappeared.
// Flagged copies await operator review; hazbak never deletes backup data.
const DeletedSuffix = ".del"

// Options configures an Executor.
type Options struct {
	// FS defaults to the OS filesystem.
	FS types.FS

	// Archiver compresses verified copies; nil disables compression.
	Archiver types.Archiver

	// FailureLog receives one line per permanently failed file.
	// Nil discards failure lines (tests); production passes the
	// append-only failure log.
	FailureLog *FailureLog

	// MaxAttempts bounds copy retries; values below 1 use the default.
	MaxAttempts int

	// Workers bounds concurrent copy/verify work; values below 1 run
	// sequentially.
	Workers int

	// Logger overrides the package logger when set.
	Logger *zerolog.Logger
}

// Executor processes the changed set of one storage mapping.
type Executor struct {
	fs          types.FS
	archiver    types.Archiver
	failureLog  *FailureLog
	maxAttempts int
	workers     int
	logger      zerolog.Logger
}

// New creates an executor instance.
func New(opts Options) *Executor {
	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := logging.GetLogger("executor")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Executor{
		fs:          fs,
		archiver:    opts.Archiver,
		failureLog:  opts.FailureLog,
		maxAttempts: maxAttempts,
		workers:     workers,
		logger:      logger,
	}
}

// Process copies every record into destRoot and streams outcomes as files
// finish. The channel is closed when the batch is done or the context is
// cancelled; files never started produce no outcome at all, so a partial
// run folds only completed work. Consumers must drain the channel.
func (e *Executor) Process(ctx context.Context, srcRoot, destRoot string, records []types.FileRecord) <-chan types.BackupOutcome {
	out := make(chan types.BackupOutcome)

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)

		for _, rec := range records {
			if gctx.Err() != nil {
				break
			}
			rec := rec
			g.Go(func() error {
				outcome := e.processFile(gctx, srcRoot, destRoot, rec)
				select {
				case out <- outcome:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// ProcessAll is Process with the outcomes collected into a slice.
func (e *Executor) ProcessAll(ctx context.Context, srcRoot, destRoot string, records []types.FileRecord) []types.BackupOutcome {
	var outcomes []types.BackupOutcome
	for outcome := range e.Process(ctx, srcRoot, destRoot, records) {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// processFile runs the copy-verify-retry-compress state machine for one
// file.
func (e *Executor) processFile(ctx context.Context, srcRoot, destRoot string, rec types.FileRecord) types.BackupOutcome {
	rel := rec.RelativePath
	srcPath := filepath.Join(srcRoot, filepath.FromSlash(rel))
	destPath := filepath.Join(destRoot, filepath.FromSlash(rel))

	if info, err := e.fs.Stat(srcPath); err == nil && info.IsDir() {
		e.logger.Debug().Str("path", rel).Msg("Skipping directory passed as file")
		return types.BackupOutcome{RelativePath: rel, Status: types.StatusSkipped}
	}

	if err := e.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return e.fail(rel, 0, errors.Wrapf(err, errors.ErrDestCreate,
			"cannot create destination directory for %s", rel))
	}

	expected := rec.ContentHash
	var lastErr error

	attempts := 0
	for attempts < e.maxAttempts {
		if err := ctx.Err(); err != nil {
			return e.fail(rel, attempts, errors.Wrap(err, errors.ErrCopy, "cancelled"))
		}
		attempts++

		// Each attempt is independent: re-read, re-write, re-verify.
		data, err := e.fs.ReadFile(srcPath)
		if err != nil {
			lastErr = errors.Wrapf(err, errors.ErrCopy, "cannot read source %s", rel)
			continue
		}

		// The expected hash is fixed before the first copy; when the
		// scan skipped hashing it comes from the bytes just read.
		if expected == "" {
			expected = hashutil.CalculateBytesChecksum(data)
		}

		if err := e.copyAtomic(destPath, data); err != nil {
			lastErr = errors.Wrapf(err, errors.ErrCopy, "cannot write %s", rel)
			continue
		}

		actual, err := e.verify(destPath)
		if err != nil {
			lastErr = errors.Wrapf(err, errors.ErrVerify, "cannot re-read copy of %s", rel)
			continue
		}
		if actual != expected {
			lastErr = errors.Newf(errors.ErrVerify,
				"hash mismatch for %s: expected %s, got %s", rel, expected, actual)
			e.logger.Warn().
				Str("path", rel).
				Int("attempt", attempts).
				Msg("Hash verification failed, retrying")
			continue
		}

		return e.succeed(ctx, rel, destPath, actual, attempts)
	}

	return e.fail(rel, attempts,
		errors.Wrapf(lastErr, errors.ErrRetryExhaust, "giving up on %s after %d attempts", rel, attempts))
}

// copyAtomic writes data next to the destination and renames it into
// place, so a crashed copy is never readable as a finished backup.
func (e *Executor) copyAtomic(destPath string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(destPath), fmt.Sprintf(".%s.partial", filepath.Base(destPath)))
	if err := e.fs.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := e.fs.Rename(tmp, destPath); err != nil {
		_ = e.fs.Remove(tmp)
		return err
	}
	return nil
}

// verify recomputes the destination copy's hash.
func (e *Executor) verify(destPath string) (string, error) {
	data, err := e.fs.ReadFile(destPath)
	if err != nil {
		return "", err
	}
	return hashutil.CalculateBytesChecksum(data), nil
}

// succeed optionally compresses the verified copy and builds the outcome.
// A compression failure is logged and absorbed: the verified copy stands.
func (e *Executor) succeed(ctx context.Context, rel, destPath, finalHash string, attempts int) types.BackupOutcome {
	outcome := types.BackupOutcome{
		RelativePath: rel,
		Status:       types.StatusCopied,
		Attempts:     attempts,
		FinalHash:    finalHash,
	}

	if e.archiver != nil {
		artifact, ok, err := e.archiver.Compress(ctx, destPath)
		switch {
		case err != nil:
			e.logger.Warn().Err(err).Str("path", rel).Msg("Compression failed, keeping plain copy")
		case ok:
			outcome.Status = types.StatusCompressedAndVerified
			e.logger.Debug().Str("path", rel).Str("artifact", artifact).Msg("Copy compressed")
		}
	}

	e.logger.Info().
		Str("path", rel).
		Int("attempts", attempts).
		Str("status", string(outcome.Status)).
		Msg("File backed up")
	return outcome
}

// fail records a terminal per-file failure in the failure log.
func (e *Executor) fail(rel string, attempts int, err error) types.BackupOutcome {
	e.logger.Error().Err(err).Str("path", rel).Int("attempts", attempts).Msg("File permanently failed")

	if e.failureLog != nil {
		if logErr := e.failureLog.Append(rel, attempts, err); logErr != nil {
			e.logger.Error().Err(logErr).Msg("Cannot append to failure log")
		}
	}

	return types.BackupOutcome{
		RelativePath: rel,
		Status:       types.StatusFailedAfterRetries,
		Attempts:     attempts,
		Err:          err,
	}
}

// FlagDeleted marks the destination copy of a removed source file for
// operator review by renaming it with DeletedSuffix. Both the plain copy
// and a compressed artifact are considered; a missing copy is a no-op.
func (e *Executor) FlagDeleted(destRoot, rel string) error {
	destPath := filepath.Join(destRoot, filepath.FromSlash(rel))

	for _, candidate := range []string{destPath, destPath + ".xz"} {
		if _, err := e.fs.Stat(candidate); err != nil {
			continue
		}
		if err := e.fs.Rename(candidate, candidate+DeletedSuffix); err != nil {
			return errors.Wrapf(err, errors.ErrCopy, "cannot flag %s as deleted", rel)
		}
		e.logger.Info().Str("path", rel).Msg("Backup copy flagged for deletion review")
		return nil
	}

	e.logger.Debug().Str("path", rel).Msg("No backup copy to flag as deleted")
	return nil
}
