// Package core wires the backup pipeline together: pre-processing sync,
// then scan, diff, execute and manifest update for each configured
// storage mapping in turn. One mapping's fatal error never stops the
// next mapping.
package core

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hazbak/hazbak/pkg/archiver"
	"github.com/hazbak/hazbak/pkg/config"
	"github.com/hazbak/hazbak/pkg/differ"
	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/executor"
	"github.com/hazbak/hazbak/pkg/filesystem"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/manifest"
	"github.com/hazbak/hazbak/pkg/paths"
	"github.com/hazbak/hazbak/pkg/scanner"
	"github.com/hazbak/hazbak/pkg/syncer"
	"github.com/hazbak/hazbak/pkg/types"
)

// RunOptions carries everything a backup run needs. FS, Syncer and
// Archiver have production defaults and exist as fields for tests.
type RunOptions struct {
	Config *config.Config
	Paths  *paths.Paths

	// DryRun reports what a run would do without copying or updating
	// manifests.
	DryRun bool

	// Sync runs the configured pre-processing operations first.
	Sync bool

	FS       types.FS
	Syncer   types.Syncer
	Archiver types.Archiver

	// OnMapping is called before each mapping is processed. Used by the
	// CLI for progress reporting; nil is fine.
	OnMapping func(m types.StorageMapping)
}

// Run executes a full backup run over every configured mapping.
func Run(ctx context.Context, opts RunOptions) (*types.RunResult, error) {
	logger := logging.GetLogger("core")

	if opts.Config == nil {
		return nil, errors.New(errors.ErrInternal, "run options carry no configuration")
	}
	if opts.Paths == nil {
		p, err := paths.New()
		if err != nil {
			return nil, err
		}
		opts.Paths = p
	}
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}

	result := &types.RunResult{
		Started: time.Now(),
		DryRun:  opts.DryRun,
	}
	defer func() {
		result.Duration = time.Since(result.Started)
	}()

	if opts.Sync {
		runPreOps(ctx, opts, logger)
	}

	failureLog, closeLog, err := openFailureLog(opts)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	arch := opts.Archiver
	if arch == nil && opts.Config.Compress.Enabled && !opts.DryRun {
		arch = archiver.NewXZ(archiver.Config{
			MinSize:        opts.Config.Compress.MinSize,
			SkipExtensions: opts.Config.Compress.SkipExtensions,
		})
	}

	for _, mapping := range opts.Config.Mappings {
		if err := ctx.Err(); err != nil {
			logger.Warn().Msg("Run interrupted, remaining mappings skipped")
			break
		}
		if opts.OnMapping != nil {
			opts.OnMapping(mapping)
		}
		result.Mappings = append(result.Mappings, processMapping(ctx, opts, mapping, arch, failureLog))
	}

	logger.Info().
		Int("mappings", len(result.Mappings)).
		Bool("dry_run", opts.DryRun).
		Dur("duration", time.Since(result.Started)).
		Msg("Run finished")
	return result, nil
}

// runPreOps executes the configured pre-processing operations. A failed
// operation is a warning; sources that did not materialize simply back
// up whatever is on disk.
func runPreOps(ctx context.Context, opts RunOptions, logger zerolog.Logger) {
	sync := opts.Syncer
	if sync == nil {
		sync = syncer.NewRclone(syncer.Options{
			BandwidthLimit: opts.Config.Sync.BandwidthLimit,
		})
	}

	for _, op := range opts.Config.PreOps {
		if ctx.Err() != nil {
			return
		}
		if opts.DryRun {
			logger.Info().Str("operation", op.Operation).Msg("Dry run, pre-processing operation skipped")
			continue
		}
		if err := sync.Run(ctx, op); err != nil {
			logger.Warn().Err(err).Str("operation", op.Operation).Msg("Pre-processing operation failed")
		}
	}
}

// openFailureLog opens the append-only failure log. The log is a real
// os file regardless of the injected FS: it is an operator-facing audit
// artifact, not backup data. Dry runs get no log.
func openFailureLog(opts RunOptions) (*executor.FailureLog, func(), error) {
	if opts.DryRun {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(opts.Paths.StateDir(), 0755); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrFailureLog, "cannot create state directory")
	}
	f, err := os.OpenFile(opts.Paths.FailureLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrFailureLog, "cannot open failure log")
	}
	return executor.NewFailureLog(f), func() { _ = f.Close() }, nil
}

// processMapping runs one mapping through scan, diff, execute and
// manifest save. A fatal error is recorded on the MappingResult and the
// caller moves on.
func processMapping(ctx context.Context, opts RunOptions, mapping types.StorageMapping, arch types.Archiver, failureLog *executor.FailureLog) types.MappingResult {
	logger := logging.GetLogger("core")
	started := time.Now()
	res := types.MappingResult{Mapping: mapping}
	defer func() {
		res.Duration = time.Since(started)
	}()

	logger.Info().Str("source", mapping.Source).Str("dest", mapping.Dest).Msg("Processing mapping")

	scan, err := scanner.New(opts.FS).Scan(ctx, mapping.Source, scanner.Options{
		Hash:    true,
		Workers: opts.Config.Backup.Workers,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Warnings = len(scan.Warnings)

	store := manifest.NewStore(opts.FS, opts.Paths)
	prior, err := store.Load(mapping.Source)
	if err != nil {
		res.Err = err
		return res
	}

	diff, err := differ.Diff(scan, prior, differ.Options{
		AllowWeakCompare: opts.Config.Backup.AllowWeakCompare,
	})
	if err != nil {
		res.Err = err
		return res
	}

	res.Unchanged = len(diff.Unchanged)
	logger.Info().
		Int("unchanged", len(diff.Unchanged)).
		Int("modified", len(diff.Modified)).
		Int("added", len(diff.Added)).
		Int("deleted", len(diff.Deleted)).
		Msg("Change detection complete")

	if opts.DryRun {
		res.Copied = len(diff.Changed())
		res.Deleted = len(diff.Deleted)
		return res
	}

	exec := executor.New(executor.Options{
		FS:          opts.FS,
		Archiver:    arch,
		FailureLog:  failureLog,
		MaxAttempts: opts.Config.Backup.MaxAttempts,
		Workers:     opts.Config.Backup.Workers,
	})

	records := make([]types.FileRecord, 0, len(diff.Changed()))
	for _, rel := range diff.Changed() {
		records = append(records, scan.Records[rel])
	}

	// Fold outcomes into the next manifest as they arrive. This loop is
	// the only writer; the manifest is never touched concurrently.
	next := foldStart(scan, diff)
	for outcome := range exec.Process(ctx, mapping.Source, mapping.Dest, records) {
		switch {
		case outcome.Success():
			rec := scan.Records[outcome.RelativePath]
			rec.ContentHash = outcome.FinalHash
			next.Upsert(rec)
			res.Copied++
		case outcome.Status == types.StatusSkipped:
			res.Warnings++
		default:
			res.Failed++
			if prior != nil {
				if prev, ok := prior.Get(outcome.RelativePath); ok {
					next.Upsert(prev)
				}
			}
		}
	}

	for _, rel := range diff.Deleted {
		if err := exec.FlagDeleted(mapping.Dest, rel); err != nil {
			logger.Warn().Err(err).Str("path", rel).Msg("Cannot flag deleted file")
			res.Warnings++
			continue
		}
		res.Deleted++
	}

	// Save even after interruption: completed work is durable, files
	// never processed are still absent and will be retried next run.
	if err := store.Save(mapping.Source, next); err != nil {
		res.Err = err
		return res
	}

	return res
}

// foldStart seeds the next manifest with everything that needs no copy:
// unchanged files keep their fresh fingerprints.
func foldStart(scan *types.ScanResult, diff *types.DiffResult) *types.Manifest {
	next := types.NewManifest(scan.Root)
	for _, rel := range diff.Unchanged {
		next.Upsert(scan.Records[rel])
	}
	return next
}
