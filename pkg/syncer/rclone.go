// Package syncer runs the pre-processing operations that materialize
// source roots before a backup run: cloud pulls and remote dedupe via an
// external rclone process. The pipeline itself takes no responsibility
// for network transfer correctness; a failed operation is a warning, not
// a fatal error.
package syncer

import (
	"context"
	"os"
	"os/exec"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/types"
)

// Supported operation names.
const (
	OpDedupe       = "rclone-dedupe"
	OpSyncGoogle   = "rclone-sync-google"
	OpSyncOneDrive = "rclone-sync-onedrive"
)

// DefaultBandwidthLimit throttles uploads during the day and opens up at
// night, in rclone's timetable syntax.
const DefaultBandwidthLimit = "20M:2G"

// Options configures the rclone invocation.
type Options struct {
	// BandwidthLimit is passed as --bwlimit; empty uses the default.
	BandwidthLimit string
}

// Rclone implements types.Syncer by invoking the rclone binary.
type Rclone struct {
	bwLimit string

	// run invokes the external process; replaced in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewRclone creates an rclone-backed syncer.
func NewRclone(opts Options) *Rclone {
	bwLimit := opts.BandwidthLimit
	if bwLimit == "" {
		bwLimit = DefaultBandwidthLimit
	}
	return &Rclone{bwLimit: bwLimit, run: runCommand}
}

// commonSyncArgs are applied to every sync transfer: fast listing,
// parallel streams, and server-side delete during transfer.
func (r *Rclone) commonSyncArgs() []string {
	return []string{
		"--bwlimit=" + r.bwLimit,
		"--fast-list",
		"--multi-thread-streams=10",
		"--delete-during",
		"-P",
	}
}

var _ types.Syncer = (*Rclone)(nil)

// Run executes one pre-processing operation. Unknown operation names and
// non-zero exits are per-operation errors; the caller decides whether to
// continue with remaining operations.
func (r *Rclone) Run(ctx context.Context, op types.SyncOperation) error {
	logger := logging.GetLogger("syncer")

	args, err := r.buildArgs(op)
	if err != nil {
		return err
	}

	logger.Info().
		Str("operation", op.Operation).
		Str("source", op.Source).
		Str("dest", op.Dest).
		Msg("Running pre-processing operation")

	if err := r.run(ctx, "rclone", args...); err != nil {
		return errors.Wrapf(err, errors.ErrSync, "rclone %s failed", op.Operation)
	}
	return nil
}

// buildArgs translates a configured operation into an rclone argument
// vector.
func (r *Rclone) buildArgs(op types.SyncOperation) ([]string, error) {
	switch op.Operation {
	case OpDedupe:
		if op.Dest == "" {
			return nil, errors.Newf(errors.ErrConfigValid, "%s requires a dest", op.Operation)
		}
		return []string{"dedupe", "rename", op.Dest}, nil

	case OpSyncGoogle:
		return r.syncArgs(op, "--drive-acknowledge-abuse")

	case OpSyncOneDrive:
		return r.syncArgs(op, "--onedrive-delta")

	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unknown pre-processing operation %q", op.Operation)
	}
}

func (r *Rclone) syncArgs(op types.SyncOperation, providerSwitch string) ([]string, error) {
	if op.Source == "" || op.Dest == "" {
		return nil, errors.Newf(errors.ErrConfigValid, "%s requires source and dest", op.Operation)
	}
	args := []string{"sync", providerSwitch}
	args = append(args, r.commonSyncArgs()...)
	args = append(args, op.Source, op.Dest)
	return args, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
