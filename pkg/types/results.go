package types

import "time"

// MappingResult summarizes one storage mapping's trip through the
// pipeline. Err is set when the mapping was aborted by a fatal error;
// other mappings are unaffected.
type MappingResult struct {
	Mapping StorageMapping

	Copied    int
	Failed    int
	Unchanged int
	Deleted   int
	Warnings  int

	Duration time.Duration
	Err      error
}

// RunResult aggregates a whole run across all configured mappings.
type RunResult struct {
	Mappings []MappingResult
	Started  time.Time
	Duration time.Duration
	DryRun   bool
}

// Totals sums the per-mapping counters.
func (r *RunResult) Totals() (copied, failed, unchanged, deleted, warnings int) {
	for _, m := range r.Mappings {
		copied += m.Copied
		failed += m.Failed
		unchanged += m.Unchanged
		deleted += m.Deleted
		warnings += m.Warnings
	}
	return
}

// Failed reports whether any mapping was aborted or any file permanently
// failed.
func (r *RunResult) Failed() bool {
	for _, m := range r.Mappings {
		if m.Err != nil || m.Failed > 0 {
			return true
		}
	}
	return false
}
