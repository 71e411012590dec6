// Package differ classifies every path known to either a fresh scan or
// the prior manifest as unchanged, modified, added, or deleted. It is
// pure: it never touches the filesystem or the destination.
package differ

import (
	"sort"

	"github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/types"
)

// Options controls classification behavior.
type Options struct {
	// AllowWeakCompare permits falling back to size+modTime equality
	// when the scan skipped hashing. The default refuses weak input:
	// a hash mismatch is the only trusted modification signal, so a
	// hashless scan cannot produce a trustworthy delta unless the
	// caller opts in.
	AllowWeakCompare bool
}

// Diff partitions paths into the four disjoint sets. The current scan and
// prior manifest together define the universe: every path in either
// appears in exactly one set.
//
// When prior is nil (no manifest yet), every scanned file is Added.
func Diff(current *types.ScanResult, prior *types.Manifest, opts Options) (*types.DiffResult, error) {
	if !current.Hashed && !opts.AllowWeakCompare {
		return nil, errors.New(errors.ErrWeakCompareRefused,
			"scan skipped hashing and weak size+modTime comparison is not allowed")
	}

	result := &types.DiffResult{Weak: !current.Hashed}

	for rel, rec := range current.Records {
		if prior == nil {
			result.Added = append(result.Added, rel)
			continue
		}

		prev, known := prior.Get(rel)
		if !known {
			result.Added = append(result.Added, rel)
			continue
		}

		if same(rec, prev, current.Hashed) {
			result.Unchanged = append(result.Unchanged, rel)
		} else {
			result.Modified = append(result.Modified, rel)
		}
	}

	if prior != nil {
		for rel := range prior.Files {
			if _, stillThere := current.Records[rel]; !stillThere {
				result.Deleted = append(result.Deleted, rel)
			}
		}
	}

	sort.Strings(result.Unchanged)
	sort.Strings(result.Modified)
	sort.Strings(result.Added)
	sort.Strings(result.Deleted)
	return result, nil
}

// same reports whether a scanned record matches its manifest entry.
// With hashes present the content hash is decisive; size and modTime
// are hints only. Without hashes the weak signals are all there is.
func same(cur, prev types.FileRecord, hashed bool) bool {
	if hashed {
		if !prev.Hashed() {
			// Prior state has no hash to compare against; treat as
			// modified so the next manifest gains a hash.
			return false
		}
		return cur.ContentHash == prev.ContentHash
	}
	return cur.Size == prev.Size && cur.ModTime.Equal(prev.ModTime)
}
