package types

// DiffResult partitions every path known to either the current scan or the
// prior manifest into exactly one of four disjoint sets.
type DiffResult struct {
	Unchanged []string
	Modified  []string
	Added     []string
	Deleted   []string

	// Weak is true when the classification fell back to size+modTime
	// because the scan skipped hashing. Weak results are hints, not
	// integrity guarantees.
	Weak bool
}

// Changed returns the paths that need to be copied: Added followed by
// Modified, each group in its sorted order.
func (d *DiffResult) Changed() []string {
	changed := make([]string, 0, len(d.Added)+len(d.Modified))
	changed = append(changed, d.Added...)
	changed = append(changed, d.Modified...)
	return changed
}

// Total returns the number of classified paths.
func (d *DiffResult) Total() int {
	return len(d.Unchanged) + len(d.Modified) + len(d.Added) + len(d.Deleted)
}
