package types

// ScanWarning records a file that was skipped during a scan because it
// could not be read. Warnings never abort a scan.
type ScanWarning struct {
	Path string
	Err  error
}

// ScanResult is the output of one fingerprint pass over a source root.
type ScanResult struct {
	// Root is the absolute directory that was scanned.
	Root string

	// Records maps relative path to fingerprint for every regular file
	// that was read successfully.
	Records map[string]FileRecord

	// Warnings lists files omitted from Records.
	Warnings []ScanWarning

	// Hashed indicates whether content hashing was performed for this
	// pass. When false, records carry empty ContentHash values and only
	// support weak (size+modTime) comparison.
	Hashed bool
}

// Len returns the number of scanned records.
func (s *ScanResult) Len() int {
	return len(s.Records)
}
