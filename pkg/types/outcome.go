package types

// OutcomeStatus is the terminal state of one file's trip through the
// copy-verify-retry-compress sequence.
type OutcomeStatus string

const (
	// StatusCopied means the file was copied and hash-verified but not
	// compressed (compression disabled, skipped, or failed).
	StatusCopied OutcomeStatus = "copied"

	// StatusCompressedAndVerified means the verified copy was also
	// compressed by the archiver.
	StatusCompressedAndVerified OutcomeStatus = "compressed"

	// StatusFailedAfterRetries means every copy attempt failed hash
	// verification or errored; the file is recorded in the failure log.
	StatusFailedAfterRetries OutcomeStatus = "failed"

	// StatusSkipped means the path was not a regular file (for example a
	// directory passed in error) and nothing was done.
	StatusSkipped OutcomeStatus = "skipped"
)

// BackupOutcome is the per-file result returned by the executor. The run
// coordinator folds successful outcomes into the updated manifest; failed
// ones are reflected only in the failure log and the run summary.
type BackupOutcome struct {
	RelativePath string
	Status       OutcomeStatus

	// Attempts is the number of copy attempts consumed.
	Attempts int

	// FinalHash is the verified content hash of the destination copy.
	// Empty unless the outcome is a success.
	FinalHash string

	// Err holds the terminal error for failed outcomes.
	Err error
}

// Success reports whether the file made it into the backup.
func (o BackupOutcome) Success() bool {
	return o.Status == StatusCopied || o.Status == StatusCompressedAndVerified
}
