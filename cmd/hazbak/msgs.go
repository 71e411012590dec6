package hazbak

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort = "An incremental local backup tool"
	MsgRootLong = `hazbak mirrors configured source directories into backup destinations,
copying only what changed since the last run. Every copy is verified by
re-reading and re-hashing it before the manifest is updated.`

	MsgRunShort = "Run a backup over all configured mappings"
	MsgRunLong = `Run scans every configured source directory, compares it against the
stored manifest, and copies changed files into the backup destination.
Files that vanished from the source are flagged for review, never
deleted.`

	MsgScanShort = "Fingerprint a directory without backing it up"
	MsgScanLong = `Scan walks a directory and prints its fingerprint summary: file count,
total size, and any unreadable files. Useful for checking what a mapping
would cover before configuring it.`

	MsgDiffShort = "Show pending changes without copying anything"
	MsgDiffLong = `Diff compares every configured source against its stored manifest and
lists the files a run would copy, flag as deleted, or leave alone.`

	MsgSyncShort = "Run the configured pre-processing operations only"
	MsgSyncLong = `Sync executes the configured rclone pre-processing operations (cloud
pulls, remote dedupe) without running a backup afterwards.`

	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgGenConfigShort  = "Print the default configuration"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without copying anything"
	MsgFlagSync    = "Run pre-processing operations before backing up"
	MsgFlagConfig  = "Config file (default is $XDG_CONFIG_HOME/hazbak/hazbak.toml)"
	MsgFlagNoHash  = "Skip content hashing, fingerprint by size and mtime only"

	// Error messages
	MsgErrNoCommand   = "no command specified"
	MsgErrNoMappings  = "no storage mappings configured, nothing to back up"
	MsgErrFilesFailed = "%d file(s) permanently failed, see %s"
)
