// Package config loads hazbak's layered configuration: embedded defaults,
// then the user's config file, then HAZBAK_ environment variables, each
// layer overriding the previous key by key.
package config

import (
	"github.com/hazbak/hazbak/pkg/types"
)

// Config is the fully merged configuration for a run.
type Config struct {
	Backup   BackupConfig           `koanf:"backup"`
	Compress CompressConfig         `koanf:"compress"`
	Sync     SyncConfig             `koanf:"sync"`
	Mappings []types.StorageMapping `koanf:"mappings"`
	PreOps   []types.SyncOperation  `koanf:"preops"`
}

// BackupConfig tunes the copy pipeline.
type BackupConfig struct {
	// MaxAttempts bounds copy retries per file.
	MaxAttempts int `koanf:"max_attempts"`

	// Workers bounds concurrent hashing and copying.
	Workers int `koanf:"workers"`

	// AllowWeakCompare permits size and modification time comparison when
	// the prior manifest carries no content hashes.
	AllowWeakCompare bool `koanf:"allow_weak_compare"`
}

// CompressConfig tunes post-copy compression.
type CompressConfig struct {
	Enabled bool `koanf:"enabled"`

	// MinSize is the smallest file worth compressing, in bytes.
	MinSize int64 `koanf:"min_size"`

	// SkipExtensions lists already-compressed formats, without dots.
	SkipExtensions []string `koanf:"skip_extensions"`
}

// SyncConfig tunes the pre-processing rclone operations.
type SyncConfig struct {
	// BandwidthLimit is rclone's --bwlimit value.
	BandwidthLimit string `koanf:"bandwidth_limit"`
}
