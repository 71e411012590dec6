// Package types defines the core data model shared across hazbak: file
// fingerprints, manifests, storage mappings, diff and backup outcomes, and
// the interfaces (FS, Archiver, Syncer) that let the pipeline be tested
// without touching the real filesystem or spawning processes.
package types
