// Package filesystem provides implementations of the types.FS interface.
//
// Production code uses NewOS; tests substitute testutil.MemoryFS to
// exercise failure paths (unreadable files, failed writes) without
// touching the real filesystem.
package filesystem
