// Package testutil provides shared test infrastructure: an in-memory
// types.FS with error injection, tree builders for real and in-memory
// filesystems, environment isolation, and fake collaborators.
package testutil
