package executor_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazbak/hazbak/pkg/executor"
	"github.com/hazbak/hazbak/pkg/hashutil"
	"github.com/hazbak/hazbak/pkg/testutil"
	"github.com/hazbak/hazbak/pkg/types"
)

func record(rel, content string) types.FileRecord {
	return types.FileRecord{
		RelativePath: rel,
		Size:         int64(len(content)),
		ContentHash:  hashutil.CalculateBytesChecksum([]byte(content)),
	}
}

func TestProcessCopiesAndVerifies(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{
		"a.txt":        "alpha",
		"docs/b.txt":   "bravo",
		"docs/c/d.txt": "delta",
	})

	exec := executor.New(executor.Options{FS: fs})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
		record("docs/b.txt", "bravo"),
		record("docs/c/d.txt", "delta"),
	})

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.Equal(t, types.StatusCopied, o.Status, o.RelativePath)
		assert.Equal(t, 1, o.Attempts, o.RelativePath)
		assert.True(t, o.Success())
	}

	data, err := fs.ReadFile("/dest/docs/c/d.txt")
	require.NoError(t, err)
	assert.Equal(t, "delta", string(data))
}

func TestProcessReportsFinalHash(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	exec := executor.New(executor.Options{FS: fs})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, hashutil.CalculateBytesChecksum([]byte("alpha")), outcomes[0].FinalHash)
}

func TestProcessHashesUnhashedRecords(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	exec := executor.New(executor.Options{FS: fs})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		{RelativePath: "a.txt", Size: 5},
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusCopied, outcomes[0].Status)
	assert.Equal(t, hashutil.CalculateBytesChecksum([]byte("alpha")), outcomes[0].FinalHash)
}

func TestRetryBoundOnPersistentMismatch(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	var logBuf bytes.Buffer
	exec := executor.New(executor.Options{
		FS:          fs,
		MaxAttempts: 3,
		FailureLog:  executor.NewFailureLog(&logBuf),
	})

	// The stored fingerprint disagrees with the file's actual content, so
	// every verification fails the same way.
	rec := types.FileRecord{
		RelativePath: "a.txt",
		ContentHash:  hashutil.CalculateBytesChecksum([]byte("stale")),
	}
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{rec})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusFailedAfterRetries, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Attempts)
	require.Error(t, outcomes[0].Err)

	lines := strings.Split(strings.TrimRight(logBuf.String(), "\n"), "\n")
	require.Len(t, lines, 1, "exactly one failure line per failed file")
	assert.Contains(t, lines[0], "a.txt")
	assert.Contains(t, lines[0], "attempts=3")
}

func TestUnreadableSourceFails(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})
	fs.WithReadError("/src/a.txt", assert.AnError)

	var logBuf bytes.Buffer
	exec := executor.New(executor.Options{FS: fs, FailureLog: executor.NewFailureLog(&logBuf)})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusFailedAfterRetries, outcomes[0].Status)
	assert.Equal(t, executor.DefaultMaxAttempts, outcomes[0].Attempts)
	assert.NotEmpty(t, logBuf.String())
}

func TestDirectoryRecordSkipped(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/src/subdir", 0755))

	exec := executor.New(executor.Options{FS: fs})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		{RelativePath: "subdir"},
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusSkipped, outcomes[0].Status)
	assert.False(t, outcomes[0].Success())
}

func TestFailureDoesNotAbortBatch(t *testing.T) {
	fs := testutil.NewMemoryFS()
	files := map[string]string{
		"one.txt":   "1",
		"two.txt":   "2",
		"three.txt": "3",
		"four.txt":  "4",
		"five.txt":  "5",
	}
	testutil.CreateMemoryTree(t, fs, "/src", files)
	fs.WithReadError("/src/three.txt", assert.AnError)

	var logBuf bytes.Buffer
	exec := executor.New(executor.Options{
		FS:         fs,
		Workers:    2,
		FailureLog: executor.NewFailureLog(&logBuf),
	})

	var records []types.FileRecord
	for rel, content := range files {
		records = append(records, record(rel, content))
	}
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", records)

	require.Len(t, outcomes, 5)
	var ok, failed int
	for _, o := range outcomes {
		if o.Success() {
			ok++
		} else {
			failed++
			assert.Equal(t, "three.txt", o.RelativePath)
		}
	}
	assert.Equal(t, 4, ok)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimRight(logBuf.String(), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestCompressionMarksOutcome(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	archiver := &testutil.FakeArchiver{}
	exec := executor.New(executor.Options{FS: fs, Archiver: archiver})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusCompressedAndVerified, outcomes[0].Status)
	assert.Equal(t, []string{"/dest/a.txt"}, archiver.CompressedPaths())
}

func TestCompressionSkipLeavesCopied(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	exec := executor.New(executor.Options{FS: fs, Archiver: &testutil.FakeArchiver{Skip: true}})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusCopied, outcomes[0].Status)
}

func TestCompressionFailureKeepsVerifiedCopy(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	exec := executor.New(executor.Options{FS: fs, Archiver: &testutil.FakeArchiver{Err: assert.AnError}})
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", []types.FileRecord{
		record("a.txt", "alpha"),
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusCopied, outcomes[0].Status)
	assert.True(t, outcomes[0].Success())

	data, err := fs.ReadFile("/dest/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestProcessParallelWorkers(t *testing.T) {
	fs := testutil.NewMemoryFS()
	files := make(map[string]string, 40)
	for _, c := range "abcdefghijklmnopqrst" {
		files[string(c)+".txt"] = strings.Repeat(string(c), 10)
		files["nested/"+string(c)+".txt"] = strings.Repeat(string(c), 20)
	}
	testutil.CreateMemoryTree(t, fs, "/src", files)

	exec := executor.New(executor.Options{FS: fs, Workers: 8})
	var records []types.FileRecord
	for rel, content := range files {
		records = append(records, record(rel, content))
	}
	outcomes := exec.ProcessAll(context.Background(), "/src", "/dest", records)

	require.Len(t, outcomes, len(files))
	for _, o := range outcomes {
		assert.Equal(t, types.StatusCopied, o.Status, o.RelativePath)
	}
}

func TestProcessCancelledContext(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/src", map[string]string{"a.txt": "alpha"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := executor.New(executor.Options{FS: fs})
	outcomes := exec.ProcessAll(ctx, "/src", "/dest", []types.FileRecord{record("a.txt", "alpha")})

	// Files never started produce no outcome; the channel still closes.
	assert.Empty(t, outcomes)
}

func TestFlagDeletedRenamesPlainCopy(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/dest", map[string]string{"gone.txt": "old"})

	exec := executor.New(executor.Options{FS: fs})
	require.NoError(t, exec.FlagDeleted("/dest", "gone.txt"))

	_, err := fs.Stat("/dest/gone.txt")
	assert.Error(t, err)
	data, err := fs.ReadFile("/dest/gone.txt" + executor.DeletedSuffix)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestFlagDeletedRenamesCompressedArtifact(t *testing.T) {
	fs := testutil.NewMemoryFS()
	testutil.CreateMemoryTree(t, fs, "/dest", map[string]string{"gone.txt.xz": "packed"})

	exec := executor.New(executor.Options{FS: fs})
	require.NoError(t, exec.FlagDeleted("/dest", "gone.txt"))

	_, err := fs.Stat("/dest/gone.txt.xz")
	assert.Error(t, err)
	_, err = fs.Stat("/dest/gone.txt.xz" + executor.DeletedSuffix)
	assert.NoError(t, err)
}

func TestFlagDeletedMissingCopyIsNoop(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/dest", 0755))

	exec := executor.New(executor.Options{FS: fs})
	assert.NoError(t, exec.FlagDeleted("/dest", "never-there.txt"))
}
