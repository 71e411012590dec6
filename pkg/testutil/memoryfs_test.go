package testutil

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFSReadWrite(t *testing.T) {
	m := NewMemoryFS()

	require.NoError(t, m.WriteFile("/src/docs/a.txt", []byte("hello"), 0644))

	data, err := m.ReadFile("/src/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := m.Stat("/src/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	// Parents were created implicitly.
	info, err = m.Stat("/src/docs")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFSReadDirSorted(t *testing.T) {
	m := NewMemoryFS()
	for _, name := range []string{"/d/c.txt", "/d/a.txt", "/d/b.txt"} {
		require.NoError(t, m.WriteFile(name, []byte("x"), 0644))
	}

	entries, err := m.ReadDir("/d")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.Equal(t, "b.txt", entries[1].Name())
	assert.Equal(t, "c.txt", entries[2].Name())
}

func TestMemoryFSErrorInjection(t *testing.T) {
	m := NewMemoryFS()
	require.NoError(t, m.WriteFile("/src/bad.txt", []byte("x"), 0644))

	sentinel := errors.New("injected permission denied")
	m.WithReadError("/src/bad.txt", sentinel)

	_, err := m.ReadFile("/src/bad.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	// The file is still listed by its parent.
	entries, err := m.ReadDir("/src")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	m.WithWriteError("/dst/out.txt", sentinel)
	err = m.WriteFile("/dst/out.txt", []byte("y"), 0644)
	assert.ErrorIs(t, err, sentinel)
}

func TestMemoryFSRename(t *testing.T) {
	m := NewMemoryFS()
	require.NoError(t, m.WriteFile("/dst/.tmp-a", []byte("payload"), 0644))

	require.NoError(t, m.Rename("/dst/.tmp-a", "/dst/a.txt"))

	_, err := m.Stat("/dst/.tmp-a")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	data, err := m.ReadFile("/dst/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestMemoryFSSetModTime(t *testing.T) {
	m := NewMemoryFS()
	require.NoError(t, m.WriteFile("/a.txt", []byte("x"), 0644))

	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.SetModTime("/a.txt", want))

	info, err := m.Stat("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, want, info.ModTime())
}

func TestMemoryFSRemove(t *testing.T) {
	m := NewMemoryFS()
	require.NoError(t, m.WriteFile("/d/a.txt", []byte("x"), 0644))

	assert.Error(t, m.Remove("/d")) // not empty
	require.NoError(t, m.Remove("/d/a.txt"))
	require.NoError(t, m.Remove("/d"))

	_, err := m.Stat("/d")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
