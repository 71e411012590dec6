package manifest_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hazerrors "github.com/hazbak/hazbak/pkg/errors"
	"github.com/hazbak/hazbak/pkg/manifest"
	"github.com/hazbak/hazbak/pkg/testutil"
	"github.com/hazbak/hazbak/pkg/types"
)

// fixedPaths derives manifest locations under a fixed in-memory dir.
type fixedPaths struct{}

func (fixedPaths) ManifestDir() string { return "/state/manifests" }
func (fixedPaths) ManifestPath(sourceRoot string) (string, error) {
	return "/state/manifests/test" + ".manifest.json", nil
}

func sampleManifest() *types.Manifest {
	m := types.NewManifest("/src")
	m.Upsert(types.FileRecord{
		RelativePath: "a.txt",
		Size:         5,
		ModTime:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ContentHash:  "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
	})
	m.Upsert(types.FileRecord{
		RelativePath: "docs/b.txt",
		Size:         11,
		ModTime:      time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
		ContentHash:  "sha256:deadbeef",
	})
	return m
}

func TestLoadMissingManifestIsNotAnError(t *testing.T) {
	store := manifest.NewStore(testutil.NewMemoryFS(), fixedPaths{})

	m, err := store.Load("/src")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := manifest.NewStore(fs, fixedPaths{})

	original := sampleManifest()
	require.NoError(t, store.Save("/src", original))

	loaded, err := store.Load("/src")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, original.Root, loaded.Root)
	require.Equal(t, original.Len(), loaded.Len())
	for _, p := range original.Paths() {
		want, _ := original.Get(p)
		got, ok := loaded.Get(p)
		require.True(t, ok, "path %s missing after round trip", p)
		assert.Equal(t, want.Size, got.Size)
		assert.True(t, want.ModTime.Equal(got.ModTime))
		assert.Equal(t, want.ContentHash, got.ContentHash)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := manifest.NewStore(fs, fixedPaths{})

	require.NoError(t, store.Save("/src", sampleManifest()))

	// Make the next temp-file write fail; the previous manifest must
	// survive untouched.
	fs.WithWriteError("/state/manifests/.test.manifest.json.tmp", errors.New("disk full"))

	updated := sampleManifest()
	updated.Upsert(types.FileRecord{RelativePath: "new.txt", Size: 1, ContentHash: "sha256:00"})
	err := store.Save("/src", updated)
	require.Error(t, err)
	assert.True(t, hazerrors.IsErrorCode(err, hazerrors.ErrManifestWrite))

	loaded, err := store.Load("/src")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Len())
	_, ok := loaded.Get("new.txt")
	assert.False(t, ok)
}

func TestLoadMalformedManifest(t *testing.T) {
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.WriteFile("/state/manifests/test.manifest.json", []byte("{not json"), 0644))

	_, err := manifest.NewStore(fs, fixedPaths{}).Load("/src")
	require.Error(t, err)
	assert.True(t, hazerrors.IsErrorCode(err, hazerrors.ErrManifestCorrupt))
}

func TestLoadUnsupportedVersion(t *testing.T) {
	fs := testutil.NewMemoryFS()
	doc := map[string]interface{}{"version": 99, "root": "/src", "files": map[string]interface{}{}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile("/state/manifests/test.manifest.json", data, 0644))

	_, err = manifest.NewStore(fs, fixedPaths{}).Load("/src")
	require.Error(t, err)
	assert.True(t, hazerrors.IsErrorCode(err, hazerrors.ErrManifestCorrupt))
}

func TestDocumentIsHumanInspectable(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := manifest.NewStore(fs, fixedPaths{})
	require.NoError(t, store.Save("/src", sampleManifest()))

	data, err := fs.ReadFile("/state/manifests/test.manifest.json")
	require.NoError(t, err)

	// Indented JSON with the expected top-level fields.
	assert.Contains(t, string(data), "\"version\": 1")
	assert.Contains(t, string(data), "\"a.txt\"")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "/src", doc["root"])
}
