package paths_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazbak/hazbak/pkg/paths"
)

func newTestPaths(t *testing.T) *paths.Paths {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(tempDir, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(tempDir, "config"))
	t.Setenv(paths.EnvStateDir, filepath.Join(tempDir, "state"))

	p, err := paths.New()
	require.NoError(t, err)
	return p
}

func TestEnvironmentOverrides(t *testing.T) {
	p := newTestPaths(t)

	assert.True(t, strings.HasSuffix(p.DataDir(), "data"))
	assert.True(t, strings.HasSuffix(p.ConfigDir(), "config"))
	assert.True(t, strings.HasSuffix(p.StateDir(), "state"))
	assert.Equal(t, filepath.Join(p.StateDir(), paths.FailureLogName), p.FailureLogPath())
	assert.Equal(t, filepath.Join(p.ConfigDir(), paths.ConfigFileName), p.ConfigFilePath())
}

func TestManifestPathDeterministic(t *testing.T) {
	p := newTestPaths(t)
	src := t.TempDir()

	first, err := p.ManifestPath(src)
	require.NoError(t, err)
	second, err := p.ManifestPath(src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(first, paths.ManifestSuffix))
	assert.Equal(t, p.ManifestDir(), filepath.Dir(first))
}

func TestManifestPathDistinguishesSameBaseName(t *testing.T) {
	p := newTestPaths(t)
	rootA := filepath.Join(t.TempDir(), "photos")
	rootB := filepath.Join(t.TempDir(), "photos")

	pathA, err := p.ManifestPath(rootA)
	require.NoError(t, err)
	pathB, err := p.ManifestPath(rootB)
	require.NoError(t, err)

	assert.NotEqual(t, pathA, pathB)
}

func TestManifestPathSanitizesBaseName(t *testing.T) {
	p := newTestPaths(t)

	path, err := p.ManifestPath(filepath.Join(t.TempDir(), "my photos & docs"))
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.NotContains(t, base, " ")
	assert.NotContains(t, base, "&")
}
