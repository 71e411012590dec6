package hashutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256 of the empty string
const emptyChecksum = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestCalculateFileChecksum(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty_file",
			content:  "",
			expected: emptyChecksum,
		},
		{
			name:     "hello",
			content:  "hello",
			expected: "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tempDir, tt.name)
			require.NoError(t, os.WriteFile(testFile, []byte(tt.content), 0644))

			checksum, err := CalculateFileChecksum(testFile)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, checksum)
		})
	}
}

func TestChecksumDeterministicAcrossCodePaths(t *testing.T) {
	content := "some file content\nwith two lines\n"
	testFile := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(testFile, []byte(content), 0644))

	fromFile, err := CalculateFileChecksum(testFile)
	require.NoError(t, err)

	fromReader, err := CalculateChecksum(strings.NewReader(content))
	require.NoError(t, err)

	fromBytes := CalculateBytesChecksum([]byte(content))

	assert.Equal(t, fromFile, fromReader)
	assert.Equal(t, fromFile, fromBytes)
	assert.Len(t, fromFile, 71) // "sha256:" + 64 hex chars
}

func TestCalculateFileChecksumMissingFile(t *testing.T) {
	_, err := CalculateFileChecksum(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
