package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtensions_RecursiveAndSorted(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	for _, rel := range []string{"b.hcl", "a.yml", "nested/c.yaml", "nested/ignore.txt"} {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	// Act
	files, err := FindFilesByExtensions(dir, ".hcl", ".yml", ".yaml")

	// Assert
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)
}

func TestFindFilesByExtensions_SingleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "only.hcl")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	files, err := FindFilesByExtensions(path, ".hcl")

	require.NoError(t, err)
	require.Equal(t, []string{path}, files)
}

// TestFindFilesByExtensions_RejectsUnmatchedFile verifies that pointing at
// a single file of an unsupported format is a clear error rather than a
// silent passthrough to the wrong parser.
func TestFindFilesByExtensions_RejectsUnmatchedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := FindFilesByExtensions(path, ".hcl", ".yml", ".yaml")

	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file")
	require.Contains(t, err.Error(), ".hcl, .yml, .yaml")
}

func TestFindFilesByExtensions_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtensions(filepath.Join(t.TempDir(), "nope"), ".hcl")

	require.Error(t, err)
}

func TestFindFilesByExtensions_NoExtensionsPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = FindFilesByExtensions(t.TempDir())
	})
}
