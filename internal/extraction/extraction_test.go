package extraction

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractArchive(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"model/Tower.ifc":            "ISO-10303-21;",
		"model/readme.txt":           "hello",
		"__MACOSX/model/._Tower.ifc": "junk",
		"model/.DS_Store":            "junk",
	})
	dest := filepath.Join(t.TempDir(), "out")

	files, err := ExtractArchive(context.Background(), archive, dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "model", "Tower.ifc"),
		filepath.Join(dest, "model", "readme.txt"),
	}, files)

	data, err := os.ReadFile(filepath.Join(dest, "model", "Tower.ifc"))
	require.NoError(t, err)
	assert.Equal(t, "ISO-10303-21;", string(data))

	ifc, err := FindIFC(files)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "model", "Tower.ifc"), ifc)
}

func TestExtractArchive_SingleGzippedIFC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Tower.ifc.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte("ISO-10303-21;"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())
	dest := filepath.Join(t.TempDir(), "out")

	require.True(t, IsArchive(path))
	files, err := ExtractArchive(context.Background(), path, dest)
	require.NoError(t, err)

	ifc, err := FindIFC(files)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Tower.ifc"), ifc)
	data, err := os.ReadFile(ifc)
	require.NoError(t, err)
	assert.Equal(t, "ISO-10303-21;", string(data))
}

func TestFindIFC(t *testing.T) {
	_, err := FindIFC([]string{"a.txt"})
	assert.ErrorIs(t, err, ErrNoIFC)

	_, err = FindIFC([]string{"a.ifc", "b.IFC"})
	assert.ErrorIs(t, err, ErrMultipleIFC)

	found, err := FindIFC([]string{"notes.md", "Tower.IFC"})
	require.NoError(t, err)
	assert.Equal(t, "Tower.IFC", found)
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("model.ZIP"))
	assert.True(t, IsArchive("model.ifczip"))
	assert.True(t, IsArchive("model.tar.gz"))
	assert.False(t, IsArchive("model.ifc"))
}

func TestShouldIgnore(t *testing.T) {
	tests := map[string]bool{
		"model/Tower.ifc":    false,
		"model/._Tower.ifc":  true,
		".DS_Store":          true,
		"Thumbs.db":          true,
		"__MACOSX/Tower.ifc": true,
		"model/":             true,
	}
	for name, want := range tests {
		assert.Equal(t, want, ShouldIgnore(name), name)
	}
}
