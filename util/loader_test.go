package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirectoryImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pattern__0002.png", "pattern__0000.png", "pattern__0010.jpg", "notes.txt", "other_0001.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pattern__0003.png"), 0o755))

	images, err := LoadDirectoryImageFiles(dir, PatternPrefix)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, []int{0, 2, 10}, []int{images[0].Index, images[1].Index, images[2].Index})
	assert.Equal(t, []byte("pattern__0002.png"), images[1].Data)
	assert.Equal(t, filepath.Join(dir, "pattern__0010.jpg"), images[2].Path)
}

func TestLoadDirectoryImagesErrors(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"), PatternPrefix)
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pattern__abc.png"), nil, 0o644))
	_, err = LoadDirectoryImageFiles(dir, PatternPrefix)
	assert.Error(t, err)

	dup := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dup, "pattern__1.png"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dup, "pattern__0001.png"), nil, 0o644))
	_, err = LoadDirectoryImageFiles(dup, PatternPrefix)
	assert.Error(t, err)
}
