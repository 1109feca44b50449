package downloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func TestListDownloaded(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0.jpg", "10.mp3", "2.txt", "3.jpg.part", "abc.txt", "-1.txt", "cover.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "5"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "images"), 0755))

	got, err := ListDownloaded(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 10}, got)
}

func TestListDownloadedExcept(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0.txt", "1.txt", "2.txt")

	got, err := ListDownloaded(dir, "1.txt")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)
}

func TestListDownloadedMissingDir(t *testing.T) {
	got, err := ListDownloaded(filepath.Join(t.TempDir(), "nope"), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMissingIndices(t *testing.T) {
	assert.Equal(t, []int{1, 3, 4}, missingIndices(5, []int{0, 2, 7}))
	assert.Empty(t, missingIndices(0, nil))
	assert.Empty(t, missingIndices(2, []int{0, 1}))
}

func TestVerifyComplete(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0.jpg", "2.jpg")

	err := VerifyComplete(dir, 3)
	require.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "[1]")

	touch(t, dir, "1.jpg")
	assert.NoError(t, VerifyComplete(dir, 3))
}
