package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "litdl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartCreatesAndCountsAttempts(t *testing.T) {
	s := openTestStore(t)
	const url = "https://www.litres.ru/book/a/b-1/"

	require.NoError(t, s.Start(url))
	r, err := s.Get(url)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, r.Status)
	assert.Equal(t, 1, r.Attempts)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Nil(t, r.CompletedAt)

	require.NoError(t, s.Fail(url, "boom"))
	require.NoError(t, s.Start(url))
	r, err = s.Get(url)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Attempts)
	assert.Equal(t, StatusProcessing, r.Status)
	assert.Empty(t, r.ErrorMessage, "a new attempt clears the previous error")
}

func TestCompleteAndFail(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Start("u1"))
	require.NoError(t, s.SetBook("u1", "Title", "Ivan Petrov", "image", 12))
	require.NoError(t, s.Complete("u1", "/books/Title.pdf"))

	r, err := s.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, "Title", r.Title)
	assert.Equal(t, "Ivan Petrov", r.Authors)
	assert.Equal(t, "image", r.Kind)
	assert.Equal(t, 12, r.Parts)
	assert.Equal(t, "/books/Title.pdf", r.OutputPath)
	assert.NotNil(t, r.CompletedAt)

	require.NoError(t, s.Start("u2"))
	require.NoError(t, s.Fail("u2", "missing or corrupted parts after download: [3]"))
	r, err = s.Get("u2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "missing or corrupted parts after download: [3]", r.ErrorMessage)
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndFailed(t *testing.T) {
	s := openTestStore(t)
	for _, u := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Start(u))
	}
	require.NoError(t, s.Fail("a", "x"))
	require.NoError(t, s.Complete("b", "out"))
	require.NoError(t, s.Fail("c", "y"))

	all, err := s.List("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	limited, err := s.List("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	failed, err := s.List(StatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, r := range failed {
		assert.Equal(t, StatusFailed, r.Status)
	}

	urls, err := s.Failed()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, urls)
}

func TestDeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, s.Start(u))
	}

	require.NoError(t, s.Delete("a"))
	_, err := s.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := s.List("", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litdl.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Start("kept"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	r, err := s.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Attempts)
}
