package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/litdl/internal/book"
)

func TestCachedBookRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	const url = "https://www.litres.ru/book/a/b-1/"
	b := &book.Book{
		Meta:     book.Meta{Title: "Cached", Authors: []book.Author{{First: "Anna"}}},
		Kind:     book.KindText,
		BaseURL:  "/download_book_subscr/1/2/",
		Chapters: []book.TextPart{{URL: "001.txt"}},
	}

	got, err := s.GetCachedBook(url)
	require.NoError(t, err)
	assert.Nil(t, got, "miss before saving")

	require.NoError(t, s.SaveCachedBook(url, b, time.Hour))
	got, err = s.GetCachedBook(" " + url + " ")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	now = now.Add(2 * time.Hour)
	got, err = s.GetCachedBook(url)
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries are misses")
}

func TestCacheMaintenance(t *testing.T) {
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SaveCachedBook("short", &book.Book{}, time.Minute))
	require.NoError(t, s.SaveCachedBook("long", &book.Book{}, time.Hour))
	now = now.Add(10 * time.Minute)

	total, expired, err := s.CacheStats()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, expired)

	n, err := s.CleanExpiredCache()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.ClearCache())
	total, _, err = s.CacheStats()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("u"), CacheKey(" u\n"))
	assert.NotEqual(t, CacheKey("u1"), CacheKey("u2"))
	assert.Len(t, CacheKey("u"), 32)
}
