package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/db"
)

type countingResolver struct {
	calls int
	book  *book.Book
}

func (c *countingResolver) Resolve(context.Context, string) (*book.Book, error) {
	c.calls++
	return c.book, nil
}

func TestCachedResolver(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "litdl.db"))
	require.NoError(t, err)
	defer store.Close()

	next := &countingResolver{book: &book.Book{
		Meta:  book.Meta{Title: "Cached"},
		Kind:  book.KindImage,
		Pages: []book.PagePart{{Width: 1, Height: 2, Extension: "jpg"}},
	}}
	r := NewCachedResolver(next, store, time.Hour, zaptest.NewLogger(t).Sugar())

	for i := 0; i < 3; i++ {
		b, err := r.Resolve(context.Background(), "u")
		require.NoError(t, err)
		assert.Equal(t, "Cached", b.Meta.Title)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedResolverSkipsEmptyBooks(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "litdl.db"))
	require.NoError(t, err)
	defer store.Close()

	next := &countingResolver{book: &book.Book{Kind: book.KindText}}
	r := NewCachedResolver(next, store, time.Hour, zaptest.NewLogger(t).Sugar())

	_, err = r.Resolve(context.Background(), "u")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedResolverDisabled(t *testing.T) {
	next := &countingResolver{book: &book.Book{Kind: book.KindAudio, Tracks: []book.AudioPart{{}}}}
	r := NewCachedResolver(next, nil, time.Hour, zaptest.NewLogger(t).Sugar())

	_, err := r.Resolve(context.Background(), "u")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
