package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/db"
	"github.com/billmal071/litdl/internal/downloader"
)

type fakeResolver struct {
	books map[string]*book.Book
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (*book.Book, error) {
	if b, ok := f.books[url]; ok {
		return b, nil
	}
	return nil, errors.New("unsupported URL")
}

type fakeDownloader struct {
	err   error
	panic bool
	dirs  []string
}

func (f *fakeDownloader) DownloadParts(_ context.Context, _ *book.Book, paths book.Paths) error {
	if f.panic {
		panic("worker exploded")
	}
	f.dirs = append(f.dirs, paths.Source)
	return f.err
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, b *book.Book, paths book.Paths) (string, error) {
	out := paths.OutputFile("pdf")
	return out, os.WriteFile(out, []byte(b.Meta.Title), 0644)
}

type fakeNotifier struct {
	mu     sync.Mutex
	saved  []string
	failed []string
}

func (f *fakeNotifier) BookSaved(title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, title)
}

func (f *fakeNotifier) BookFailed(title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, title)
}

type fixture struct {
	proc     *Processor
	dl       *fakeDownloader
	store    *db.Store
	notifier *fakeNotifier
	root     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store, err := db.Open(filepath.Join(root, "litdl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	resolver := &fakeResolver{books: map[string]*book.Book{
		"https://host/book/ok-1/": {
			Meta:  book.Meta{Title: "Good Book", Authors: []book.Author{{First: "Ivan", Last: "Petrov"}}},
			Kind:  book.KindImage,
			Pages: []book.PagePart{{}, {}},
		},
	}}
	f := &fixture{dl: &fakeDownloader{}, store: store, notifier: &fakeNotifier{}, root: root}
	f.proc = New(resolver, f.dl, fakeRenderer{}, Options{
		SourceDir: filepath.Join(root, "source"),
		BooksDir:  filepath.Join(root, "books"),
		History:   store,
		Notifier:  f.notifier,
	}, zaptest.NewLogger(t).Sugar())
	return f
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t)

	res := f.proc.Process(context.Background(), "https://host/book/ok-1/")
	require.NoError(t, res.Err)
	assert.Equal(t, "Good Book", res.Title)
	assert.Equal(t, book.KindImage, res.Kind)
	assert.Equal(t, filepath.Join(f.root, "books", "Good Book.pdf"), res.Output)
	assert.FileExists(t, res.Output)
	assert.Equal(t, []string{filepath.Join(f.root, "source", "Good Book")}, f.dl.dirs)

	rec, err := f.store.Get("https://host/book/ok-1/")
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, rec.Status)
	assert.Equal(t, "Ivan Petrov", rec.Authors)
	assert.Equal(t, 2, rec.Parts)
	assert.Equal(t, res.Output, rec.OutputPath)
	assert.Equal(t, []string{"Good Book"}, f.notifier.saved)
}

func TestProcessResolveFailure(t *testing.T) {
	f := newFixture(t)

	res := f.proc.Process(context.Background(), "https://host/unknown")
	require.Error(t, res.Err)
	assert.Empty(t, f.dl.dirs)

	rec, err := f.store.Get("https://host/unknown")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "failed to resolve book")
	assert.Equal(t, []string{"https://host/unknown"}, f.notifier.failed)
}

func TestProcessIncompleteDownload(t *testing.T) {
	f := newFixture(t)
	f.dl.err = &downloader.IncompleteError{Missing: []int{1}}

	res := f.proc.Process(context.Background(), "https://host/book/ok-1/")
	require.ErrorIs(t, res.Err, downloader.ErrIncomplete)
	assert.Empty(t, res.Output)

	rec, err := f.store.Get("https://host/book/ok-1/")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "missing or corrupted parts after download: [1]")
	assert.Equal(t, []string{"Good Book"}, f.notifier.failed)
}

func TestProcessRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.dl.panic = true

	var res Result
	require.NotPanics(t, func() {
		res = f.proc.Process(context.Background(), "https://host/book/ok-1/")
	})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "worker exploded")

	rec, err := f.store.Get("https://host/book/ok-1/")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFailed, rec.Status)
}

func TestProcessAllContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)

	results := f.proc.ProcessAll(context.Background(), []string{"https://host/unknown", "https://host/book/ok-1/"})
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	failed, err := f.store.Failed()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://host/unknown"}, failed)
}

func TestProcessAllStopsWhenCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.proc.ProcessAll(ctx, []string{"https://host/book/ok-1/"})
	assert.Empty(t, results)
}

func TestProcessWithoutHistory(t *testing.T) {
	resolver := &fakeResolver{books: map[string]*book.Book{
		"u": {Meta: book.Meta{Title: "T"}, Kind: book.KindText},
	}}
	root := t.TempDir()
	p := New(resolver, &fakeDownloader{}, fakeRenderer{}, Options{
		SourceDir: filepath.Join(root, "src"),
		BooksDir:  filepath.Join(root, "out"),
	}, zaptest.NewLogger(t).Sugar())

	start := time.Unix(100, 0)
	calls := 0
	p.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}

	res := p.Process(context.Background(), "u")
	require.NoError(t, res.Err)
	assert.Equal(t, time.Second, res.Duration)
}
