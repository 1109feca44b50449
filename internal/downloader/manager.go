package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/metrics"
)

// DefaultMaxWorkers is the worker pool size when none is configured
const DefaultMaxWorkers = 8

// Options configures a Manager
type Options struct {
	// Host is the content host root used to build part URLs
	Host       string
	MaxWorkers int
	// Progress receives the progress bar. Defaults to stderr.
	Progress io.Writer
	// Writer overrides the per-kind part writer
	Writer PartWriter
}

// Manager downloads the parts of a book into its source directory
type Manager struct {
	fetcher  Fetcher
	host     string
	workers  int
	progress io.Writer
	writer   PartWriter
	log      *zap.SugaredLogger
}

// NewManager creates a new download manager
func NewManager(fetcher Fetcher, opts Options, log *zap.SugaredLogger) *Manager {
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = DefaultMaxWorkers
	}
	progress := opts.Progress
	if progress == nil {
		progress = os.Stderr
	}

	return &Manager{
		fetcher:  fetcher,
		host:     opts.Host,
		workers:  workers,
		progress: progress,
		writer:   opts.Writer,
		log:      log,
	}
}

// DownloadParts fetches every part of b not yet present in paths.Source.
// Calling it on a complete directory is a no-op. Individual part failures
// do not stop other parts; once the pool drains the directory is rescanned
// and an *IncompleteError names whatever is still missing.
func (m *Manager) DownloadParts(ctx context.Context, b *book.Book, paths book.Paths) error {
	writer := m.writer
	if writer == nil {
		w, err := WriterFor(b.Kind, m.host, m.fetcher, m.log)
		if err != nil {
			return err
		}
		writer = w
	}

	total := b.TotalParts()
	existing, err := ListDownloaded(paths.Source, "")
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", paths.Source, err)
	}

	missing := missingIndices(total, existing)
	if len(missing) == 0 {
		m.log.Infow("All parts already downloaded", "title", b.Meta.Title, "parts", total)
		return nil
	}

	m.log.Infow("Downloading parts",
		"title", b.Meta.Title,
		"kind", b.Kind,
		"missing", len(missing),
		"total", total,
	)

	failed := m.runPool(ctx, b, writer, paths.Source, missing)

	err = VerifyComplete(paths.Source, total)
	var incomplete *IncompleteError
	if err != nil && !errors.As(err, &incomplete) {
		return err
	}
	if failed > 0 || incomplete != nil {
		if incomplete == nil {
			incomplete = &IncompleteError{Missing: []int{}}
		}
		incomplete.Failed = failed
		if ctx.Err() != nil {
			return errors.Join(ctx.Err(), incomplete)
		}
		return incomplete
	}

	m.log.Infow("Download complete", "title", b.Meta.Title, "parts", total)
	return nil
}

// runPool downloads indices with a fixed pool sized for this call and
// returns the number of failed tasks
func (m *Manager) runPool(ctx context.Context, b *book.Book, writer PartWriter, dir string, indices []int) int {
	workers := m.workers
	if workers > len(indices) {
		workers = len(indices)
	}

	bar := m.newProgressBar(len(indices))
	defer bar.Finish()

	jobs := make(chan int)
	var failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := m.runTask(ctx, b, writer, dir, idx); err != nil {
					failed.Add(1)
					metrics.IncPartFailed(string(b.Kind))
					m.log.Errorw("Part download failed", "index", idx, "error", err)
				} else {
					metrics.IncPartDownloaded(string(b.Kind))
				}
				_ = bar.Add(1)
			}
		}()
	}

feed:
	for _, idx := range indices {
		select {
		case <-ctx.Done():
			// stop dispatching; in-flight tasks drain
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	return int(failed.Load())
}

func (m *Manager) runTask(ctx context.Context, b *book.Book, writer PartWriter, dir string, idx int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			m.log.Debugw("Recovered part panic", "index", idx, "stack", string(debug.Stack()))
		}
	}()
	return writer.DownloadPart(ctx, idx, b, dir)
}

func (m *Manager) newProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(m.progress),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(m.progress) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
