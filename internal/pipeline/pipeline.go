package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/metrics"
)

// Resolver turns a URL into a book description
type Resolver interface {
	Resolve(ctx context.Context, url string) (*book.Book, error)
}

// Downloader fetches the parts of a book into its source directory
type Downloader interface {
	DownloadParts(ctx context.Context, b *book.Book, paths book.Paths) error
}

// Renderer assembles downloaded parts and returns the output path
type Renderer interface {
	Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error)
}

// History records the outcome of every processed URL
type History interface {
	Start(url string) error
	SetBook(url, title, authors, kind string, parts int) error
	Complete(url, outputPath string) error
	Fail(url, errMsg string) error
}

// Notifier reports finished books to the user
type Notifier interface {
	BookSaved(title, path string)
	BookFailed(title, reason string)
}

// Options configures a Processor. History and Notifier are optional.
type Options struct {
	SourceDir string
	BooksDir  string
	History   History
	Notifier  Notifier
}

// Result is the outcome of processing one URL
type Result struct {
	URL      string
	Title    string
	Kind     book.Kind
	Output   string
	Duration time.Duration
	Err      error
}

// Processor runs one URL through resolve, download and render
type Processor struct {
	resolver   Resolver
	downloader Downloader
	renderer   Renderer
	opts       Options
	log        *zap.SugaredLogger
	now        func() time.Time
}

// New creates a processor
func New(resolver Resolver, downloader Downloader, renderer Renderer, opts Options, log *zap.SugaredLogger) *Processor {
	return &Processor{
		resolver:   resolver,
		downloader: downloader,
		renderer:   renderer,
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Process handles one URL. Every failure, including a panic inside a stage,
// is returned in the result rather than propagated.
func (p *Processor) Process(ctx context.Context, url string) (res Result) {
	start := p.now()
	res.URL = url

	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("Panic while processing book", "url", url, "panic", r, "stack", string(debug.Stack()))
			res.Err = fmt.Errorf("panic while processing %s: %v", url, r)
		}
		res.Duration = p.now().Sub(start)
		p.finish(&res)
	}()

	p.record("start", func(h History) error { return h.Start(url) })

	b, err := p.resolver.Resolve(ctx, url)
	if err != nil {
		res.Err = fmt.Errorf("failed to resolve book: %w", err)
		return res
	}
	res.Title, res.Kind = b.Meta.Title, b.Kind
	p.log.Infow("Book resolved",
		"title", b.Meta.Title,
		"authors", b.Meta.AuthorNames(),
		"kind", b.Kind,
		"parts", b.TotalParts(),
	)
	p.record("metadata", func(h History) error {
		return h.SetBook(url, b.Meta.Title, b.Meta.AuthorNames(), string(b.Kind), b.TotalParts())
	})

	paths, err := book.NewPaths(b.Meta.Title, p.opts.SourceDir, p.opts.BooksDir)
	if err != nil {
		res.Err = err
		return res
	}

	if err := p.downloader.DownloadParts(ctx, b, paths); err != nil {
		res.Err = fmt.Errorf("download failed: %w", err)
		return res
	}

	out, err := p.renderer.Render(ctx, b, paths)
	if err != nil {
		res.Err = fmt.Errorf("render failed: %w", err)
		return res
	}
	res.Output = out
	return res
}

// ProcessAll handles urls one after another and stops early only when ctx
// is cancelled
func (p *Processor) ProcessAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, 0, len(urls))
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		results = append(results, p.Process(ctx, u))
	}
	return results
}

func (p *Processor) finish(res *Result) {
	name := res.Title
	if name == "" {
		name = res.URL
	}

	if res.Err != nil {
		outcome := "failed"
		if errors.Is(res.Err, context.Canceled) {
			outcome = "cancelled"
		}
		metrics.IncBookProcessed(outcome)
		p.log.Errorw("Book processing failed", "url", res.URL, "title", res.Title, "error", res.Err)
		p.record("failure", func(h History) error { return h.Fail(res.URL, res.Err.Error()) })
		if p.opts.Notifier != nil {
			p.opts.Notifier.BookFailed(name, res.Err.Error())
		}
		return
	}

	metrics.IncBookProcessed("completed")
	metrics.ObserveBookDuration(string(res.Kind), res.Duration)
	p.log.Infow("Book saved", "title", res.Title, "path", res.Output, "duration", res.Duration.Round(time.Millisecond))
	p.record("completion", func(h History) error { return h.Complete(res.URL, res.Output) })
	if p.opts.Notifier != nil {
		p.opts.Notifier.BookSaved(name, res.Output)
	}
}

// record writes to history; history errors never fail a book
func (p *Processor) record(what string, fn func(History) error) {
	if p.opts.History == nil {
		return
	}
	if err := fn(p.opts.History); err != nil {
		p.log.Warnw("Failed to update history", "stage", what, "error", err)
	}
}
