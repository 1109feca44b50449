package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/billmal071/litdl/internal/downloader"
	"github.com/billmal071/litdl/internal/host"
	"github.com/billmal071/litdl/internal/notify"
	"github.com/billmal071/litdl/internal/pipeline"
	"github.com/billmal071/litdl/internal/render"
	"github.com/billmal071/litdl/internal/tui"
)

// newSession loads the saved session, logging in through a browser when
// interactive is set and the saved one is not valid
func newSession(ctx context.Context, interactive bool) (*host.Session, error) {
	session, err := host.NewSession(cfg.Host, cfg.Network, logger)
	if err != nil {
		return nil, err
	}

	var login host.LoginFunc
	if interactive {
		login = host.BrowserLogin
	}
	if err := session.Authenticate(ctx, login); err != nil {
		return nil, fmt.Errorf("%w (run 'litdl login')", err)
	}
	return session, nil
}

func newRenderer() *render.Renderer {
	return render.New(cfg.Render, cfg.Downloads.Formats, os.Stderr, logger)
}

// newProcessor wires the resolve, download and render stages to one session
func newProcessor(ctx context.Context, interactive bool) (*pipeline.Processor, *notify.Notifier, error) {
	session, err := newSession(ctx, interactive)
	if err != nil {
		return nil, nil, err
	}

	opts := downloader.OptionsFromConfig(cfg.Network)
	opts.HTTPClient = session.HTTPClient(cfg.Network.Timeout)
	opts.Header = session.Header()
	fetcher := downloader.NewClient(opts, logger)

	manager := downloader.NewManager(fetcher, downloader.Options{
		Host:       session.BaseURL(),
		MaxWorkers: cfg.Downloads.MaxWorkers,
		Progress:   os.Stderr,
	}, logger)

	notifier := notify.New(cfg.Downloads.Notifications, logger)
	proc := pipeline.New(
		pipeline.NewCachedResolver(
			host.NewClient(session, cfg.Network.Timeout, logger),
			store,
			cfg.Downloads.MetadataTTL,
			logger,
		),
		manager,
		newRenderer(),
		pipeline.Options{
			SourceDir: cfg.Downloads.SourceDir,
			BooksDir:  cfg.Downloads.BooksDir,
			History:   store,
			Notifier:  notifier,
		},
		logger,
	)
	return proc, notifier, nil
}

// printResult reports one processed URL on the terminal
func printResult(res pipeline.Result) {
	if res.Err != nil {
		name := res.Title
		if name == "" {
			name = res.URL
		}
		Errorf("%s: %v", name, res.Err)
		return
	}

	size := ""
	if info, err := os.Stat(res.Output); err == nil {
		size = " (" + tui.FormatSize(info.Size()) + ")"
	}
	Successf("%s saved to %s%s", res.Title, res.Output, size)
}

// processURLs runs urls through the pipeline and fails if any book failed
func processURLs(ctx context.Context, urls []string, interactive bool) error {
	proc, notifier, err := newProcessor(ctx, interactive)
	if err != nil {
		return err
	}
	defer notifier.Wait()

	results := proc.ProcessAll(ctx, urls)
	failed := 0
	for _, res := range results {
		printResult(res)
		if res.Err != nil {
			failed++
		}
	}
	if len(urls) > 1 {
		notifier.BatchFinished(len(results)-failed, failed)
		fmt.Printf("\n%d saved, %d failed\n", len(results)-failed, failed)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d books failed (see 'litdl history')", failed, len(urls))
	}
	return nil
}
