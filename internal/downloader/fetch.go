package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/billmal071/litdl/internal/config"
	"github.com/billmal071/litdl/internal/metrics"
)

// ErrIdleTimeout is reported when a response stalls longer than the client timeout
var ErrIdleTimeout = errors.New("no data received within timeout")

// Fetcher retrieves a URL, retrying transient failures
type Fetcher interface {
	FetchWithRetry(ctx context.Context, url string) (*http.Response, error)
	// Stream fetches url and hands the body to consume. A network failure
	// while consuming counts as a failed attempt.
	Stream(ctx context.Context, url string, consume func(io.Reader) error) error
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// ClientOptions configures a Client
type ClientOptions struct {
	HTTPClient    *http.Client
	Timeout       time.Duration
	Delay         time.Duration
	MaxAttempts   int
	RateLimitWait time.Duration
	UserAgent     string
	Header        http.Header
	Limiter       *rate.Limiter
	Sleep         SleepFunc
	Now           func() time.Time
}

// OptionsFromConfig maps network settings onto client options
func OptionsFromConfig(cfg config.NetworkConfig) ClientOptions {
	opts := ClientOptions{
		Timeout:       cfg.Timeout,
		Delay:         cfg.Delay,
		MaxAttempts:   cfg.RetryAttempts,
		RateLimitWait: cfg.RateLimitWait,
		UserAgent:     cfg.UserAgent,
	}
	if cfg.RequestsPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return opts
}

// Client performs throttled GET requests against the content host
type Client struct {
	http          *http.Client
	timeout       time.Duration
	delay         time.Duration
	maxAttempts   int
	rateLimitWait time.Duration
	userAgent     string
	header        http.Header
	limiter       *rate.Limiter
	sleep         SleepFunc
	now           func() time.Time
	log           *zap.SugaredLogger
}

// NewClient creates a fetch client
func NewClient(opts ClientOptions, log *zap.SugaredLogger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 2
	}
	if opts.RateLimitWait <= 0 {
		opts.RateLimitWait = 15 * time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var hc http.Client
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	} else {
		hc.Transport = NewTransport(opts.Timeout)
	}
	// timeout is enforced per read instead, a long healthy stream must survive
	hc.Timeout = 0

	return &Client{
		http:          &hc,
		timeout:       opts.Timeout,
		delay:         opts.Delay,
		maxAttempts:   opts.MaxAttempts,
		rateLimitWait: opts.RateLimitWait,
		userAgent:     opts.UserAgent,
		header:        opts.Header.Clone(),
		limiter:       opts.Limiter,
		sleep:         opts.Sleep,
		now:           opts.Now,
		log:           log,
	}
}

// NewTransport returns a transport whose connect and response header phases
// are bounded by timeout
func NewTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
	}
}

// Sleep is the default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch waits for delay, then issues a single GET. The caller owns the body.
func (c *Client) Fetch(ctx context.Context, url string, delay time.Duration) (*http.Response, error) {
	if err := c.sleep(ctx, delay); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqCtx, cancel := context.WithCancel(ctx)
	watch := newIdleWatch(c.timeout, cancel)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		watch.stop()
		cancel()
		return nil, err
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		watch.stop()
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if watch.expired() {
			err = fmt.Errorf("%w (%s)", ErrIdleTimeout, c.timeout)
		}
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		watch.stop()
		cancel()
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Header: resp.Header}
	}

	resp.Body = &idleBody{body: resp.Body, ctx: ctx, url: url, timeout: c.timeout, watch: watch, cancel: cancel}
	return resp, nil
}

// FetchWithRetry fetches url with the configured pre-request delay. A 429
// replaces the next delay with Retry-After; network errors are retried;
// every other HTTP status is returned immediately.
func (c *Client) FetchWithRetry(ctx context.Context, url string) (*http.Response, error) {
	var out *http.Response
	err := c.retry(ctx, url, func(resp *http.Response) error {
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stream is FetchWithRetry for callers that consume the body in place. A
// network error or stall while reading restarts the request under the same
// attempt budget; any other error from consume is returned as is.
func (c *Client) Stream(ctx context.Context, url string, consume func(io.Reader) error) error {
	return c.retry(ctx, url, func(resp *http.Response) error {
		defer resp.Body.Close()
		return consume(resp.Body)
	})
}

func (c *Client) retry(ctx context.Context, url string, handle func(*http.Response) error) error {
	delay := c.delay
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.Fetch(ctx, url, delay)
		if err == nil {
			if err = handle(resp); err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err

		category := CategorizeError(err)
		switch category {
		case ErrorRateLimited:
			var httpErr *HTTPError
			errors.As(err, &httpErr)
			delay = parseRetryAfter(httpErr.Header.Get("Retry-After"), c.rateLimitWait, c.now())
			c.log.Warnw("Rate limited", "url", url, "attempt", attempt, "wait", delay)
		case ErrorRetryable:
			delay = c.delay
			c.log.Warnw("Fetch failed", "url", url, "attempt", attempt, "error", err)
		default:
			return err
		}

		if attempt < c.maxAttempts {
			metrics.IncFetchRetry(category.String())
		}
	}

	return &FetchFailedError{URL: url, Attempts: c.maxAttempts, Err: lastErr}
}

// idleWatch cancels a request once no progress has been seen for timeout
type idleWatch struct {
	mu      sync.Mutex
	timer   *time.Timer
	timeout time.Duration
	fired   bool
}

func newIdleWatch(timeout time.Duration, cancel context.CancelFunc) *idleWatch {
	w := &idleWatch{timeout: timeout}
	w.timer = time.AfterFunc(timeout, func() {
		w.mu.Lock()
		w.fired = true
		w.mu.Unlock()
		cancel()
	})
	return w
}

func (w *idleWatch) touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.fired {
		w.timer.Reset(w.timeout)
	}
}

func (w *idleWatch) stop() { w.timer.Stop() }

func (w *idleWatch) expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

// idleBody reports read failures as network errors so they stay retryable
type idleBody struct {
	body    io.ReadCloser
	ctx     context.Context
	url     string
	timeout time.Duration
	watch   *idleWatch
	cancel  context.CancelFunc
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if n > 0 {
		b.watch.touch()
	}
	if err == nil || err == io.EOF {
		return n, err
	}
	if b.ctx.Err() != nil {
		return n, b.ctx.Err()
	}
	if b.watch.expired() {
		err = fmt.Errorf("%w (%s)", ErrIdleTimeout, b.timeout)
	}
	return n, &NetworkError{URL: b.url, Err: err}
}

func (b *idleBody) Close() error {
	b.watch.stop()
	b.cancel()
	return b.body.Close()
}
