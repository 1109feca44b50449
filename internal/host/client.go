package host

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
)

// Client turns user supplied URLs into fully described books
type Client struct {
	session *Session
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewClient creates a metadata client on top of an authenticated session
func NewClient(session *Session, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{session: session, timeout: timeout, log: log}
}

// Resolve routes the URL and fetches the metadata of the book it names
func (c *Client) Resolve(ctx context.Context, raw string) (*book.Book, error) {
	kind, req, err := Route(raw)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("Routed URL", "url", raw, "route", kind.String())

	if kind == RouteBookPage {
		state, err := c.pageState(raw)
		if err != nil {
			return nil, err
		}
		kind, req, err = state.BookRequest(c.session.BaseURL())
		if err != nil {
			return nil, err
		}
		c.log.Infow("Resolved book page", "route", kind.String(), "art_id", req.ArtID, "file_id", req.FileID)
	}

	switch kind {
	case RouteImage:
		return c.imageBook(ctx, req)
	case RouteText:
		return c.textBook(ctx, req)
	case RouteAudio:
		state, err := c.pageState(raw)
		if err != nil {
			return nil, err
		}
		return ParseAudiobookState(state)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
}

func (c *Client) imageBook(ctx context.Context, req book.Request) (*book.Book, error) {
	fileID := req.FileID
	if fileID == "" {
		fileID = fileIDFromURL(req.URL)
	}
	if fileID == "" {
		return nil, fmt.Errorf("%w: no file id in %q", ErrMetadata, req.URL)
	}

	body, err := c.get(ctx, c.session.BaseURL()+"/pages/get_pdf_js/?file="+url.QueryEscape(fileID))
	if err != nil {
		return nil, err
	}
	return ParseO3Meta(body)
}

func (c *Client) textBook(ctx context.Context, req book.Request) (*book.Book, error) {
	if req.BaseURL == "" {
		return nil, fmt.Errorf("%w: no baseurl in %q", ErrMetadata, req.URL)
	}

	body, err := c.get(ctx, c.session.BaseURL()+req.BaseURL+"json/toc.js")
	if err != nil {
		return nil, err
	}
	b, err := ParseO4Toc(body, req.BaseURL)
	if err != nil {
		return nil, err
	}
	b.ArtID = req.ArtID
	return b, nil
}

func (c *Client) get(ctx context.Context, u string) (string, error) {
	resp, err := c.session.R(ctx).Get(u)
	if err != nil {
		return "", fmt.Errorf("metadata request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("metadata request %s returned HTTP %d", u, resp.StatusCode())
	}
	return resp.String(), nil
}

// pageState scrapes a catalogue page and decodes its embedded state
func (c *Client) pageState(pageURL string) (State, error) {
	var body []byte

	collector := colly.NewCollector(
		colly.UserAgent(c.session.userAgent),
	)
	collector.SetRequestTimeout(c.timeout)
	collector.SetCookieJar(c.session.Jar())

	collector.OnRequest(func(r *colly.Request) {
		h := c.session.Header()
		for k := range h {
			r.Headers.Set(k, h.Get(k))
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	var scrapeErr error
	collector.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("failed to fetch %s: HTTP %d: %w", pageURL, r.StatusCode, err)
	})

	if err := collector.Visit(pageURL); err != nil && scrapeErr == nil {
		scrapeErr = err
	}
	collector.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}
	return ExtractInitialState(string(body))
}
