package host

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/billmal071/litdl/internal/book"
)

// ErrUnsupportedURL is returned for addresses no extractor understands
var ErrUnsupportedURL = errors.New("unsupported URL")

// RouteKind names how a URL is resolved into a book
type RouteKind int

const (
	// RouteImage is the paginated image reader
	RouteImage RouteKind = iota + 1
	// RouteText is the text fragment reader
	RouteText
	// RouteAudio is an audiobook page
	RouteAudio
	// RouteBookPage is a catalogue page that must be resolved first
	RouteBookPage
)

func (k RouteKind) String() string {
	switch k {
	case RouteImage:
		return "image"
	case RouteText:
		return "text"
	case RouteAudio:
		return "audio"
	case RouteBookPage:
		return "book page"
	}
	return "unknown"
}

var (
	bookPagePattern = regexp.MustCompile(`/book/.+-\d+/?$`)
	bookIDPattern   = regexp.MustCompile(`/book/.*-(\d+)/?$`)
	readerIDPattern = regexp.MustCompile(`reader/(?:or/)?(\d+)`)
)

// Route classifies a user supplied URL
func Route(raw string) (RouteKind, book.Request, error) {
	raw = strings.TrimSpace(raw)
	req := book.Request{URL: raw}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return 0, req, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	q := u.Query()

	switch {
	case strings.Contains(u.Path, "/audiobook/"):
		return RouteAudio, req, nil
	case strings.HasSuffix(u.Path, "/static/or3/view/or.html") && q.Get("file") != "":
		req.FileID = q.Get("file")
		return RouteImage, req, nil
	case strings.HasSuffix(u.Path, "/static/or4/view/or.html") && q.Get("baseurl") != "":
		req.BaseURL = q.Get("baseurl")
		req.ArtID = q.Get("art")
		return RouteText, req, nil
	case bookPagePattern.MatchString(u.Path):
		if m := bookIDPattern.FindStringSubmatch(u.Path); m != nil {
			req.ArtID = m[1]
		}
		return RouteBookPage, req, nil
	}

	return 0, req, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
}

// fileIDFromURL recovers a file id from loosely formed reader links
func fileIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	if id := q.Get("file"); id != "" {
		return id
	}
	if id := q.Get("art"); id != "" {
		return id
	}
	if m := bookIDPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if m := readerIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}
