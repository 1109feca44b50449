package downloader

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrFetchFailed matches a fetch that exhausted its attempts
	ErrFetchFailed = errors.New("fetch failed")
	// ErrIncomplete matches a download pass that left parts missing
	ErrIncomplete = errors.New("download incomplete")
	// ErrUnsupportedKind is returned for a book kind without a part writer
	ErrUnsupportedKind = errors.New("unsupported book kind")
	// ErrHTMLContent indicates the host returned an HTML page instead of a part
	ErrHTMLContent = errors.New("received HTML content instead of file")
)

// HTTPError is a non-2xx response
type HTTPError struct {
	URL        string
	StatusCode int
	Header     http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: server returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// NetworkError is a transport failure or timeout
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FetchFailedError is returned once every attempt has failed
type FetchFailedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

func (e *FetchFailedError) Is(target error) bool { return target == ErrFetchFailed }

// IncompleteError reports the parts still missing after a download pass
type IncompleteError struct {
	Missing []int
	Failed  int
}

func (e *IncompleteError) Error() string {
	idx := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		idx[i] = fmt.Sprint(n)
	}
	msg := fmt.Sprintf("missing or corrupted parts after download: [%s]", strings.Join(idx, ", "))
	if e.Failed > 0 {
		msg += fmt.Sprintf(" (%d tasks failed)", e.Failed)
	}
	return msg
}

func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }
