package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/billmal071/litdl/internal/book"
)

// ErrNoState is returned when a page carries no embedded application state
var ErrNoState = errors.New("initialState not found in page")

var initialStatePattern = regexp.MustCompile(`(?s)"initialState":"(.*?)"},"__N_SSP`)

// State is the decoded application state embedded in catalogue pages
type State map[string]any

// ExtractInitialState finds the JSON-encoded initialState string in the
// page's scripts and decodes it
func ExtractInitialState(html string) (State, error) {
	var escaped string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := initialStatePattern.FindStringSubmatch(s.Text()); m != nil {
				escaped = m[1]
				return false
			}
			return true
		})
	}
	if escaped == "" {
		m := initialStatePattern.FindStringSubmatch(html)
		if m == nil {
			return nil, ErrNoState
		}
		escaped = m[1]
	}

	var raw string
	if err := json.Unmarshal([]byte(`"`+escaped+`"`), &raw); err != nil {
		return nil, fmt.Errorf("failed to unescape initialState: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to parse initialState: %w", err)
	}
	return state, nil
}

// query returns the first rtkq query whose key starts with prefix
func (s State) query(prefix string) (key string, data any, ok bool) {
	api, _ := s["rtkqApi"].(map[string]any)
	queries, _ := api["queries"].(map[string]any)
	for k, v := range queries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		entry, _ := v.(map[string]any)
		if d, found := entry["data"]; found && d != nil {
			return k, d, true
		}
	}
	return "", nil, false
}

// UserID returns the logged in user's id, if present
func (s State) UserID() string {
	_, data, ok := s.query("getUserDataForSSR")
	if !ok {
		return ""
	}
	m, _ := data.(map[string]any)
	return scalarString(m["id"])
}

// ArtData returns the catalogue record of the page's item
func (s State) ArtData() map[string]any {
	_, data, _ := s.query("getArtData(")
	m, _ := data.(map[string]any)
	return m
}

// ArtFiles returns the downloadable files of the page's item and the art id
// encoded in the query key
func (s State) ArtFiles() (string, []map[string]any) {
	key, data, ok := s.query("getArtFiles(")
	if !ok {
		return "", nil
	}
	var artID string
	if m := artIDPattern.FindStringSubmatch(key); m != nil {
		artID = m[1]
	}
	list, _ := data.([]any)
	files := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if f, ok := item.(map[string]any); ok {
			files = append(files, f)
		}
	}
	return artID, files
}

var artIDPattern = regexp.MustCompile(`"artId":(\d+)`)

var (
	textExtensions  = map[string]bool{"txt": true, "txt.zip": true}
	imageExtensions = map[string]bool{"a4.pdf": true, "pdf": true, "a6.pdf": true}
)

// BookRequest picks the readable file of a catalogue page and returns the
// reader address for it
func (s State) BookRequest(baseURL string) (RouteKind, book.Request, error) {
	art := s.ArtData()
	artID := scalarString(art["id"])
	_, files := s.ArtFiles()

	kind, fileID := RouteKind(0), ""
	for _, f := range files {
		if textExtensions[scalarString(f["extension"])] {
			kind, fileID = RouteText, scalarString(f["id"])
			break
		}
	}
	if fileID == "" {
		for _, f := range files {
			if imageExtensions[scalarString(f["extension"])] {
				kind, fileID = RouteImage, scalarString(f["id"])
				break
			}
		}
	}
	if artID == "" || fileID == "" {
		return 0, book.Request{}, fmt.Errorf("%w: no readable file on book page", ErrUnsupportedURL)
	}

	req := book.Request{FileID: fileID, ArtID: artID}
	user := s.UserID()
	switch kind {
	case RouteImage:
		req.URL = fmt.Sprintf("%s/static/or3/view/or.html?art_type=%s&file=%s&user=%s",
			baseURL, scalarString(art["art_type"]), fileID, user)
	case RouteText:
		req.BaseURL = fmt.Sprintf("/download_book_subscr/%s/%s/", artID, fileID)
		req.URL = fmt.Sprintf("%s/static/or4/view/or.html?baseurl=%s&art=%s&user=%s",
			baseURL, req.BaseURL, artID, user)
	}
	return kind, req, nil
}

// scalarString renders JSON scalars the way they appear in URLs
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
