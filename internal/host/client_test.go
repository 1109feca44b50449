package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/billmal071/litdl/internal/book"
)

func newCatalogueHost(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pages/get_pdf_js/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file") != "42" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(o3Response))
	})
	mux.HandleFunc("/download_book_subscr/70123/2/json/toc.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{Meta:{"Title":"Text Book"},Parts:[{url:"001.txt"},]}`))
	})
	mux.HandleFunc("/book/ivan-petrov/kniga-70123/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statePage(t, bookPageState(map[string]any{"id": 2, "extension": "txt"}))))
	})
	mux.HandleFunc("/audiobook/ivan-petrov/kniga-555/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Session-Id") != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(statePage(t, map[string]any{
			"rtkqApi": map[string]any{"queries": map[string]any{
				`getArtFiles({"artId":555})`: map[string]any{"data": []any{
					map[string]any{"id": 9, "filename": "01.mp3", "encoding_type": "standard_quality_mp3"},
				}},
			}},
		})))
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	s := newTestSession(t, srv.URL, srv.URL)
	require.NoError(t, s.SetCookies([]Cookie{{Name: "SID", Value: "abc"}}))
	return NewClient(s, 5*time.Second, zaptest.NewLogger(t).Sugar())
}

func TestResolveImageReader(t *testing.T) {
	srv := newCatalogueHost(t)
	defer srv.Close()

	b, err := newTestClient(t, srv).Resolve(context.Background(), srv.URL+"/static/or3/view/or.html?file=42")
	require.NoError(t, err)
	assert.Equal(t, book.KindImage, b.Kind)
	assert.Equal(t, "Paged Book", b.Meta.Title)
	assert.Len(t, b.Pages, 2)
}

func TestResolveTextReader(t *testing.T) {
	srv := newCatalogueHost(t)
	defer srv.Close()

	u := srv.URL + "/static/or4/view/or.html?baseurl=/download_book_subscr/70123/2/&art=70123"
	b, err := newTestClient(t, srv).Resolve(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, book.KindText, b.Kind)
	assert.Equal(t, "70123", b.ArtID)
	assert.Equal(t, "/download_book_subscr/70123/2/", b.BaseURL)
	assert.Equal(t, []book.TextPart{{URL: "001.txt"}}, b.Chapters)
}

func TestResolveBookPage(t *testing.T) {
	srv := newCatalogueHost(t)
	defer srv.Close()

	b, err := newTestClient(t, srv).Resolve(context.Background(), srv.URL+"/book/ivan-petrov/kniga-70123/")
	require.NoError(t, err)
	assert.Equal(t, book.KindText, b.Kind)
	assert.Equal(t, "Text Book", b.Meta.Title)
	assert.Equal(t, "70123", b.ArtID)
}

func TestResolveAudiobook(t *testing.T) {
	srv := newCatalogueHost(t)
	defer srv.Close()

	b, err := newTestClient(t, srv).Resolve(context.Background(), srv.URL+"/audiobook/ivan-petrov/kniga-555/")
	require.NoError(t, err)
	assert.Equal(t, book.KindAudio, b.Kind)
	assert.Equal(t, "555", b.ArtID)
	assert.Equal(t, []book.AudioPart{{FileID: "9", Filename: "01.mp3"}}, b.Tracks)
}

func TestResolveErrors(t *testing.T) {
	srv := newCatalogueHost(t)
	defer srv.Close()
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Resolve(ctx, "https://example.com/nothing")
	assert.ErrorIs(t, err, ErrUnsupportedURL)

	_, err = c.Resolve(ctx, srv.URL+"/static/or3/view/or.html?file=404")
	assert.Error(t, err)

	_, err = c.Resolve(ctx, srv.URL+"/book/someone/missing-1/")
	assert.Error(t, err)
}
