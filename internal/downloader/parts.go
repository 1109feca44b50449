package downloader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
)

// PartWriter downloads a single part of a book into dir as {index}.{ext}
type PartWriter interface {
	DownloadPart(ctx context.Context, index int, b *book.Book, dir string) error
}

// WriterFor returns the part writer for a book kind. host is the scheme and
// authority of the content host without a trailing slash.
func WriterFor(kind book.Kind, host string, f Fetcher, log *zap.SugaredLogger) (PartWriter, error) {
	host = strings.TrimRight(host, "/")
	switch kind {
	case book.KindImage:
		return &imageWriter{host: host, fetcher: f}, nil
	case book.KindText:
		return &textWriter{host: host, fetcher: f, log: log}, nil
	case book.KindAudio:
		return &audioWriter{host: host, fetcher: f}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

type imageWriter struct {
	host    string
	fetcher Fetcher
}

// PageURL builds the page image address of an image book
func PageURL(host, fileID string, index int, page book.PagePart) string {
	return fmt.Sprintf("%s/pages/get_pdf_page/?file=%s&page=%d&rt=w%d&ft=%s",
		host, url.QueryEscape(fileID), index, page.Width, pageExt(page))
}

func pageExt(page book.PagePart) string {
	if ext := strings.TrimPrefix(page.Extension, "."); ext != "" {
		return ext
	}
	return "jpg"
}

func (w *imageWriter) DownloadPart(ctx context.Context, index int, b *book.Book, dir string) error {
	if index < 0 || index >= len(b.Pages) {
		return fmt.Errorf("page %d out of range", index)
	}
	page := b.Pages[index]
	dest := filepath.Join(dir, fmt.Sprintf("%d.%s", index, pageExt(page)))
	return fetchToFile(ctx, w.fetcher, PageURL(w.host, b.FileID, index, page), dest)
}

// image references inside text parts, fetched into the images side folder
var imageRefPattern = regexp.MustCompile(`i_\d+\.\w+`)

type textWriter struct {
	host    string
	fetcher Fetcher
	log     *zap.SugaredLogger
}

// ChapterURL builds the address of a text book fragment or side file
func ChapterURL(host, baseURL, name string) string {
	return host + baseURL + "json/" + name
}

func (w *textWriter) DownloadPart(ctx context.Context, index int, b *book.Book, dir string) error {
	if index < 0 || index >= len(b.Chapters) {
		return fmt.Errorf("chapter %d out of range", index)
	}
	dest := filepath.Join(dir, fmt.Sprintf("%d.txt", index))
	if err := fetchToFile(ctx, w.fetcher, ChapterURL(w.host, b.BaseURL, b.Chapters[index].URL), dest); err != nil {
		return err
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return err
	}
	w.fetchImages(ctx, b, dir, data)
	return nil
}

// fetchImages downloads every referenced image once. Failures are only logged.
func (w *textWriter) fetchImages(ctx context.Context, b *book.Book, dir string, data []byte) {
	names := uniqueMatches(imageRefPattern.FindAll(data, -1))
	if len(names) == 0 {
		return
	}

	imgDir := filepath.Join(dir, book.ImageFolder)
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		w.log.Warnw("Failed to create image folder", "dir", imgDir, "error", err)
		return
	}

	for _, name := range names {
		dest := filepath.Join(imgDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := fetchToFile(ctx, w.fetcher, ChapterURL(w.host, b.BaseURL, name), dest); err != nil {
			w.log.Warnw("Failed to download image", "image", name, "error", err)
		}
	}
}

func uniqueMatches(matches [][]byte) []string {
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		s := string(m)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

type audioWriter struct {
	host    string
	fetcher Fetcher
}

// TrackURL builds the address of an audiobook segment
func TrackURL(host, artID string, track book.AudioPart) string {
	return fmt.Sprintf("%s/download_book_subscr/%s/%s/%s",
		host, url.PathEscape(artID), url.PathEscape(track.FileID), url.PathEscape(track.Filename))
}

func (w *audioWriter) DownloadPart(ctx context.Context, index int, b *book.Book, dir string) error {
	if index < 0 || index >= len(b.Tracks) {
		return fmt.Errorf("track %d out of range", index)
	}
	dest := filepath.Join(dir, fmt.Sprintf("%d.mp3", index))
	return fetchToFile(ctx, w.fetcher, TrackURL(w.host, b.ArtID, b.Tracks[index]), dest)
}

func fetchToFile(ctx context.Context, f Fetcher, src, dest string) error {
	return f.Stream(ctx, src, func(r io.Reader) error {
		return saveBody(r, dest)
	})
}

// saveBody streams r into dest through a temp file so a partial write never
// looks like a finished part
func saveBody(r io.Reader, dest string) error {
	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	cleanup := func() {
		file.Close()
		os.Remove(tmp)
	}

	br := bufio.NewReaderSize(r, 32*1024)
	header, _ := br.Peek(512)
	if looksLikeHTML(header) {
		cleanup()
		return ErrHTMLContent
	}

	if _, err := io.Copy(file, br); err != nil {
		cleanup()
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dest)
}

func looksLikeHTML(header []byte) bool {
	h := bytes.ToLower(bytes.TrimSpace(header))
	return bytes.HasPrefix(h, []byte("<!doctype html")) ||
		bytes.HasPrefix(h, []byte("<html")) ||
		bytes.Contains(h, []byte("<head>"))
}
