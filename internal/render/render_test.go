package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/config"
)

func newPaths(t *testing.T, title string) book.Paths {
	t.Helper()
	root := t.TempDir()
	p, err := book.NewPaths(title, filepath.Join(root, "src"), filepath.Join(root, "out"))
	require.NoError(t, err)
	return p
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func textBook() *book.Book {
	return &book.Book{
		Meta: book.Meta{
			Title:   "Tom & Jerry",
			Authors: []book.Author{{First: "Ivan", Last: "Petrov"}, {Middle: "X"}},
			UUID:    "abc-123",
			Version: 2.5,
		},
		Kind: book.KindText,
	}
}

func newRenderer(t *testing.T, formats ...string) *Renderer {
	cfg := config.Default().Render
	cfg.FontDir = t.TempDir()
	return New(cfg, formats, nil, zaptest.NewLogger(t).Sugar())
}

func TestSelectFormat(t *testing.T) {
	r := newRenderer(t, "fb2", "PDF", "mp3")

	f, err := r.SelectFormat(book.KindText)
	require.NoError(t, err)
	assert.Equal(t, FormatFB2, f)

	f, err = r.SelectFormat(book.KindImage)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = r.SelectFormat(book.KindAudio)
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, f)

	_, err = newRenderer(t, "mp3").SelectFormat(book.KindText)
	assert.ErrorIs(t, err, ErrNoFormat)
}

func TestRenderAsUnsupported(t *testing.T) {
	_, err := newRenderer(t).RenderAs(context.Background(), &book.Book{Kind: book.KindAudio}, newPaths(t, "x"), FormatFB2)
	assert.ErrorIs(t, err, ErrNoFormat)
}

func TestRenderFB2(t *testing.T) {
	paths := newPaths(t, "Tom & Jerry")
	write(t, filepath.Join(paths.Source, "0.txt"), []byte(`[{"t":"h1","c":["Start"]},{"t":"p","c":["a & b ",{"t":"img","s":"i_1.png"}]}]`))
	write(t, filepath.Join(paths.Source, "1.txt"), []byte(`[{"t":"p","c":["end"]}]`))
	writePNG(t, filepath.Join(paths.ImageDir(), "i_1.png"), 4, 4)

	out, err := newRenderer(t, "fb2").Render(context.Background(), textBook(), paths)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.Output, "Tom & Jerry.fb2"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, doc, "<book-title>Tom &amp; Jerry</book-title>")
	assert.Contains(t, doc, "<author><first-name>Ivan</first-name><last-name>Petrov</last-name></author>")
	assert.Contains(t, doc, "<author><first-name>Unknown</first-name><middle-name>X</middle-name></author>")
	assert.Contains(t, doc, "<id>abc-123</id>")
	assert.Contains(t, doc, "<version>2.5</version>")
	assert.Contains(t, doc, `<subtitle>Start</subtitle><section><p>a &amp; b <image l:href="#img1"/></p></section><section><p>end</p></section></body>`)
	assert.Contains(t, doc, `<binary id="img1" content-type="image/png">`)
	assert.True(t, strings.HasSuffix(doc, "</FictionBook>\n"))
	_, err = os.Stat(out + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestNewFB2DocumentDefaults(t *testing.T) {
	doc := newFB2Document(book.Meta{}, "")
	assert.Equal(t, "Untitled", doc.Title)
	assert.Equal(t, "ru", doc.Lang)
	assert.Equal(t, "1.0", doc.Version)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, []book.Author{{First: "Unknown"}}, doc.Authors)
}

func TestRenderTXT(t *testing.T) {
	paths := newPaths(t, "Plain")
	write(t, filepath.Join(paths.Source, "0.txt"), []byte(`[{"t":"p","c":["one"]},{"t":"p","c":["two"]}]`))

	out, err := newRenderer(t, "txt").Render(context.Background(), textBook(), paths)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", string(data))
}

func TestRenderAudioConcatenatesInOrder(t *testing.T) {
	paths := newPaths(t, "Audio")
	write(t, filepath.Join(paths.Source, "10.mp3"), []byte("C"))
	write(t, filepath.Join(paths.Source, "2.mp3"), []byte("B"))
	write(t, filepath.Join(paths.Source, "0.mp3"), []byte("A"))
	write(t, filepath.Join(paths.Source, "3.mp3.part"), []byte("X"))

	out, err := newRenderer(t).Render(context.Background(), &book.Book{Kind: book.KindAudio}, paths)
	require.NoError(t, err)
	assert.Equal(t, paths.OutputFile("mp3"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))
}

func TestRenderAudioEmpty(t *testing.T) {
	_, err := newRenderer(t).Render(context.Background(), &book.Book{Kind: book.KindAudio}, newPaths(t, "Empty"))
	assert.ErrorIs(t, err, ErrNoParts)
}

func TestRenderImagePDF(t *testing.T) {
	paths := newPaths(t, "Scans")
	writeJPEG(t, filepath.Join(paths.Source, "0.jpg"), 40, 60)
	writePNG(t, filepath.Join(paths.Source, "1.png"), 3000, 4000)

	r := newRenderer(t)
	r.cfg.DPI = 72
	out, err := r.Render(context.Background(), &book.Book{Meta: book.Meta{Title: "Scans"}, Kind: book.KindImage}, paths)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestRenderTextPDFFallbackFont(t *testing.T) {
	paths := newPaths(t, "Story")
	write(t, filepath.Join(paths.Source, "0.txt"), []byte(`[
		{"t":"h1","c":["Chapter 1"]},
		{"t":"p","c":["Body text."]},
		{"t":"img","s":"i_1.png"},
		{"t":"img","s":"missing.png"}
	]`))
	writePNG(t, filepath.Join(paths.ImageDir(), "i_1.png"), 20, 10)

	out, err := newRenderer(t, "pdf").Render(context.Background(), textBook(), paths)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestFitSize(t *testing.T) {
	w, h := fitSize(100, 200, 1000, 1000)
	assert.Equal(t, []int{100, 200}, []int{w, h})

	w, h = fitSize(2000, 1000, 1000, 1000)
	assert.Equal(t, []int{1000, 500}, []int{w, h})

	w, h = fitSize(1000, 4000, 1000, 1000)
	assert.Equal(t, []int{250, 1000}, []int{w, h})

	w, h = fitSize(500, 500, 0, 0)
	assert.Equal(t, []int{500, 500}, []int{w, h})
}

func TestA4Pixels(t *testing.T) {
	w, h := a4Pixels(300)
	assert.Equal(t, 2480, w)
	assert.Equal(t, 3507, h)
}

func TestPartFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10.jpg", "2.GIF", "1.png", "cover.jpg", "3.txt"} {
		write(t, filepath.Join(dir, name), []byte("x"))
	}

	files, err := partFiles(dir, ".jpg", ".gif", ".png")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"1.png", "2.GIF", "10.jpg"}, names)
}

func TestLocalBook(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My Book")
	write(t, filepath.Join(dir, "0.txt"), []byte(`[]`))
	write(t, filepath.Join(dir, "2.txt"), []byte(`[]`))
	write(t, filepath.Join(dir, "images", "i_1.jpg"), []byte("x"))

	b, err := LocalBook(dir, "")
	require.NoError(t, err)
	assert.Equal(t, book.KindText, b.Kind)
	assert.Equal(t, "My Book", b.Meta.Title)
	assert.Equal(t, 3, b.TotalParts())
}

func TestLocalBookKinds(t *testing.T) {
	audio := t.TempDir()
	write(t, filepath.Join(audio, "0.mp3"), []byte("A"))
	b, err := LocalBook(audio, "Audio")
	require.NoError(t, err)
	assert.Equal(t, book.KindAudio, b.Kind)
	assert.Equal(t, "Audio", b.Meta.Title)
	assert.Equal(t, 1, b.TotalParts())

	pages := t.TempDir()
	write(t, filepath.Join(pages, "0.jpg"), []byte("x"))
	write(t, filepath.Join(pages, "1.PNG"), []byte("x"))
	b, err = LocalBook(pages, "Pages")
	require.NoError(t, err)
	assert.Equal(t, book.KindImage, b.Kind)
	assert.Equal(t, 2, b.TotalParts())
}

func TestLocalBookEmpty(t *testing.T) {
	_, err := LocalBook(t.TempDir(), "x")
	assert.ErrorIs(t, err, ErrNoParts)

	_, err = LocalBook(filepath.Join(t.TempDir(), "missing"), "x")
	assert.Error(t, err)
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "Book.fb2")
	err := writeFile(out, func(w io.Writer) error {
		_, _ = w.Write([]byte("<FictionBook>"))
		return errors.New("template failed")
	})
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(out + ".part")
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, writeFile(out, func(w io.Writer) error {
		_, err := w.Write([]byte("done"))
		return err
	}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
	_, statErr = os.Stat(out + ".part")
	assert.True(t, os.IsNotExist(statErr))
}
