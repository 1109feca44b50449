package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
)

// ImagePDF assembles page images into an A4 PDF, one image per page
type ImagePDF struct {
	Quality  int
	DPI      int
	Progress io.Writer
	Log      *zap.SugaredLogger
}

type encodedPage struct {
	data []byte
	size image.Point
	err  error
}

func (e *ImagePDF) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	files, err := partFiles(paths.Source, ".jpg", ".jpeg", ".gif", ".png")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no page images in %s", ErrNoParts, paths.Source)
	}

	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = 65
	}
	e.Log.Infow("Processing page images", "count", len(files), "quality", quality, "dpi", e.DPI)

	pages := e.encodePages(ctx, files, quality)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	setInfo(pdf, b.Meta)

	bar := newProgressBar(e.Progress, len(pages), "Building PDF")
	added := 0
	for i, page := range pages {
		_ = bar.Add(1)
		if page.err != nil {
			e.Log.Errorw("Skipping page", "file", filepath.Base(files[i]), "error", page.err)
			continue
		}
		name := fmt.Sprintf("page-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.data))
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, a4Width, a4Height, false, opts, 0, "")
		added++
	}
	if added == 0 {
		return "", fmt.Errorf("%w: every page image failed to decode", ErrNoParts)
	}

	out := paths.OutputFile(FormatPDF)
	if err := pdf.OutputFileAndClose(out); err != nil {
		return "", err
	}
	return out, nil
}

// encodePages re-encodes files in parallel, keeping input order
func (e *ImagePDF) encodePages(ctx context.Context, files []string, quality int) []encodedPage {
	maxW, maxH := 0, 0
	if e.DPI > 0 {
		maxW, maxH = a4Pixels(e.DPI)
	}

	pages := make([]encodedPage, len(files))
	bar := newProgressBar(e.Progress, len(files), "Processing")

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				data, size, err := encodeJPEG(files[i], quality, maxW, maxH)
				pages[i] = encodedPage{data: data, size: size, err: err}
				_ = bar.Add(1)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return pages
}

func setInfo(pdf *gofpdf.Fpdf, meta book.Meta) {
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.AuthorNames(), true)
	pdf.SetCreator(fmt.Sprintf("litdl (source v%g)", meta.Version), true)
	if meta.UUID != "" {
		pdf.SetSubject("Book UUID: "+meta.UUID, true)
	}
}
