package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/content"
)

var fontVariants = []struct {
	style  string
	suffix string
}{
	{"", "Regular"},
	{"B", "Bold"},
	{"I", "Italic"},
	{"BI", "BoldItalic"},
}

// TextPDF lays out a text book as a flowing A4 PDF
type TextPDF struct {
	FontDir    string
	FontFamily string
	Progress   io.Writer
	Log        *zap.SugaredLogger
}

func (e *TextPDF) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	nodes, err := content.LoadDocument(paths.Source)
	if err != nil {
		return "", err
	}

	conv := content.NewPagedText(paths.ImageDir(), e.Log)
	lines := conv.ParseContentWithHeadings(conv.ProcessStructure(nodes))

	images := make(map[string]string, len(conv.Images()))
	for _, path := range conv.Images() {
		images[filepath.Base(path)] = path
	}

	builder := newPDFBuilder(e.FontDir, e.FontFamily, e.Log)
	setInfo(builder.pdf, b.Meta)

	bar := newProgressBar(e.Progress, len(lines), "Building PDF")
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		_ = bar.Add(1)

		if name, ok := line.ImageName(); ok {
			builder.addImage(name, images[name])
			continue
		}
		builder.addText(line.Text, line.Heading)
	}

	out := paths.OutputFile(FormatPDF)
	if err := builder.pdf.OutputFileAndClose(out); err != nil {
		return "", err
	}
	return out, nil
}

type pdfBuilder struct {
	pdf    *gofpdf.Fpdf
	family string
	styles map[string]bool
	tr     func(string) string
	images int
	log    *zap.SugaredLogger
}

func newPDFBuilder(fontDir, family string, log *zap.SugaredLogger) *pdfBuilder {
	pdf := gofpdf.New("P", "mm", "A4", "")
	b := &pdfBuilder{
		pdf:    pdf,
		family: family,
		styles: make(map[string]bool),
		tr:     func(s string) string { return s },
		log:    log,
	}

	for _, v := range fontVariants {
		path := filepath.Join(fontDir, fmt.Sprintf("%s-%s.ttf", family, v.suffix))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		pdf.AddUTF8Font(family, v.style, path)
		b.styles[v.style] = true
	}

	if !b.styles[""] {
		// core fonts only cover cp1252
		log.Warnw("Font not found, falling back to Helvetica", "dir", fontDir, "family", family)
		b.family = "Helvetica"
		b.styles = map[string]bool{"": true, "B": true, "I": true, "BI": true}
		b.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	b.setFont("", 12)
	return b
}

func (b *pdfBuilder) setFont(style string, size float64) {
	if !b.styles[style] {
		style = ""
	}
	b.pdf.SetFont(b.family, style, size)
}

func (b *pdfBuilder) addText(text string, heading bool) {
	if heading {
		b.setFont("B", 16)
		b.pdf.MultiCell(0, 7, b.tr(text), "", "L", false)
		b.pdf.Ln(4)
		return
	}
	b.setFont("", 12)
	b.pdf.MultiCell(0, 5, b.tr("    "+text), "", "J", false)
	b.pdf.Ln(3)
}

func (b *pdfBuilder) addImage(name, path string) {
	if path == "" {
		b.log.Warnw("Image not found", "image", name)
		return
	}

	data, _, err := encodeJPEG(path, 90, 0, 0)
	if err != nil {
		b.log.Errorw("Failed to process image", "path", path, "error", err)
		return
	}

	b.images++
	id := fmt.Sprintf("img-%d", b.images)
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	b.pdf.RegisterImageOptionsReader(id, opts, bytes.NewReader(data))
	b.pdf.ImageOptions(id, 10, b.pdf.GetY(), 180, 0, true, opts, 0, "")
	b.pdf.Ln(10)
}
