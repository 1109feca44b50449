package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/config"
)

// Output formats
const (
	FormatPDF = "pdf"
	FormatFB2 = "fb2"
	FormatMP3 = "mp3"
	FormatTXT = "txt"
)

var (
	// ErrNoFormat is returned when no configured format suits the book kind
	ErrNoFormat = errors.New("no output format available")
	// ErrNoParts is returned when the source directory holds nothing to assemble
	ErrNoParts = errors.New("no parts to assemble")
)

// Engine assembles downloaded parts into one output file
type Engine interface {
	Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error)
}

// kindFormats lists what each book kind can be assembled into
var kindFormats = map[book.Kind][]string{
	book.KindImage: {FormatPDF},
	book.KindText:  {FormatPDF, FormatFB2, FormatTXT},
	book.KindAudio: {FormatMP3},
}

// Renderer picks an engine by format priority
type Renderer struct {
	cfg      config.RenderConfig
	formats  []string
	progress io.Writer
	log      *zap.SugaredLogger
}

// New creates a renderer. formats is the output priority list.
func New(cfg config.RenderConfig, formats []string, progress io.Writer, log *zap.SugaredLogger) *Renderer {
	if progress == nil {
		progress = os.Stderr
	}
	if len(formats) == 0 {
		formats = []string{FormatPDF, FormatFB2, FormatMP3}
	}
	return &Renderer{cfg: cfg, formats: formats, progress: progress, log: log}
}

// SelectFormat returns the first configured format supported by kind
func (r *Renderer) SelectFormat(kind book.Kind) (string, error) {
	supported := kindFormats[kind]
	for _, f := range r.formats {
		f = strings.ToLower(strings.TrimSpace(f))
		for _, s := range supported {
			if f == s {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("%w for %s books (configured: %s)", ErrNoFormat, kind, strings.Join(r.formats, ", "))
}

// Render assembles the book in the preferred format and returns the output path
func (r *Renderer) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	format, err := r.SelectFormat(b.Kind)
	if err != nil {
		return "", err
	}
	return r.RenderAs(ctx, b, paths, format)
}

// RenderAs assembles the book in an explicit format
func (r *Renderer) RenderAs(ctx context.Context, b *book.Book, paths book.Paths, format string) (string, error) {
	engine, err := r.engine(b.Kind, strings.ToLower(format))
	if err != nil {
		return "", err
	}

	r.log.Infow("Assembling book", "title", b.Meta.Title, "kind", b.Kind, "format", format)
	out, err := engine.Render(ctx, b, paths)
	if err != nil {
		return "", fmt.Errorf("%s: %w", format, err)
	}
	r.log.Infow("Book saved", "path", out)
	return out, nil
}

func (r *Renderer) engine(kind book.Kind, format string) (Engine, error) {
	switch {
	case kind == book.KindImage && format == FormatPDF:
		return &ImagePDF{Quality: r.cfg.Quality, DPI: r.cfg.DPI, Progress: r.progress, Log: r.log}, nil
	case kind == book.KindText && format == FormatPDF:
		return &TextPDF{FontDir: r.cfg.FontDir, FontFamily: r.cfg.FontFamily, Progress: r.progress, Log: r.log}, nil
	case kind == book.KindText && format == FormatFB2:
		return &FB2{Lang: r.cfg.Lang, Log: r.log}, nil
	case kind == book.KindText && format == FormatTXT:
		return &TXT{Log: r.log}, nil
	case kind == book.KindAudio && format == FormatMP3:
		return &Audio{Log: r.log}, nil
	}
	return nil, fmt.Errorf("%w: %s books cannot be saved as %q", ErrNoFormat, kind, format)
}

func newProgressBar(w io.Writer, n int, desc string) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
