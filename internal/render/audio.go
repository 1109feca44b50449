package render

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
)

// Audio concatenates mp3 segments in part order
type Audio struct {
	Log *zap.SugaredLogger
}

func (e *Audio) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	files, err := partFiles(paths.Source, ".mp3")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no mp3 files in %s", ErrNoParts, paths.Source)
	}

	out := paths.OutputFile(FormatMP3)
	err = writeFile(out, func(dst io.Writer) error {
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := appendFile(dst, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	e.Log.Infow("Merged audio segments", "files", len(files), "path", out)
	return out, nil
}

func appendFile(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
