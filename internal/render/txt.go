package render

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/content"
)

// TXT writes the plain text of a text book
type TXT struct {
	Log *zap.SugaredLogger
}

func (e *TXT) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	nodes, err := content.LoadDocument(paths.Source)
	if err != nil {
		return "", err
	}

	out := paths.OutputFile(FormatTXT)
	text := content.PlainText{}.ProcessStructure(nodes)
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return "", err
	}
	return out, nil
}
