package render

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/billmal071/litdl/internal/book"
)

var kindExtensions = []struct {
	kind book.Kind
	exts []string
}{
	{book.KindText, []string{".txt"}},
	{book.KindAudio, []string{".mp3"}},
	{book.KindImage, []string{".jpg", ".jpeg", ".gif", ".png"}},
}

// LocalBook describes an already downloaded source directory so it can be
// assembled offline. The part count is one past the highest index found,
// so gaps show up as missing parts.
func LocalBook(dir, title string) (*book.Book, error) {
	if title == "" {
		title = filepath.Base(filepath.Clean(dir))
	}

	for _, k := range kindExtensions {
		files, err := partFiles(dir, k.exts...)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}

		last := filepath.Base(files[len(files)-1])
		n, err := strconv.Atoi(strings.TrimSuffix(last, filepath.Ext(last)))
		if err != nil {
			return nil, err
		}
		total := n + 1

		b := &book.Book{Meta: book.Meta{Title: title}, Kind: k.kind}
		switch k.kind {
		case book.KindText:
			b.Chapters = make([]book.TextPart, total)
		case book.KindAudio:
			b.Tracks = make([]book.AudioPart, total)
		case book.KindImage:
			b.Pages = make([]book.PagePart, total)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNoParts, dir)
}
