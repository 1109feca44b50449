package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorFullName(t *testing.T) {
	assert.Equal(t, "Lev Nikolayevich Tolstoy", Author{First: "Lev", Middle: "Nikolayevich", Last: "Tolstoy"}.FullName())
	assert.Equal(t, "Homer", Author{First: "Homer"}.FullName())
	assert.Equal(t, "Anna Karenina", Author{First: "Anna", Last: " Karenina "}.FullName())
}

func TestMetaAuthorNames(t *testing.T) {
	m := Meta{Authors: []Author{{First: "A", Last: "B"}, {}, {First: "C"}}}
	assert.Equal(t, "A B, C", m.AuthorNames())
}

func TestTotalParts(t *testing.T) {
	b := &Book{Kind: KindImage, Pages: make([]PagePart, 3), Chapters: make([]TextPart, 5)}
	assert.Equal(t, 3, b.TotalParts())

	b.Kind = KindText
	assert.Equal(t, 5, b.TotalParts())

	b.Kind = KindAudio
	assert.Equal(t, 0, b.TotalParts())

	b.Kind = "unknown"
	assert.Equal(t, 0, b.TotalParts())
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "War and Peace", SanitizeFilename("  War and Peace "))

	long := ""
	for i := 0; i < 150; i++ {
		long += "ж"
	}
	assert.Len(t, []rune(SanitizeFilename(long)), 100)
}

func TestNewPathsCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	p, err := NewPaths("My: Book", filepath.Join(root, "src"), filepath.Join(root, "out"))
	require.NoError(t, err)

	assert.Equal(t, "My_ Book", p.Filename)
	assert.Equal(t, filepath.Join(root, "src", "My_ Book"), p.Source)
	assert.Equal(t, filepath.Join(root, "out", "My_ Book.fb2"), p.OutputFile("fb2"))
	assert.Equal(t, filepath.Join(p.Source, "images"), p.ImageDir())

	for _, dir := range []string{p.Source, p.Output} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewPathsEmptyTitle(t *testing.T) {
	root := t.TempDir()
	p, err := NewPaths("  ", root, root)
	require.NoError(t, err)
	assert.Equal(t, "book", p.Filename)
}
