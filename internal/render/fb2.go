package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/content"
)

var fb2Template = template.Must(template.New("fb2").Funcs(template.FuncMap{
	"x": content.EscapeXML,
}).Parse(`<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">
<description>
<title-info>
<genre>prose</genre>
{{range .Authors}}<author><first-name>{{x .First}}</first-name>{{if .Middle}}<middle-name>{{x .Middle}}</middle-name>{{end}}{{if .Last}}<last-name>{{x .Last}}</last-name>{{end}}</author>{{end}}
<book-title>{{x .Title}}</book-title>
<lang>{{x .Lang}}</lang>
</title-info>
<document-info>
<program-used>litdl</program-used>
<id>{{x .ID}}</id>
<version>{{.Version}}</version>
</document-info>
</description>
<body>
{{.Body}}</body>
{{.Binaries}}
</FictionBook>
`))

type fb2Document struct {
	Title    string
	Authors  []book.Author
	Lang     string
	ID       string
	Version  string
	Body     string
	Binaries string
}

// FB2 writes text books as FictionBook 2.0 with embedded images
type FB2 struct {
	Lang string
	Log  *zap.SugaredLogger
}

func (e *FB2) Render(ctx context.Context, b *book.Book, paths book.Paths) (string, error) {
	nodes, err := content.LoadDocument(paths.Source)
	if err != nil {
		return "", err
	}

	conv := content.NewFB2(paths.ImageDir(), e.Log)
	doc := newFB2Document(b.Meta, e.Lang)
	doc.Body = conv.ProcessStructure(nodes)
	doc.Binaries = conv.Binaries()

	out := paths.OutputFile(FormatFB2)
	err = writeFile(out, func(w io.Writer) error {
		return fb2Template.Execute(w, doc)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}

func newFB2Document(meta book.Meta, lang string) fb2Document {
	doc := fb2Document{
		Title:   meta.Title,
		Lang:    lang,
		ID:      meta.UUID,
		Version: "1.0",
	}
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if doc.Lang == "" {
		doc.Lang = "ru"
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if meta.Version > 0 {
		doc.Version = strconv.FormatFloat(meta.Version, 'f', -1, 64)
	}

	for _, a := range meta.Authors {
		if a.First == "" {
			a.First = "Unknown"
		}
		doc.Authors = append(doc.Authors, a)
	}
	if len(doc.Authors) == 0 {
		doc.Authors = []book.Author{{First: "Unknown"}}
	}
	return doc
}
