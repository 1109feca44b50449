package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/billmal071/litdl/internal/book"
	"github.com/billmal071/litdl/internal/content"
)

// ErrMetadata is returned when a metadata response cannot be understood
var ErrMetadata = errors.New("failed to parse book metadata")

var (
	o3FileIDPattern = regexp.MustCompile(`\[(\d+)\]`)
	o3MetaPattern   = regexp.MustCompile(`(?s)Meta:\s*(\{.*?\}),\s*pages:`)
	o3PagesPattern  = regexp.MustCompile(`pages:\s*\[\{p:\[([^\]]+)\]`)
	o3PagePattern   = regexp.MustCompile(`\{\s*w:\s*(\d+),\s*h:\s*(\d+),\s*ext:\s*'([^']+)'\s*\}`)

	jsKeyPattern    = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	jsTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

type rawAuthor struct {
	First  string `json:"First"`
	Middle string `json:"Middle"`
	Last   string `json:"Last"`
}

type rawMeta struct {
	Title   string            `json:"Title"`
	Authors []json.RawMessage `json:"Authors"`
	Version json.RawMessage   `json:"version"`
	UUID    string            `json:"UUID"`
}

func (m rawMeta) toMeta() book.Meta {
	meta := book.Meta{Title: m.Title, UUID: m.UUID, Version: parseVersion(m.Version)}
	if meta.Title == "" {
		meta.Title = "Unknown"
	}
	for _, raw := range m.Authors {
		var a rawAuthor
		// non-object entries are skipped
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		meta.Authors = append(meta.Authors, book.Author{First: a.First, Middle: a.Middle, Last: a.Last})
	}
	return meta
}

// parseVersion accepts a number, a numeric string or nothing
func parseVersion(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// ParseO3Meta parses the JavaScript metadata served for image books
func ParseO3Meta(text string) (*book.Book, error) {
	m := o3FileIDPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: file id not found", ErrMetadata)
	}
	b := &book.Book{Kind: book.KindImage, FileID: m[1]}

	mm := o3MetaPattern.FindStringSubmatch(text)
	if mm == nil {
		return nil, fmt.Errorf("%w: Meta block not found", ErrMetadata)
	}
	var meta rawMeta
	if err := json.Unmarshal([]byte(mm[1]), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	b.Meta = meta.toMeta()

	if pm := o3PagesPattern.FindStringSubmatch(text); pm != nil {
		for _, p := range o3PagePattern.FindAllStringSubmatch(pm[1], -1) {
			w, _ := strconv.Atoi(p[1])
			h, _ := strconv.Atoi(p[2])
			b.Pages = append(b.Pages, book.PagePart{Width: w, Height: h, Extension: p[3]})
		}
	}
	return b, nil
}

type rawToc struct {
	Meta  rawMeta         `json:"Meta"`
	Parts []book.TextPart `json:"Parts"`
}

// ParseO4Toc parses the table of contents served for text books
func ParseO4Toc(text, baseURL string) (*book.Book, error) {
	cleaned := jsKeyPattern.ReplaceAllString(text, `$1"$2"$3`)
	cleaned = jsTrailingComma.ReplaceAllString(cleaned, `$1`)

	var toc rawToc
	if err := json.Unmarshal([]byte(cleaned), &toc); err != nil {
		if err2 := json.Unmarshal([]byte(content.FixJSON(text)), &toc); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
		}
	}

	return &book.Book{
		Kind:     book.KindText,
		BaseURL:  baseURL,
		Meta:     toc.Meta.toMeta(),
		Chapters: toc.Parts,
	}, nil
}

// ParseAudiobookState builds an audiobook from a catalogue page state
func ParseAudiobookState(state State) (*book.Book, error) {
	artID, files := state.ArtFiles()
	if files == nil && artID == "" {
		return nil, fmt.Errorf("%w: getArtFiles not found in initialState", ErrMetadata)
	}
	if artID == "" {
		return nil, fmt.Errorf("%w: artId not found in getArtFiles key", ErrMetadata)
	}

	b := &book.Book{Kind: book.KindAudio, ArtID: artID}
	b.Meta.Title = "Аудиокнига"
	if title := scalarString(state.ArtData()["title"]); title != "" {
		b.Meta.Title = title
	}
	b.Meta.Version = 1.0

	for _, f := range files {
		name := scalarString(f["filename"])
		if !strings.HasSuffix(name, ".mp3") || scalarString(f["encoding_type"]) != "standard_quality_mp3" {
			continue
		}
		b.Tracks = append(b.Tracks, book.AudioPart{FileID: scalarString(f["id"]), Filename: name})
	}
	return b, nil
}
