package book

import "strings"

// Kind identifies how a book's parts are addressed and assembled
type Kind string

const (
	// KindImage books are paginated page images (o3 reader)
	KindImage Kind = "image"
	// KindText books are JSON content fragments (o4 reader)
	KindText Kind = "text"
	// KindAudio books are mp3 segments
	KindAudio Kind = "audio"
)

// Author of a book. Only First is required.
type Author struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last,omitempty"`
}

// FullName joins the non-empty name parts
func (a Author) FullName() string {
	var parts []string
	for _, p := range []string{a.First, a.Middle, a.Last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (a Author) String() string { return a.FullName() }

// Meta holds descriptive book metadata
type Meta struct {
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
	Version float64  `json:"version"`
	UUID    string   `json:"uuid"`
}

// AuthorNames returns authors as a comma separated list
func (m Meta) AuthorNames() string {
	names := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		if n := a.FullName(); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// PagePart describes one page image of an image book
type PagePart struct {
	Width     int    `json:"w"`
	Height    int    `json:"h"`
	Extension string `json:"ext"`
}

// TextPart describes one content fragment of a text book
type TextPart struct {
	URL string `json:"url"`
}

// AudioPart describes one mp3 segment of an audiobook
type AudioPart struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// Book is the aggregate produced by metadata extraction and consumed
// read-only by the downloader and renderers.
type Book struct {
	Meta Meta `json:"meta"`
	Kind Kind `json:"kind"`

	// FileID addresses page images of image books
	FileID string `json:"file_id,omitempty"`
	// BaseURL is the host-relative root of a text book, ending in "/"
	BaseURL string `json:"base_url,omitempty"`
	// ArtID addresses audiobook segments
	ArtID string `json:"art_id,omitempty"`

	Pages    []PagePart  `json:"pages,omitempty"`
	Chapters []TextPart  `json:"chapters,omitempty"`
	Tracks   []AudioPart `json:"tracks,omitempty"`
}

// TotalParts returns the number of parts for the book's kind
func (b *Book) TotalParts() int {
	switch b.Kind {
	case KindImage:
		return len(b.Pages)
	case KindText:
		return len(b.Chapters)
	case KindAudio:
		return len(b.Tracks)
	}
	return 0
}

// Request is a routed user request for a book
type Request struct {
	URL     string
	FileID  string
	ArtID   string
	BaseURL string
}
