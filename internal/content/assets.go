package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// MimeType returns the content type for an image file name
func MimeType(name string) string {
	if mime, ok := imageMimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Asset is a registered image source and its document identifier
type Asset struct {
	Src string
	ID  string
}

// Assets assigns stable identifiers to image sources for one conversion
type Assets struct {
	ids   map[string]string
	order []Asset
}

// NewAssets returns an empty registry
func NewAssets() *Assets {
	return &Assets{ids: make(map[string]string)}
}

// ID returns the identifier for src, assigning img1, img2, ... on first sight
func (a *Assets) ID(src string) string {
	if id, ok := a.ids[src]; ok {
		return id
	}
	id := fmt.Sprintf("img%d", len(a.order)+1)
	a.ids[src] = id
	a.order = append(a.order, Asset{Src: src, ID: id})
	return id
}

// Items returns the registered assets in assignment order
func (a *Assets) Items() []Asset {
	return append([]Asset(nil), a.order...)
}

func (a *Assets) Len() int { return len(a.order) }

// resolveImage finds src under dir, falling back to its base name since the
// downloader stores side images flat. Sources that would leave dir are only
// tried by base name.
func resolveImage(dir, src string) (string, bool) {
	if src == "" {
		return "", false
	}
	rel := filepath.FromSlash(src)
	var candidates []string
	if filepath.IsLocal(rel) {
		candidates = append(candidates, filepath.Join(dir, rel))
	}
	if base := filepath.Base(rel); base != rel && filepath.IsLocal(base) {
		candidates = append(candidates, filepath.Join(dir, base))
	}
	if len(candidates) == 0 {
		return filepath.Join(dir, filepath.Base(rel)), false
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return candidates[0], false
}
