package content

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

var fb2Tags = map[string]string{
	"p":          "p",
	"em":         "emphasis",
	"strong":     "strong",
	"div":        "section",
	"h1":         "subtitle",
	"h2":         "subtitle",
	"h3":         "subtitle",
	"title":      "title",
	"blockquote": "cite",
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for XML character data and attribute values
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// FB2 renders a content tree as FictionBook body markup
type FB2 struct {
	imgDir string
	assets *Assets
	log    *zap.SugaredLogger
}

// NewFB2 creates an FB2 format resolving images under imgDir
func NewFB2(imgDir string, log *zap.SugaredLogger) *FB2 {
	return &FB2{imgDir: imgDir, assets: NewAssets(), log: log}
}

// ProcessStructure renders nodes into FB2 sections
func (f *FB2) ProcessStructure(nodes []*Node) string {
	return ProcessStructure(f, nodes)
}

// Assets returns the images referenced so far
func (f *FB2) Assets() *Assets { return f.assets }

func (f *FB2) EscapeText(s string) string { return EscapeXML(s) }

func (f *FB2) RenderElement(n *Node, content string) string {
	switch n.Tag() {
	case "br", "hr":
		return "<empty-line/>"
	}
	if tag, ok := fb2Tags[n.Tag()]; ok {
		return "<" + tag + ">" + content + "</" + tag + ">"
	}
	return content
}

func (f *FB2) RenderImage(n *Node) string {
	src := n.ImageSrc()
	if src == "" {
		f.log.Warnw("Image node without source")
		return ""
	}
	path, ok := resolveImage(f.imgDir, src)
	if !ok {
		f.log.Warnw("Image not found", "path", path)
		return ""
	}
	return fmt.Sprintf(`<image l:href="#%s"/>`, f.assets.ID(src))
}

func (f *FB2) Finalize(parts []string) string {
	var b strings.Builder
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if strings.HasPrefix(part, "<section") ||
			strings.HasPrefix(part, "<title") ||
			strings.HasPrefix(part, "<subtitle") {
			b.WriteString(part)
			continue
		}
		b.WriteString("<section>" + part + "</section>")
	}
	if b.Len() == 0 {
		return "<section><p></p></section>"
	}
	return b.String()
}

// Binaries emits one base64 binary element per registered image. Images that
// can no longer be read are logged and left out.
func (f *FB2) Binaries() string {
	var out []string
	for _, asset := range f.assets.Items() {
		path, ok := resolveImage(f.imgDir, asset.Src)
		if !ok {
			f.log.Warnw("Image not found", "path", path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			f.log.Errorw("Failed to read image", "path", path, "error", err)
			continue
		}
		out = append(out, fmt.Sprintf(`<binary id="%s" content-type="%s">%s</binary>`,
			asset.ID, MimeType(path), base64.StdEncoding.EncodeToString(data)))
	}
	return strings.Join(out, "\n")
}
