package content

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	headingOpen  = "[HEADING]"
	headingClose = "[/HEADING]"
	imagePrefix  = "[IMAGE: "
)

var (
	headingPattern = regexp.MustCompile(`(?s)\[HEADING\](.*?)\[/HEADING\]`)
	imagePattern   = regexp.MustCompile(`^\[IMAGE: (.+)\]$`)
	rule           = strings.Repeat("-", 50)
)

// PagedText renders a content tree as annotated plain text for page layout.
// Headings are enclosed in [HEADING]...[/HEADING] and images become
// [IMAGE: name] lines whose files are listed by Images.
type PagedText struct {
	imgDir   string
	images   []string
	headings []string
	log      *zap.SugaredLogger
}

// NewPagedText creates a paged text format resolving images under imgDir
func NewPagedText(imgDir string, log *zap.SugaredLogger) *PagedText {
	return &PagedText{imgDir: imgDir, log: log}
}

// ProcessStructure renders nodes into the annotated text stream
func (p *PagedText) ProcessStructure(nodes []*Node) string {
	return ProcessStructure(p, nodes)
}

// Images returns absolute paths of embedded images in document order
func (p *PagedText) Images() []string { return p.images }

// Headings returns the heading texts in document order
func (p *PagedText) Headings() []string { return p.headings }

func (p *PagedText) EscapeText(s string) string { return s }

func (p *PagedText) RenderElement(n *Node, content string) string {
	switch n.Tag() {
	case "p", "div":
		return "\n" + content + "\n"
	case "h1", "h2", "h3", "title":
		heading, images := splitImageLines(content)
		var out strings.Builder
		if heading != "" || len(images) == 0 {
			p.headings = append(p.headings, heading)
			out.WriteString("\n" + headingOpen + heading + headingClose + "\n")
		}
		// images are placed after the heading, never inside it
		for _, img := range images {
			out.WriteString("\n" + img + "\n")
		}
		return out.String()
	case "br":
		return "\n"
	case "hr":
		return "\n" + rule + "\n"
	case "blockquote":
		var lines []string
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, "    "+line)
			}
		}
		return "\n" + strings.Join(lines, "\n") + "\n"
	}
	return content
}

// splitImageLines separates [IMAGE: name] lines from the rest of content
func splitImageLines(content string) (string, []string) {
	var text, images []string
	for _, line := range strings.Split(content, "\n") {
		if imagePattern.MatchString(strings.TrimSpace(line)) {
			images = append(images, strings.TrimSpace(line))
			continue
		}
		text = append(text, line)
	}
	return strings.TrimSpace(strings.Join(text, "\n")), images
}

func (p *PagedText) RenderImage(n *Node) string {
	src := n.ImageSrc()
	if src == "" {
		return ""
	}
	path, ok := resolveImage(p.imgDir, src)
	if !ok {
		p.log.Warnw("Image not found", "path", path)
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p.images = append(p.images, path)
	return "\n" + imagePrefix + filepath.Base(path) + "]\n"
}

func (p *PagedText) Finalize(parts []string) string {
	return strings.Join(parts, "")
}

// ParseContentWithHeadings splits rendered paged text into lines.
func (p *PagedText) ParseContentWithHeadings(s string) []Line {
	return ParseContentWithHeadings(s)
}

// Line is one non-blank line of paged text
type Line struct {
	Text    string
	Heading bool
}

// ImageName returns the file name of an [IMAGE: name] line
func (l Line) ImageName() (string, bool) {
	if l.Heading {
		return "", false
	}
	m := imagePattern.FindStringSubmatch(l.Text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseContentWithHeadings splits s on heading markers in document order and
// returns its non-blank trimmed lines, flagging those inside a heading.
func ParseContentWithHeadings(s string) []Line {
	var lines []Line
	pos := 0
	for _, m := range headingPattern.FindAllStringSubmatchIndex(s, -1) {
		lines = appendLines(lines, s[pos:m[0]], false)
		lines = appendLines(lines, s[m[2]:m[3]], true)
		pos = m[1]
	}
	return appendLines(lines, s[pos:], false)
}

func appendLines(lines []Line, s string, heading bool) []Line {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, Line{Text: line, Heading: heading})
		}
	}
	return lines
}
