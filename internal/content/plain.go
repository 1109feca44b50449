package content

import "strings"

// PlainText renders each top-level block as one line of unformatted text
type PlainText struct{}

func (PlainText) EscapeText(s string) string { return s }

func (PlainText) RenderElement(n *Node, content string) string { return content }

func (PlainText) RenderImage(n *Node) string { return "" }

func (PlainText) Finalize(parts []string) string { return strings.Join(parts, "\n") }

// ProcessStructure renders nodes as plain text
func (t PlainText) ProcessStructure(nodes []*Node) string {
	return ProcessStructure(t, nodes)
}
