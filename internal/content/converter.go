package content

import "strings"

// Format renders the pieces of a content tree for one output type
type Format interface {
	// EscapeText prepares a text run for insertion
	EscapeText(s string) string
	// RenderElement wraps the already rendered content of an element
	RenderElement(n *Node, content string) string
	// RenderImage renders an image node, or "" to drop it
	RenderImage(n *Node) string
	// Finalize joins the rendered top-level parts into a document body
	Finalize(parts []string) string
}

// ProcessStructure renders every top-level node and finalizes the result.
// Empty renderings are not passed to Finalize.
func ProcessStructure(f Format, nodes []*Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if out := ProcessNode(f, n); out != "" {
			parts = append(parts, out)
		}
	}
	return f.Finalize(parts)
}

// ProcessNode renders one node and its subtree
func ProcessNode(f Format, n *Node) string {
	switch n.Kind() {
	case KindText:
		return f.EscapeText(n.Text())
	case KindImage:
		return f.RenderImage(n)
	}

	var b strings.Builder
	for _, item := range n.Items() {
		b.WriteString(ProcessNode(f, item))
	}
	return f.RenderElement(n, b.String())
}
