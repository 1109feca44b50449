package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// softHyphen marks word-wrap opportunities in host text and is never rendered
const softHyphen = "\u00ad"

// Kind is the variant of a Node
type Kind int

const (
	// KindText is a plain run of characters
	KindText Kind = iota
	// KindElement is a tagged container with ordered content
	KindElement
	// KindImage references an image file by source name
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one element of a content tree. Nodes are built while decoding
// and never change afterwards.
//
// The host encodes a node as {"t": tag, "c": content, "s": source}. Content is
// a string, a list mixing strings and nested records, or absent.
type Node struct {
	kind  Kind
	tag   string
	text  string
	src   string
	items []*Node
}

// NewText returns a text run
func NewText(s string) *Node {
	return &Node{kind: KindText, text: stripSoftHyphens(s)}
}

// NewElement returns a tagged node with the given content items
func NewElement(tag string, items ...*Node) *Node {
	return &Node{kind: KindElement, tag: tag, items: items}
}

// NewImage returns an image reference
func NewImage(src string) *Node {
	return &Node{kind: KindImage, tag: "img", src: src}
}

func (n *Node) Kind() Kind { return n.kind }

// Tag is the host element name, empty for text runs and untyped containers
func (n *Node) Tag() string { return n.tag }

// Items returns every content item in order, text runs included
func (n *Node) Items() []*Node { return n.items }

// Children returns the nested element and image nodes, skipping text runs
func (n *Node) Children() []*Node {
	var out []*Node
	for _, item := range n.items {
		if item.kind != KindText {
			out = append(out, item)
		}
	}
	return out
}

// IsTextNode reports whether every content item is a text run
func (n *Node) IsTextNode() bool {
	if n.kind == KindText {
		return true
	}
	for _, item := range n.items {
		if item.kind != KindText {
			return false
		}
	}
	return true
}

// Text returns the node's text. Elements only have text when they hold
// nothing but text runs.
func (n *Node) Text() string {
	if n.kind == KindText {
		return n.text
	}
	if !n.IsTextNode() {
		return ""
	}
	var b strings.Builder
	for _, item := range n.items {
		b.WriteString(item.text)
	}
	return b.String()
}

// ImageSrc returns the referenced source of an image node, or "" otherwise
func (n *Node) ImageSrc() string {
	if n.kind != KindImage {
		return ""
	}
	return n.src
}

func stripSoftHyphens(s string) string {
	return strings.ReplaceAll(s, softHyphen, "")
}

func isImageTag(tag string) bool {
	return tag == "img" || tag == "image"
}

// UnmarshalJSON builds the node variant from a host record
func (n *Node) UnmarshalJSON(data []byte) error {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("node must be an object: %w", err)
	}

	var tag string
	if raw, ok := rec["t"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &tag); err != nil {
			return fmt.Errorf("node type must be a string, got %s", raw)
		}
	}

	items, err := decodeContent(rec["c"])
	if err != nil {
		return err
	}

	if isImageTag(tag) {
		*n = Node{kind: KindImage, tag: tag, src: imageSource(rec, items)}
		return nil
	}

	if tag == "" && allText(items) {
		var b strings.Builder
		for _, item := range items {
			b.WriteString(item.text)
		}
		*n = Node{kind: KindText, text: b.String()}
		return nil
	}

	// untyped records holding nested nodes are kept as anonymous containers
	*n = Node{kind: KindElement, tag: tag, items: items}
	return nil
}

// imageSource tries "s", then "src", then string content, then a nested record
func imageSource(rec map[string]json.RawMessage, items []*Node) string {
	for _, key := range []string{"s", "src"} {
		if s := stringField(rec, key); s != "" {
			return s
		}
	}
	for _, item := range items {
		if item.kind == KindText && strings.TrimSpace(item.text) != "" {
			return strings.TrimSpace(item.text)
		}
	}
	return nestedSource(rec["c"])
}

func nestedSource(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '{':
		var rec map[string]json.RawMessage
		if json.Unmarshal(raw, &rec) != nil {
			return ""
		}
		for _, key := range []string{"s", "src"} {
			if s := stringField(rec, key); s != "" {
				return s
			}
		}
	case '[':
		var elems []json.RawMessage
		if json.Unmarshal(raw, &elems) != nil {
			return ""
		}
		for _, elem := range elems {
			if s := nestedSource(elem); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringField(rec map[string]json.RawMessage, key string) string {
	raw, ok := rec[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeContent flattens the "c" value into content items
func decodeContent(raw json.RawMessage) ([]*Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []*Node{NewText(s)}, nil
	case '{':
		child := &Node{}
		if err := child.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		return []*Node{child}, nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, err
		}
		var items []*Node
		for _, elem := range elems {
			sub, err := decodeContent(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, sub...)
		}
		return items, nil
	}

	return nil, fmt.Errorf("unexpected content value %s", truncate(raw, 32))
}

func allText(items []*Node) bool {
	for _, item := range items {
		if item.kind != KindText {
			return false
		}
	}
	return true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ParseError reports a content tree that does not have the expected shape
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed content tree: %v", e.Err)
	}
	return fmt.Sprintf("malformed content tree in %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseNodes decodes the top-level records of one part file
func ParseNodes(data []byte) ([]*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] != '[' && data[0] != '{' {
		return nil, &ParseError{Err: fmt.Errorf("expected a list of nodes, got %s", truncate(data, 32))}
	}

	nodes, err := decodeContent(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return nodes, nil
}
