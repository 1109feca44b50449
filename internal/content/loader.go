package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrNoContent is returned when a source directory holds no text parts
var ErrNoContent = errors.New("no content found")

var (
	bareKeyPattern       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	pyLiteralReplacer    = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\bTrue\b`), "true"},
		{regexp.MustCompile(`\bFalse\b`), "false"},
		{regexp.MustCompile(`\bNone\b`), "null"},
	}
)

// LoadDocument reads the downloaded text parts {n}.txt of dir in numeric
// order and concatenates their top-level nodes. Empty parts are skipped.
func LoadDocument(dir string) ([]*Node, error) {
	files, err := textParts(dir)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		parsed, err := parsePart(data)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Source = filepath.Base(path)
			}
			return nil, err
		}
		nodes = append(nodes, parsed...)
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoContent, dir)
	}
	return nodes, nil
}

func textParts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type part struct {
		index int
		path  string
	}
	var parts []part
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || filepath.Ext(name) != ".txt" {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(name, ".txt"))
		if err != nil || idx < 0 {
			continue
		}
		parts = append(parts, part{idx, filepath.Join(dir, name)})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	paths := make([]string, len(parts))
	for i, p := range parts {
		paths[i] = p.path
	}
	return paths, nil
}

// parsePart decodes one part, retrying with FixJSON when the host served a
// JavaScript object literal instead of strict JSON
func parsePart(data []byte) ([]*Node, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	if json.Valid([]byte(text)) {
		return ParseNodes([]byte(text))
	}

	fixed := FixJSON(text)
	if !json.Valid([]byte(fixed)) {
		return nil, &ParseError{Err: errors.New("invalid JSON")}
	}
	return ParseNodes([]byte(fixed))
}

// FixJSON rewrites common JavaScript object literal syntax into JSON
func FixJSON(s string) string {
	s = replaceSingleQuotes(s)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	for _, lit := range pyLiteralReplacer {
		s = lit.re.ReplaceAllString(s, lit.repl)
	}
	return s
}

// replaceSingleQuotes turns unescaped ' into "
func replaceSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('"')
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
