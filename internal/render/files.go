package render

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// partFiles lists {n}.{ext} files of dir with one of exts, in numeric order
func partFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	type part struct {
		index int
		path  string
	}
	var parts []part
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !allowed[strings.ToLower(ext)] {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(name, ext))
		if err != nil || idx < 0 {
			continue
		}
		parts = append(parts, part{idx, filepath.Join(dir, name)})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.path
	}
	return out, nil
}

// writeFile builds path through a .part file, so a failed write never leaves
// a truncated document behind
func writeFile(path string, write func(io.Writer) error) error {
	tmp := path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
