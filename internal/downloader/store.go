package downloader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ListDownloaded returns the sorted indices of parts already present in dir.
// A part is a regular file whose stem is a non-negative integer, so in-flight
// "3.jpg.part" files and the except name are never counted. A missing
// directory yields an empty result.
func ListDownloaded(dir, except string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int{}, nil
		}
		return nil, err
	}

	indices := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == except {
			continue
		}
		if idx, ok := partIndex(entry.Name()); ok {
			indices = append(indices, idx)
		}
	}

	sort.Ints(indices)
	return indices, nil
}

func partIndex(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// missingIndices returns [0,total) minus existing, ascending
func missingIndices(total int, existing []int) []int {
	have := make(map[int]struct{}, len(existing))
	for _, idx := range existing {
		have[idx] = struct{}{}
	}
	missing := make([]int, 0)
	for i := 0; i < total; i++ {
		if _, ok := have[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}
