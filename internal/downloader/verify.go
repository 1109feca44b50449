package downloader

import "fmt"

// VerifyComplete checks that parts 0..total-1 are all present in dir
func VerifyComplete(dir string, total int) error {
	existing, err := ListDownloaded(dir, "")
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	if missing := missingIndices(total, existing); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}
