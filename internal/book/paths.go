package book

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ImageFolder is the side folder for images referenced by text parts
const ImageFolder = "images"

var invalidPathChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Paths is the working/output directory pair for one book
type Paths struct {
	Filename string
	Source   string
	Output   string
}

// NewPaths builds the directory pair for a title and creates both directories
func NewPaths(title, sourceRoot, outputDir string) (Paths, error) {
	name := SanitizeFilename(title)
	if name == "" {
		name = "book"
	}
	p := Paths{
		Filename: name,
		Source:   filepath.Join(sourceRoot, name),
		Output:   outputDir,
	}
	if err := p.MakeDirs(); err != nil {
		return Paths{}, err
	}
	return p, nil
}

// MakeDirs ensures both directories exist
func (p Paths) MakeDirs() error {
	for _, dir := range []string{p.Source, p.Output} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ImageDir is the images side folder inside the source directory
func (p Paths) ImageDir() string {
	return filepath.Join(p.Source, ImageFolder)
}

// OutputFile returns the output path for the given extension (without dot)
func (p Paths) OutputFile(ext string) string {
	return filepath.Join(p.Output, p.Filename+"."+ext)
}

// SanitizeFilename removes characters invalid in file names
func SanitizeFilename(name string) string {
	name = invalidPathChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > 100 {
		name = strings.TrimSpace(string(r[:100]))
	}
	return name
}
