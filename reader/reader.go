package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discovery errors.
var (
	ErrNoPages = errors.New("reader: no pages found")
)

// imageExtensions are the recognized page scan formats.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// PageFiles holds the file paths belonging to one document page.
// Paths are empty when the corresponding directory was not searched or the
// file is absent.
type PageFiles struct {
	// ID is the shared file stem
	ID string

	// Image is the page scan path
	Image string

	// XML is the layout (PAGE XML) path
	XML string

	// ALTO is the OCR export path
	ALTO string
}

// Discover pairs page files across the given directories by file stem.
// Empty directory arguments are skipped; at least one must be non-empty.
// Pages are returned sorted by ID so downstream output is deterministic.
func Discover(imagesDir, xmlDir, altoDir string) ([]PageFiles, error) {
	pages := make(map[string]*PageFiles)

	collect := func(dir string, assign func(*PageFiles, string), images bool) error {
		if dir == "" {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if images && !imageExtensions[ext] {
				continue
			}
			if !images && ext != ".xml" {
				continue
			}
			id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			page, ok := pages[id]
			if !ok {
				page = &PageFiles{ID: id}
				pages[id] = page
			}
			assign(page, filepath.Join(dir, entry.Name()))
		}
		return nil
	}

	if err := collect(imagesDir, func(p *PageFiles, path string) { p.Image = path }, true); err != nil {
		return nil, err
	}
	if err := collect(xmlDir, func(p *PageFiles, path string) { p.XML = path }, false); err != nil {
		return nil, err
	}
	if err := collect(altoDir, func(p *PageFiles, path string) { p.ALTO = path }, false); err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	result := make([]PageFiles, 0, len(pages))
	for _, page := range pages {
		result = append(result, *page)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// ValidateDirs checks that every non-empty path exists and is a directory.
// Commands call this before creating any output, so a typo in an input path
// never leaves partial results behind.
func ValidateDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("input path %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input path %s: not a directory", dir)
		}
	}
	return nil
}

// ValidateFiles checks that every non-empty path exists and is a regular file.
func ValidateFiles(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("input path %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("input path %s: is a directory", path)
		}
	}
	return nil
}
