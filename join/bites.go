package join

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/textbite/model"
)

// SaveBites writes a page's bites as indented JSON to <dir>/<pageID>.json,
// creating the directory if needed. Output is deterministic for identical
// input, so re-runs produce byte-identical files.
func SaveBites(dir, pageID string, bites []model.Bite) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if bites == nil {
		bites = []model.Bite{}
	}
	data, err := json.MarshalIndent(bites, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bites for page %s: %w", pageID, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, pageID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bites %s: %w", path, err)
	}
	return nil
}

// LoadBites reads a page's bites from a JSON file written by SaveBites or
// by an annotation tool using the same shape.
func LoadBites(path string) ([]model.Bite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bites %s: %w", path, err)
	}

	var bites []model.Bite
	if err := json.Unmarshal(data, &bites); err != nil {
		return nil, fmt.Errorf("decoding bites %s: %w", path, err)
	}
	for i := range bites {
		bites[i].Kind = model.ParseRegionKind(bites[i].Cls)
	}
	return bites, nil
}

// LineGroups reduces bites to their line ID groups, the form ground-truth
// labeling and evaluation work with.
func LineGroups(bites []model.Bite) [][]string {
	groups := make([][]string, len(bites))
	for i, bite := range bites {
		groups[i] = bite.Lines
	}
	return groups
}
