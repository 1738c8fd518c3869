package lm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/textbite/checkpoint"
)

// Sample is one NSP training example: two text segments and whether the
// second follows the first in the source document.
type Sample struct {
	First  string
	Second string
	Label  float64
}

// SaveSamples writes a split's samples via the checkpoint envelope.
func SaveSamples(path string, samples []Sample) error {
	return checkpoint.Save(path, samples)
}

// LoadSamples reads a split's samples written by SaveSamples.
func LoadSamples(path string) ([]Sample, error) {
	var samples []Sample
	if err := checkpoint.Load(path, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// DiscoverSplits scans a data directory for split files: filenames starting
// with "train" form the training set, filenames starting with "val" the
// validation set. Files load in sorted name order so the concatenation is
// deterministic.
func DiscoverSplits(dir string) (train, val []Sample, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var samples []Sample
		switch {
		case strings.HasPrefix(name, "train"):
			samples, err = LoadSamples(filepath.Join(dir, name))
			if err != nil {
				return nil, nil, err
			}
			train = append(train, samples...)
		case strings.HasPrefix(name, "val"):
			samples, err = LoadSamples(filepath.Join(dir, name))
			if err != nil {
				return nil, nil, err
			}
			val = append(val, samples...)
		}
	}

	if len(train) == 0 {
		return nil, nil, fmt.Errorf("no training split found in %s", dir)
	}
	return train, val, nil
}
