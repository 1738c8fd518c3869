// Package textbite provides a fluent API for segmenting scanned document
// pages into semantically coherent text segments ("bites").
//
// Basic usage:
//
//	bites, err := textbite.Open("xmls/").
//	    Images("scans/").
//	    Joiner("models/GraphModel-joiner-checkpoint.10.pth").
//	    Bites()
//	if err != nil {
//	    // handle error
//	}
//
// Detection only:
//
//	regions, err := textbite.Open("xmls/").Regions()
//
// For batch jobs the lower-level detect, graph, gcn, and join packages are
// also available; the cmd/textbite CLI is built on them.
package textbite

import (
	"fmt"
	"image"

	"github.com/tsawler/textbite/alto"
	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/gcn"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/join"
	"github.com/tsawler/textbite/model"
	"github.com/tsawler/textbite/pagexml"
	"github.com/tsawler/textbite/reader"
)

// Segmenter is the fluent pipeline builder returned by Open. Configure it
// with the chainable methods, then call a terminal operation (Pages,
// Regions, Bites). Errors from configuration surface at the terminal call.
type Segmenter struct {
	options segmentOptions
}

// Open points the pipeline at a directory of PAGE XML layout files and
// returns a Segmenter for fluent configuration.
//
// Example:
//
//	bites, err := textbite.Open("xmls/").Bites()
func Open(xmlDir string) *Segmenter {
	options := defaultOptions()
	options.xmlDir = xmlDir
	return &Segmenter{options: options}
}

// OpenAltos points the pipeline at a directory of ALTO files instead of
// PAGE XML.
func OpenAltos(altoDir string) *Segmenter {
	options := defaultOptions()
	options.altoDir = altoDir
	return &Segmenter{options: options}
}

// Pages parses all discovered pages, sorted by page ID.
func (s *Segmenter) Pages() ([]*model.Page, error) {
	files, err := s.discover()
	if err != nil {
		return nil, err
	}

	pages := make([]*model.Page, 0, len(files))
	for _, f := range files {
		page, err := loadPage(f)
		if err != nil {
			return nil, err
		}
		if page != nil {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// Regions runs detection on every page and returns the regions keyed by
// page ID.
func (s *Segmenter) Regions() (map[string][]*model.Region, error) {
	detector, err := s.options.buildDetector()
	if err != nil {
		return nil, err
	}

	files, err := s.discover()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*model.Region)
	for _, f := range files {
		page, err := loadPage(f)
		if err != nil {
			return nil, err
		}
		if page == nil {
			continue
		}

		img, err := s.options.loadImage(f)
		if err != nil {
			return nil, err
		}

		regions, err := detector.DetectPage(page, img)
		if err != nil {
			return nil, fmt.Errorf("detecting page %s: %w", page.ID, err)
		}
		out[page.ID] = regions
	}
	return out, nil
}

// Bites runs the full pipeline (detect, graph, join) on every page and
// returns the bites keyed by page ID. Pages with no detected regions map to
// an empty list.
func (s *Segmenter) Bites() (map[string][]model.Bite, error) {
	detector, err := s.options.buildDetector()
	if err != nil {
		return nil, err
	}
	joiner, err := s.options.buildJoiner()
	if err != nil {
		return nil, err
	}
	pipeline := join.NewPipeline(detector, graph.NewBuilderWithConfig(s.options.builder), joiner)

	files, err := s.discover()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.Bite)
	for _, f := range files {
		page, err := loadPage(f)
		if err != nil {
			return nil, err
		}
		if page == nil {
			continue
		}

		img, err := s.options.loadImage(f)
		if err != nil {
			return nil, err
		}

		bites, err := pipeline.ProcessPage(page, img)
		if err != nil {
			return nil, fmt.Errorf("segmenting page %s: %w", page.ID, err)
		}
		if bites == nil {
			bites = []model.Bite{}
		}
		out[page.ID] = bites
	}
	return out, nil
}

// discover validates the configured directories and pairs page files.
func (s *Segmenter) discover() ([]reader.PageFiles, error) {
	o := s.options
	if err := reader.ValidateDirs(o.imagesDir, o.xmlDir, o.altoDir); err != nil {
		return nil, err
	}
	return reader.Discover(o.imagesDir, o.xmlDir, o.altoDir)
}

// loadPage parses one page, preferring the layout XML over the ALTO export.
// Pages with neither file are skipped.
func loadPage(f reader.PageFiles) (*model.Page, error) {
	switch {
	case f.XML != "":
		page, err := pagexml.Open(f.XML)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.XML, err)
		}
		return page, nil
	case f.ALTO != "":
		page, err := alto.Open(f.ALTO)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.ALTO, err)
		}
		return page, nil
	default:
		return nil, nil
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	bites := textbite.Must(textbite.Open("xmls/").Bites())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// buildDetector assembles the detection stage from the options.
func (o segmentOptions) buildDetector() (*detect.Detector, error) {
	scorer := detect.NewScorer()
	if o.detectorCheckpoint != "" {
		loaded, err := detect.LoadScorer(o.detectorCheckpoint)
		if err != nil {
			return nil, err
		}
		scorer = loaded
	}
	return detect.NewDetectorWithConfig(o.detector, scorer), nil
}

// buildJoiner assembles the joining stage from the options.
func (o segmentOptions) buildJoiner() (*join.Joiner, error) {
	m := gcn.NewGraphModel()
	if o.joinerCheckpoint != "" {
		loaded, err := gcn.LoadGraphModel(o.joinerCheckpoint)
		if err != nil {
			return nil, err
		}
		m = loaded
	}
	return join.NewJoinerWithThreshold(m, o.threshold), nil
}

// loadImage loads the page scan when an images directory is configured.
func (o segmentOptions) loadImage(f reader.PageFiles) (image.Image, error) {
	if o.imagesDir == "" || f.Image == "" {
		return nil, nil
	}
	img, err := reader.LoadImage(f.Image)
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", f.Image, err)
	}
	return img, nil
}
