package textbite

import (
	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/join"
)

// segmentOptions holds the fluent API's accumulated configuration.
type segmentOptions struct {
	// Input directories; empty ones are skipped during discovery
	imagesDir string
	xmlDir    string
	altoDir   string

	// Checkpoints; empty means untrained defaults
	detectorCheckpoint string
	joinerCheckpoint   string

	// Stage configuration
	detector  detect.DetectorConfig
	builder   graph.BuilderConfig
	threshold float64
}

// defaultOptions returns the default pipeline options.
func defaultOptions() segmentOptions {
	return segmentOptions{
		detector:  detect.DefaultDetectorConfig(),
		builder:   graph.DefaultBuilderConfig(),
		threshold: join.DefaultThreshold,
	}
}

// Images sets the page scan directory. Scans are only needed for OCR
// fill-in; the geometric pipeline runs from XML alone.
func (s *Segmenter) Images(dir string) *Segmenter {
	s.options.imagesDir = dir
	return s
}

// Altos sets the ALTO directory, used for pages without layout XML.
func (s *Segmenter) Altos(dir string) *Segmenter {
	s.options.altoDir = dir
	return s
}

// Detector sets the detector checkpoint to load instead of the built-in
// prior weights.
func (s *Segmenter) Detector(checkpoint string) *Segmenter {
	s.options.detectorCheckpoint = checkpoint
	return s
}

// Joiner sets the joiner checkpoint. Without one the pipeline joins with
// untrained weights, which is only useful in tests.
func (s *Segmenter) Joiner(checkpoint string) *Segmenter {
	s.options.joinerCheckpoint = checkpoint
	return s
}

// Threshold overrides the default edge merge threshold.
func (s *Segmenter) Threshold(threshold float64) *Segmenter {
	s.options.threshold = threshold
	return s
}

// DetectorConfig overrides the detection stage configuration.
func (s *Segmenter) DetectorConfig(config detect.DetectorConfig) *Segmenter {
	s.options.detector = config
	return s
}

// BuilderConfig overrides the graph construction configuration.
func (s *Segmenter) BuilderConfig(config graph.BuilderConfig) *Segmenter {
	s.options.builder = config
	return s
}
