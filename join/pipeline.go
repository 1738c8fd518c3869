package join

import (
	"image"

	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/model"
)

// Pipeline is the end-to-end inference path for one page: region detection,
// graph construction, edge scoring, and merging into bites.
//
// Training consumes precomputed graph artifacts instead; the pipeline is an
// inference-only composition.
type Pipeline struct {
	detector *detect.Detector
	builder  *graph.Builder
	joiner   *Joiner
}

// NewPipeline assembles a pipeline from its stages.
func NewPipeline(detector *detect.Detector, builder *graph.Builder, joiner *Joiner) *Pipeline {
	return &Pipeline{
		detector: detector,
		builder:  builder,
		joiner:   joiner,
	}
}

// ProcessPage runs the full pipeline on one page. The image may be nil; it
// is only used for OCR fill-in when the detector has an OCR client.
func (p *Pipeline) ProcessPage(page *model.Page, img image.Image) ([]model.Bite, error) {
	regions, err := p.detector.DetectPage(page, img)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, nil
	}

	g := p.builder.Build(page, regions)
	return p.joiner.Join(g, page)
}
