package detect

import (
	"fmt"
	"image"
	"sort"

	"github.com/tsawler/textbite/model"
	"github.com/tsawler/textbite/ocr"
	"github.com/tsawler/textbite/reader"
)

// DetectorConfig holds configuration for the detection stage
type DetectorConfig struct {
	// Proposer is the region proposal configuration
	Proposer ProposerConfig

	// MinConfidence drops candidate regions scoring below this value
	// (default: 0.25)
	MinConfidence float64

	// TitleHeightFactor marks a short region as a title when its average
	// line height exceeds this multiple of the page median (default: 1.5)
	TitleHeightFactor float64

	// TitleMaxLines is the maximum number of lines a title region may have
	// (default: 2)
	TitleMaxLines int
}

// DefaultDetectorConfig returns sensible default configuration
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Proposer:          DefaultProposerConfig(),
		MinConfidence:     0.25,
		TitleHeightFactor: 1.5,
		TitleMaxLines:     2,
	}
}

// Detector runs the full detection stage: proposal, scoring, classification,
// and optional OCR fill-in for regions without transcriptions.
type Detector struct {
	config   DetectorConfig
	proposer *Proposer
	scorer   *Scorer
	ocr      *ocr.Client
}

// NewDetector creates a detector with default configuration and the given
// scorer. Pass NewScorer() when no trained checkpoint is available.
func NewDetector(scorer *Scorer) *Detector {
	return NewDetectorWithConfig(DefaultDetectorConfig(), scorer)
}

// NewDetectorWithConfig creates a detector with custom configuration
func NewDetectorWithConfig(config DetectorConfig, scorer *Scorer) *Detector {
	return &Detector{
		config:   config,
		proposer: NewProposerWithConfig(config.Proposer),
		scorer:   scorer,
	}
}

// WithOCR attaches an OCR client used to transcribe regions whose lines
// carry no ALTO text. The caller keeps ownership of the client.
func (d *Detector) WithOCR(client *ocr.Client) *Detector {
	d.ocr = client
	return d
}

// DetectPage detects regions on a page from its OCR text lines. The page
// image may be nil; it is only consulted when OCR fill-in is enabled.
// Returned regions are sorted by position and carry deterministic IDs.
func (d *Detector) DetectPage(page *model.Page, img image.Image) ([]*model.Region, error) {
	groups := d.proposer.Propose(page.Lines)
	if len(groups) == 0 {
		return nil, nil
	}

	medianHeight := medianLineHeight(page.Lines)

	var regions []*model.Region
	for _, group := range groups {
		region := &model.Region{
			Kind:  model.RegionKindText,
			BBox:  groupBBox(group),
			Lines: group,
		}

		region.Confidence = d.scorer.Score(RegionFeatures(region, page.Width, page.Height))
		if region.Confidence < d.config.MinConfidence {
			continue
		}

		if d.isTitle(region, medianHeight) {
			region.Kind = model.RegionKindTitle
		}

		regions = append(regions, region)
	}

	// IDs are assigned before OCR fill-in so OCR errors can name the region
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].BBox.Y != regions[j].BBox.Y {
			return regions[i].BBox.Y < regions[j].BBox.Y
		}
		return regions[i].BBox.X < regions[j].BBox.X
	})
	for i, region := range regions {
		region.ID = fmt.Sprintf("%s-r%03d", page.ID, i)
	}

	if d.ocr != nil && img != nil {
		for _, region := range regions {
			if region.Text() != "" {
				continue
			}
			if err := d.fillText(region, img); err != nil {
				return nil, err
			}
		}
	}

	return regions, nil
}

// isTitle applies the title heuristic: few lines, noticeably taller type
// than the page median.
func (d *Detector) isTitle(region *model.Region, medianHeight float64) bool {
	if medianHeight <= 0 {
		return false
	}
	if region.LineCount() == 0 || region.LineCount() > d.config.TitleMaxLines {
		return false
	}
	return region.AverageLineHeight() > medianHeight*d.config.TitleHeightFactor
}

// fillText transcribes a region by cropping it from the page image and
// running OCR on the crop.
func (d *Detector) fillText(region *model.Region, img image.Image) error {
	crop := reader.CropRegion(img, region.BBox)
	data, err := reader.EncodePNG(crop)
	if err != nil {
		return err
	}

	text, err := d.ocr.RecognizeRegion(data)
	if err != nil {
		return fmt.Errorf("OCR for region %s: %w", region.ID, err)
	}
	if text == "" || len(region.Lines) == 0 {
		return nil
	}

	// A single transcription for the whole region is attached to its first
	// line; per-line OCR alignment is not attempted here.
	region.Lines[0].Text = text
	return nil
}

// medianLineHeight returns the median height of the page's lines.
func medianLineHeight(lines []model.TextLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	heights := make([]float64, len(lines))
	for i, line := range lines {
		heights[i] = line.BBox.Height
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}
