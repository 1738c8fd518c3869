package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/textbite/model"
)

// RegionRecord is the serialized form of one detected region.
// BBox is [x, y, width, height] in page pixels.
type RegionRecord struct {
	ID         string     `json:"id"`
	Cls        string     `json:"cls"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
	Lines      []string   `json:"lines"`
}

// PagePrediction is the per-page detection output written to the save
// directory as <page ID>.json.
type PagePrediction struct {
	Page    string         `json:"page"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
	Regions []RegionRecord `json:"regions"`
}

// NewPagePrediction builds the serializable prediction for a page.
// Regions are expected in detector output order, which is already
// deterministic.
func NewPagePrediction(page *model.Page, regions []*model.Region) PagePrediction {
	pred := PagePrediction{
		Page:    page.ID,
		Width:   page.Width,
		Height:  page.Height,
		Regions: make([]RegionRecord, 0, len(regions)),
	}

	for _, region := range regions {
		pred.Regions = append(pred.Regions, RegionRecord{
			ID:         region.ID,
			Cls:        region.Kind.String(),
			BBox:       [4]float64{region.BBox.X, region.BBox.Y, region.BBox.Width, region.BBox.Height},
			Confidence: region.Confidence,
			Lines:      region.LineIDs(),
		})
	}

	return pred
}

// Write saves the prediction to dir as <page ID>.json, creating the
// directory if absent and overwriting any previous prediction for the page.
func (p PagePrediction) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding prediction for %s: %w", p.Page, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, p.Page+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing prediction %s: %w", path, err)
	}
	return nil
}

// LoadPrediction reads a per-page prediction file.
func LoadPrediction(path string) (PagePrediction, error) {
	var pred PagePrediction
	data, err := os.ReadFile(path)
	if err != nil {
		return pred, fmt.Errorf("reading prediction %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &pred); err != nil {
		return pred, fmt.Errorf("decoding prediction %s: %w", path, err)
	}
	return pred, nil
}

// ToRegions reconstructs model regions from a prediction, resolving line IDs
// against the given page. Lines missing from the page are skipped.
func (p PagePrediction) ToRegions(page *model.Page) []*model.Region {
	regions := make([]*model.Region, 0, len(p.Regions))
	for _, rec := range p.Regions {
		region := &model.Region{
			ID:         rec.ID,
			Kind:       kindFromString(rec.Cls),
			BBox:       model.NewBBox(rec.BBox[0], rec.BBox[1], rec.BBox[2], rec.BBox[3]),
			Confidence: rec.Confidence,
		}
		for _, lineID := range rec.Lines {
			if line := page.LineByID(lineID); line != nil {
				region.Lines = append(region.Lines, *line)
			}
		}
		regions = append(regions, region)
	}
	return regions
}

// kindFromString is the inverse of RegionKind.String.
func kindFromString(s string) model.RegionKind {
	switch s {
	case "Text":
		return model.RegionKindText
	case "Title":
		return model.RegionKindTitle
	default:
		return model.RegionKindUnknown
	}
}
