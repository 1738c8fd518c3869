package graph

import (
	"math"
	"sort"

	"github.com/tsawler/textbite/model"
)

// FeatureDim is the width of each node's feature vector. The joiner model's
// input layer is sized to this; changing it invalidates existing
// checkpoints.
const FeatureDim = 16

// NodeFeatures extracts the feature vector for one region among all the
// page's regions. Features are scale-free (normalized by page dimensions or
// page statistics) so pages of different resolutions mix in one batch.
func NodeFeatures(region *model.Region, index int, all []*model.Region, page *model.Page) []float64 {
	features := make([]float64, FeatureDim)
	if page.Width <= 0 || page.Height <= 0 {
		return features
	}

	bbox := region.BBox
	center := bbox.Center()
	pageCenter := model.Point{X: page.Width / 2, Y: page.Height / 2}
	diagonal := math.Sqrt(page.Width*page.Width + page.Height*page.Height)

	features[0] = bbox.Width / page.Width
	features[1] = bbox.Height / page.Height
	features[2] = center.X / page.Width
	features[3] = center.Y / page.Height
	features[4] = bbox.Left() / page.Width
	features[5] = bbox.Top() / page.Height
	features[6] = bbox.Right() / page.Width
	features[7] = bbox.Bottom() / page.Height

	features[8] = math.Min(float64(region.LineCount())/20.0, 1.0)
	features[9] = math.Min(float64(len(region.Text()))/2000.0, 1.0)
	features[10] = region.Confidence
	if region.Kind == model.RegionKindTitle {
		features[11] = 1.0
	}

	// Position within the page's reading order
	if len(all) > 1 {
		features[12] = float64(index) / float64(len(all)-1)
	}

	// Distance from the page center, normalized by the page diagonal
	if diagonal > 0 {
		features[13] = center.Distance(pageCenter) / diagonal
	}

	// Region size relative to the page median
	medianW, medianH := medianRegionSize(all)
	if medianW > 0 {
		features[14] = math.Min(bbox.Width/medianW, 4.0) / 4.0
	}
	if medianH > 0 {
		features[15] = math.Min(bbox.Height/medianH, 4.0) / 4.0
	}

	return features
}

// medianRegionSize returns the median width and height over all regions.
func medianRegionSize(regions []*model.Region) (float64, float64) {
	if len(regions) == 0 {
		return 0, 0
	}
	widths := make([]float64, len(regions))
	heights := make([]float64, len(regions))
	for i, region := range regions {
		widths[i] = region.BBox.Width
		heights[i] = region.BBox.Height
	}
	sort.Float64s(widths)
	sort.Float64s(heights)
	return widths[len(widths)/2], heights[len(heights)/2]
}
