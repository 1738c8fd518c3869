package detect

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/tsawler/textbite/checkpoint"
	"github.com/tsawler/textbite/model"
)

// Checkpoint identity for the detector's scorer.
const (
	ModelName = "RegionDetector"
	Role      = "detector"
)

// ScorerFeatureDim is the number of features the scorer consumes per region.
const ScorerFeatureDim = 8

// Scorer assigns a confidence in [0, 1] to a candidate region using a
// logistic model over its geometric and OCR features.
type Scorer struct {
	Weights []float64
	Bias    float64

	// Epoch is the training epoch this scorer was checkpointed at
	Epoch int
}

// NewScorer returns a scorer with hand-tuned prior weights, used when no
// trained checkpoint is available. The priors favour regions with several
// lines, plausible fill, and confident OCR.
func NewScorer() *Scorer {
	return &Scorer{
		Weights: []float64{0.5, 0.5, 0.0, 0.0, 1.5, 1.0, 2.0, -0.1},
		Bias:    -0.5,
	}
}

// Score returns the confidence for a feature vector.
func (s *Scorer) Score(features []float64) float64 {
	z := s.Bias
	n := len(s.Weights)
	if len(features) < n {
		n = len(features)
	}
	for i := 0; i < n; i++ {
		z += s.Weights[i] * features[i]
	}
	return sigmoid(z)
}

// Save writes the scorer to saveDir under the conventional checkpoint name.
func (s *Scorer) Save(saveDir string) (string, error) {
	path := filepath.Join(saveDir, checkpoint.Name(ModelName, Role, s.Epoch))
	if err := checkpoint.Save(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// LoadScorer reads a scorer checkpoint from path.
func LoadScorer(path string) (*Scorer, error) {
	var s Scorer
	if err := checkpoint.Load(path, &s); err != nil {
		return nil, err
	}
	if len(s.Weights) == 0 {
		return nil, fmt.Errorf("checkpoint %s: empty scorer weights", path)
	}
	return &s, nil
}

// RegionFeatures extracts the scorer's feature vector for a candidate
// region on a page of the given dimensions.
func RegionFeatures(region *model.Region, pageWidth, pageHeight float64) []float64 {
	features := make([]float64, ScorerFeatureDim)
	if pageWidth <= 0 || pageHeight <= 0 {
		return features
	}

	bbox := region.BBox
	center := bbox.Center()

	features[0] = bbox.Width / pageWidth
	features[1] = bbox.Height / pageHeight
	features[2] = center.X / pageWidth
	features[3] = center.Y / pageHeight
	features[4] = math.Min(float64(region.LineCount())/20.0, 1.0)

	// Fill ratio: how much of the region's height is covered by line boxes
	if bbox.Height > 0 {
		covered := 0.0
		for _, line := range region.Lines {
			covered += line.BBox.Height
		}
		features[5] = math.Min(covered/bbox.Height, 1.0)
	}

	// Mean OCR confidence
	if len(region.Lines) > 0 {
		total := 0.0
		for _, line := range region.Lines {
			total += line.Confidence
		}
		features[6] = total / float64(len(region.Lines))
	}

	// Aspect ratio, capped so extreme strips do not dominate
	if bbox.Height > 0 {
		features[7] = math.Min(bbox.Width/bbox.Height, 10.0)
	}

	return features
}

// sigmoid is the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
