package lm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/textbite/checkpoint"
)

// Checkpoint identity for the NSP model.
const (
	ModelName = "NSPModel"
	Role      = "nsp"
)

// NSPConfig holds the model architecture.
type NSPConfig struct {
	// VocabSize is the number of token IDs including the unknown slot
	VocabSize int

	// EmbeddingDim is the width of token embeddings (default: 64)
	EmbeddingDim int

	// Seed initializes the weight RNG (default: 42)
	Seed int64
}

// DefaultNSPConfig returns sensible default configuration for the given
// vocabulary size.
func DefaultNSPConfig(vocabSize int) NSPConfig {
	return NSPConfig{
		VocabSize:    vocabSize,
		EmbeddingDim: 64,
		Seed:         42,
	}
}

// NSPModel scores whether the second segment follows the first: an
// embedding bag per segment and a logistic head over the concatenation.
type NSPModel struct {
	Config     NSPConfig
	Embeddings [][]float64 // VocabSize x EmbeddingDim
	Head       []float64   // 2 x EmbeddingDim
	Bias       float64
}

// NewNSPModel creates a model with randomly initialized weights.
func NewNSPModel(config NSPConfig) *NSPModel {
	if config.EmbeddingDim < 1 {
		config.EmbeddingDim = 64
	}
	rng := rand.New(rand.NewSource(config.Seed))

	m := &NSPModel{Config: config}
	scale := 1 / math.Sqrt(float64(config.EmbeddingDim))
	m.Embeddings = make([][]float64, config.VocabSize)
	for i := range m.Embeddings {
		row := make([]float64, config.EmbeddingDim)
		for j := range row {
			row[j] = (rng.Float64()*2 - 1) * scale
		}
		m.Embeddings[i] = row
	}
	m.Head = make([]float64, 2*config.EmbeddingDim)
	for i := range m.Head {
		m.Head[i] = (rng.Float64()*2 - 1) * scale
	}
	return m
}

// embed averages the embeddings of a segment's token IDs. An empty segment
// embeds to zeros.
func (m *NSPModel) embed(ids []int) []float64 {
	out := make([]float64, m.Config.EmbeddingDim)
	if len(ids) == 0 {
		return out
	}
	for _, id := range ids {
		if id < 0 || id >= m.Config.VocabSize {
			id = UnknownToken
		}
		for j, v := range m.Embeddings[id] {
			out[j] += v
		}
	}
	inv := 1 / float64(len(ids))
	for j := range out {
		out[j] *= inv
	}
	return out
}

// Logit scores a segment pair. Positive means "second follows first".
func (m *NSPModel) Logit(first, second []int) float64 {
	a := m.embed(first)
	b := m.embed(second)
	d := m.Config.EmbeddingDim

	logit := m.Bias
	for j := 0; j < d; j++ {
		logit += m.Head[j]*a[j] + m.Head[d+j]*b[j]
	}
	return logit
}

// Predict returns the probability that the second segment follows the first.
func (m *NSPModel) Predict(first, second []int) float64 {
	return sigmoid(m.Logit(first, second))
}

// nspGrads accumulates gradients across a batch.
type nspGrads struct {
	embeddings map[int][]float64
	head       []float64
	bias       float64
}

func newNSPGrads(dim int) *nspGrads {
	return &nspGrads{
		embeddings: make(map[int][]float64),
		head:       make([]float64, 2*dim),
	}
}

// accumulate adds one sample's gradient of the summed BCE loss and returns
// the sample's loss term.
func (m *NSPModel) accumulate(g *nspGrads, first, second []int, label float64) float64 {
	a := m.embed(first)
	b := m.embed(second)
	d := m.Config.EmbeddingDim

	logit := m.Bias
	for j := 0; j < d; j++ {
		logit += m.Head[j]*a[j] + m.Head[d+j]*b[j]
	}

	dLogit := sigmoid(logit) - label
	g.bias += dLogit
	for j := 0; j < d; j++ {
		g.head[j] += dLogit * a[j]
		g.head[d+j] += dLogit * b[j]
	}

	m.accumulateSegment(g, first, dLogit, 0)
	m.accumulateSegment(g, second, dLogit, d)

	return bceWithLogits(logit, label)
}

// accumulateSegment spreads a segment's embedding gradient over its tokens.
func (m *NSPModel) accumulateSegment(g *nspGrads, ids []int, dLogit float64, headOffset int) {
	if len(ids) == 0 {
		return
	}
	inv := 1 / float64(len(ids))
	d := m.Config.EmbeddingDim
	for _, id := range ids {
		if id < 0 || id >= m.Config.VocabSize {
			id = UnknownToken
		}
		row, ok := g.embeddings[id]
		if !ok {
			row = make([]float64, d)
			g.embeddings[id] = row
		}
		for j := 0; j < d; j++ {
			row[j] += dLogit * m.Head[headOffset+j] * inv
		}
	}
}

// norm returns the global L2 norm of the accumulated gradients.
func (g *nspGrads) norm() float64 {
	var sum float64
	for _, row := range g.embeddings {
		for _, v := range row {
			sum += v * v
		}
	}
	for _, v := range g.head {
		sum += v * v
	}
	sum += g.bias * g.bias
	return math.Sqrt(sum)
}

// scale multiplies every gradient by f.
func (g *nspGrads) scale(f float64) {
	for _, row := range g.embeddings {
		for j := range row {
			row[j] *= f
		}
	}
	for j := range g.head {
		g.head[j] *= f
	}
	g.bias *= f
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func bceWithLogits(logit, label float64) float64 {
	return math.Max(logit, 0) - logit*label + math.Log1p(math.Exp(-math.Abs(logit)))
}

// Save writes the model via the checkpoint envelope.
func (m *NSPModel) Save(path string) error {
	return checkpoint.Save(path, m)
}

// LoadNSPModel restores a model saved with Save.
func LoadNSPModel(path string) (*NSPModel, error) {
	var m NSPModel
	if err := checkpoint.Load(path, &m); err != nil {
		return nil, err
	}
	if len(m.Embeddings) != m.Config.VocabSize {
		return nil, fmt.Errorf("lm: checkpoint %s has %d embedding rows, config expects %d",
			path, len(m.Embeddings), m.Config.VocabSize)
	}
	return &m, nil
}
