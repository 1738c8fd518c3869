package gcn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/textbite/checkpoint"
	"github.com/tsawler/textbite/graph"
)

// Checkpoint identity for the joiner model.
const (
	ModelName = "GraphModel"
	Role      = "joiner"
)

// Model errors.
var (
	ErrEmptyGraph = errors.New("gcn: graph has no nodes")
)

// Config holds the joiner architecture.
type Config struct {
	// InputDim is the node feature width (default: graph.FeatureDim)
	InputDim int

	// HiddenDim is the width of hidden layers (default: 128)
	HiddenDim int

	// OutputDim is the embedding width of the last layer (default: 128)
	OutputDim int

	// Layers is the number of graph convolution layers (default: 3)
	Layers int

	// Dropout is the rate applied to hidden activations during training
	// (default: 0.0)
	Dropout float64

	// Seed initializes the weight RNG (default: 42)
	Seed int64
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		InputDim:  graph.FeatureDim,
		HiddenDim: 128,
		OutputDim: 128,
		Layers:    3,
		Dropout:   0.0,
		Seed:      42,
	}
}

// GraphModel is the edge-scoring graph convolutional network.
type GraphModel struct {
	config  Config
	weights []*mat.Dense
	rng     *rand.Rand
}

// NewGraphModel creates a joiner with default configuration and randomly
// initialized weights.
func NewGraphModel() *GraphModel {
	return NewGraphModelWithConfig(DefaultConfig())
}

// NewGraphModelWithConfig creates a joiner with custom configuration.
func NewGraphModelWithConfig(config Config) *GraphModel {
	if config.Layers < 1 {
		config.Layers = 1
	}
	m := &GraphModel{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
	for l := 0; l < config.Layers; l++ {
		in := config.HiddenDim
		out := config.HiddenDim
		if l == 0 {
			in = config.InputDim
		}
		if l == config.Layers-1 {
			out = config.OutputDim
		}
		m.weights = append(m.weights, glorot(m.rng, in, out))
	}
	return m
}

// Config returns the model's configuration.
func (m *GraphModel) Config() Config {
	return m.config
}

// glorot initializes a weight matrix uniformly in the Glorot range.
func glorot(rng *rand.Rand, in, out int) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(in, out, data)
}

// forwardCache stores the intermediates backward needs.
type forwardCache struct {
	ahat   *mat.Dense
	inputs []*mat.Dense // Â·H per layer, before the weight product
	pre    []*mat.Dense // pre-activation per layer
	masks  []*mat.Dense // dropout mask per hidden layer, nil when off
}

// forward runs the network over one graph and returns the node embeddings.
func (m *GraphModel) forward(g *graph.PageGraph, train bool) (*mat.Dense, *forwardCache, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, nil, ErrEmptyGraph
	}

	x := mat.NewDense(n, m.config.InputDim, nil)
	for i, features := range g.NodeFeatures {
		if len(features) != m.config.InputDim {
			return nil, nil, fmt.Errorf("gcn: node %d has %d features, model expects %d",
				i, len(features), m.config.InputDim)
		}
		x.SetRow(i, features)
	}

	cache := &forwardCache{ahat: normalizedAdjacency(g)}
	h := x
	for l, w := range m.weights {
		agg := &mat.Dense{}
		agg.Mul(cache.ahat, h)

		z := &mat.Dense{}
		z.Mul(agg, w)

		cache.inputs = append(cache.inputs, agg)
		cache.pre = append(cache.pre, z)

		if l == len(m.weights)-1 {
			h = z
			cache.masks = append(cache.masks, nil)
			continue
		}

		a := &mat.Dense{}
		a.Apply(func(_, _ int, v float64) float64 {
			return math.Max(v, 0)
		}, z)

		var mask *mat.Dense
		if train && m.config.Dropout > 0 {
			mask = m.dropoutMask(a)
			a.MulElem(a, mask)
		}
		cache.masks = append(cache.masks, mask)
		h = a
	}

	return h, cache, nil
}

// dropoutMask samples an inverted dropout mask shaped like a.
func (m *GraphModel) dropoutMask(a *mat.Dense) *mat.Dense {
	rows, cols := a.Dims()
	keep := 1 - m.config.Dropout
	mask := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if m.rng.Float64() < keep {
				mask.Set(i, j, 1/keep)
			}
		}
	}
	return mask
}

// backward propagates the embedding gradient through the network and
// returns one gradient matrix per weight.
func (m *GraphModel) backward(cache *forwardCache, dOut *mat.Dense) []*mat.Dense {
	grads := make([]*mat.Dense, len(m.weights))
	dH := dOut
	for l := len(m.weights) - 1; l >= 0; l-- {
		dZ := dH
		if l < len(m.weights)-1 {
			masked := dH
			if cache.masks[l] != nil {
				masked = &mat.Dense{}
				masked.MulElem(dH, cache.masks[l])
			}
			pre := cache.pre[l]
			relu := &mat.Dense{}
			relu.Apply(func(i, j int, v float64) float64 {
				if pre.At(i, j) > 0 {
					return v
				}
				return 0
			}, masked)
			dZ = relu
		}

		gw := &mat.Dense{}
		gw.Mul(cache.inputs[l].T(), dZ)
		grads[l] = gw

		if l > 0 {
			tmp := &mat.Dense{}
			tmp.Mul(dZ, m.weights[l].T())
			prev := &mat.Dense{}
			// Â is symmetric, so Â^T·x is Â·x
			prev.Mul(cache.ahat, tmp)
			dH = prev
		}
	}
	return grads
}

// lossAndGrad computes one graph's mean edge loss and weight gradients.
// Graphs without edges contribute nothing.
func (m *GraphModel) lossAndGrad(g *graph.PageGraph) (float64, []*mat.Dense, error) {
	if g.EdgeCount() == 0 {
		return 0, nil, nil
	}

	h, cache, err := m.forward(g, true)
	if err != nil {
		return 0, nil, err
	}

	n, outDim := h.Dims()
	dOut := mat.NewDense(n, outDim, nil)
	edges := float64(g.EdgeCount())

	var loss float64
	for e, edge := range g.Edges {
		u, v := edge[0], edge[1]
		logit := mat.Dot(h.RowView(u), h.RowView(v))
		label := g.Labels[e]
		loss += bceWithLogits(logit, label)

		ge := (sigmoid(logit) - label) / edges
		for j := 0; j < outDim; j++ {
			dOut.Set(u, j, dOut.At(u, j)+ge*h.At(v, j))
			dOut.Set(v, j, dOut.At(v, j)+ge*h.At(u, j))
		}
	}

	return loss / edges, m.backward(cache, dOut), nil
}

// EdgeScores returns the sigmoid probability for each candidate edge,
// aligned with g.Edges.
func (m *GraphModel) EdgeScores(g *graph.PageGraph) ([]float64, error) {
	if g.EdgeCount() == 0 {
		return nil, nil
	}

	h, _, err := m.forward(g, false)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, g.EdgeCount())
	for e, edge := range g.Edges {
		scores[e] = sigmoid(mat.Dot(h.RowView(edge[0]), h.RowView(edge[1])))
	}
	return scores, nil
}

// EdgeStats aggregates edge classification quality at a fixed threshold.
type EdgeStats struct {
	Loss      float64
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Edges     int
}

// Evaluate scores a set of labeled graphs at the given threshold.
func (m *GraphModel) Evaluate(graphs []*graph.PageGraph, threshold float64) (EdgeStats, error) {
	var stats EdgeStats
	var tp, fp, fn, tn int
	var lossSum float64

	for _, g := range graphs {
		if g.EdgeCount() == 0 {
			continue
		}
		h, _, err := m.forward(g, false)
		if err != nil {
			return stats, err
		}
		for e, edge := range g.Edges {
			logit := mat.Dot(h.RowView(edge[0]), h.RowView(edge[1]))
			label := g.Labels[e]
			lossSum += bceWithLogits(logit, label)

			predicted := sigmoid(logit) >= threshold
			actual := label >= 0.5
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && actual:
				fn++
			default:
				tn++
			}
		}
	}

	stats.Edges = tp + fp + fn + tn
	if stats.Edges == 0 {
		return stats, nil
	}

	stats.Loss = lossSum / float64(stats.Edges)
	stats.Accuracy = float64(tp+tn) / float64(stats.Edges)
	if tp+fp > 0 {
		stats.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		stats.Recall = float64(tp) / float64(tp+fn)
	}
	if stats.Precision+stats.Recall > 0 {
		stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
	}
	return stats, nil
}

// normalizedAdjacency builds D^-1/2 (A+I) D^-1/2 for a graph.
func normalizedAdjacency(g *graph.PageGraph) *mat.Dense {
	n := g.NodeCount()
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
	}
	for _, edge := range g.Edges {
		a.Set(edge[0], edge[1], 1)
		a.Set(edge[1], edge[0], 1)
	}

	dinv := make([]float64, n)
	for i := 0; i < n; i++ {
		var degree float64
		for j := 0; j < n; j++ {
			degree += a.At(i, j)
		}
		dinv[i] = 1 / math.Sqrt(degree)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, a.At(i, j)*dinv[i]*dinv[j])
		}
	}
	return a
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// bceWithLogits is the numerically stable binary cross-entropy.
func bceWithLogits(logit, label float64) float64 {
	return math.Max(logit, 0) - logit*label + math.Log1p(math.Exp(-math.Abs(logit)))
}

// snapshot is the gob-encodable form of a model's weights.
type snapshot struct {
	Config  Config
	Rows    []int
	Cols    []int
	Weights [][]float64
}

// Save writes the model to path via the checkpoint envelope.
func (m *GraphModel) Save(path string) error {
	snap := snapshot{Config: m.config}
	for _, w := range m.weights {
		rows, cols := w.Dims()
		snap.Rows = append(snap.Rows, rows)
		snap.Cols = append(snap.Cols, cols)
		data := make([]float64, rows*cols)
		copy(data, w.RawMatrix().Data)
		snap.Weights = append(snap.Weights, data)
	}
	return checkpoint.Save(path, snap)
}

// LoadGraphModel restores a model saved with Save.
func LoadGraphModel(path string) (*GraphModel, error) {
	var snap snapshot
	if err := checkpoint.Load(path, &snap); err != nil {
		return nil, err
	}
	if len(snap.Weights) != snap.Config.Layers {
		return nil, fmt.Errorf("gcn: checkpoint %s has %d weight matrices, config expects %d",
			path, len(snap.Weights), snap.Config.Layers)
	}

	m := &GraphModel{
		config: snap.Config,
		rng:    rand.New(rand.NewSource(snap.Config.Seed)),
	}
	for i, data := range snap.Weights {
		m.weights = append(m.weights, mat.NewDense(snap.Rows[i], snap.Cols[i], data))
	}
	return m, nil
}
