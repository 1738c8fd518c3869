package gcn

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tsawler/textbite/graph"
)

// toyGraph builds a labeled graph with two clusters of nodes whose features
// make the clusters separable.
func toyGraph(rng *rand.Rand) *graph.PageGraph {
	g := &graph.PageGraph{PageID: "toy"}

	for i := 0; i < 6; i++ {
		features := make([]float64, graph.FeatureDim)
		for j := range features {
			features[j] = rng.Float64() * 0.1
		}
		if i < 3 {
			features[0] = 0.9 + rng.Float64()*0.1
		} else {
			features[1] = 0.9 + rng.Float64()*0.1
		}
		g.NodeFeatures = append(g.NodeFeatures, features)
		g.Nodes = append(g.Nodes, graph.NodeMeta{ID: "n"})
	}

	for u := 0; u < 6; u++ {
		for v := u + 1; v < 6; v++ {
			g.Edges = append(g.Edges, [2]int{u, v})
			if (u < 3) == (v < 3) {
				g.Labels = append(g.Labels, 1)
			} else {
				g.Labels = append(g.Labels, 0)
			}
		}
	}
	return g
}

func toyGraphs(n int) []*graph.PageGraph {
	rng := rand.New(rand.NewSource(7))
	graphs := make([]*graph.PageGraph, n)
	for i := range graphs {
		graphs[i] = toyGraph(rng)
	}
	return graphs
}

func smallConfig() Config {
	config := DefaultConfig()
	config.HiddenDim = 16
	config.OutputDim = 16
	return config
}

func TestNormalizedAdjacency(t *testing.T) {
	g := toyGraphs(1)[0]
	a := normalizedAdjacency(g)

	rows, cols := a.Dims()
	if rows != 6 || cols != 6 {
		t.Fatalf("Expected 6x6 adjacency, got %dx%d", rows, cols)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(a.At(i, j)-a.At(j, i)) > 1e-12 {
				t.Fatalf("Adjacency not symmetric at (%d,%d)", i, j)
			}
		}
		if a.At(i, i) <= 0 {
			t.Errorf("Expected positive self loop at %d, got %f", i, a.At(i, i))
		}
	}
}

func TestEdgeScoresShapeAndRange(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	g := toyGraphs(1)[0]

	scores, err := model.EdgeScores(g)
	if err != nil {
		t.Fatalf("EdgeScores failed: %v", err)
	}
	if len(scores) != g.EdgeCount() {
		t.Fatalf("Expected %d scores, got %d", g.EdgeCount(), len(scores))
	}
	for i, s := range scores {
		if s <= 0 || s >= 1 {
			t.Errorf("Score %d outside (0,1): %f", i, s)
		}
	}
}

func TestEdgeScoresDeterministic(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	g := toyGraphs(1)[0]

	first, err := model.EdgeScores(g)
	if err != nil {
		t.Fatalf("EdgeScores failed: %v", err)
	}
	second, err := model.EdgeScores(g)
	if err != nil {
		t.Fatalf("EdgeScores failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Inference not deterministic at edge %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	train := toyGraphs(16)

	before, err := model.Evaluate(train, 0.71)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	config := DefaultTrainerConfig()
	config.Epochs = 20
	config.BatchSize = 4
	config.SaveDir = t.TempDir()
	trainer := NewTrainer(model, config, zerolog.Nop())

	if err := trainer.Train(context.Background(), train, nil); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	after, err := model.Evaluate(train, 0.71)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if after.Loss >= before.Loss {
		t.Errorf("Training did not reduce loss: before %f, after %f", before.Loss, after.Loss)
	}
}

func TestTrainWritesEpochCheckpoints(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	train := toyGraphs(4)

	config := DefaultTrainerConfig()
	config.Epochs = 3
	config.BatchSize = 2
	config.SaveDir = filepath.Join(t.TempDir(), "models")
	trainer := NewTrainer(model, config, zerolog.Nop())

	if err := trainer.Train(context.Background(), train, map[string][]*graph.PageGraph{
		"val-book": toyGraphs(2),
	}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for epoch := 1; epoch <= 3; epoch++ {
		path := filepath.Join(config.SaveDir, fmt.Sprintf("GraphModel-joiner-checkpoint.%d.pth", epoch))
		if _, err := LoadGraphModel(path); err != nil {
			t.Errorf("Epoch %d checkpoint unreadable: %v", epoch, err)
		}
	}
}

func TestTrainHonorsContext(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	trainer := NewTrainer(model, DefaultTrainerConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := trainer.Train(ctx, toyGraphs(4), nil)
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())
	g := toyGraphs(1)[0]

	want, err := model.EdgeScores(g)
	if err != nil {
		t.Fatalf("EdgeScores failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "GraphModel-joiner-checkpoint.1.pth")
	if err := model.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadGraphModel(path)
	if err != nil {
		t.Fatalf("LoadGraphModel failed: %v", err)
	}
	if loaded.Config() != model.Config() {
		t.Errorf("Config mismatch after round trip: %+v", loaded.Config())
	}

	got, err := loaded.EdgeScores(g)
	if err != nil {
		t.Fatalf("EdgeScores failed after load: %v", err)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("Score %d changed after round trip: %f vs %f", i, want[i], got[i])
		}
	}
}

func TestEvaluateEmptySplit(t *testing.T) {
	model := NewGraphModelWithConfig(smallConfig())

	stats, err := model.Evaluate(nil, 0.71)
	if err != nil {
		t.Fatalf("Evaluate failed on empty split: %v", err)
	}
	if stats.Edges != 0 || stats.Loss != 0 {
		t.Errorf("Expected zero stats for empty split, got %+v", stats)
	}
}
