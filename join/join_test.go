package join

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/gcn"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/model"
)

func smallModel() *gcn.GraphModel {
	config := gcn.DefaultConfig()
	config.HiddenDim = 16
	config.OutputDim = 16
	return gcn.NewGraphModelWithConfig(config)
}

func testGraph() *graph.PageGraph {
	g := &graph.PageGraph{PageID: "page-001"}
	for i := 0; i < 4; i++ {
		features := make([]float64, graph.FeatureDim)
		features[0] = float64(i) / 4
		g.NodeFeatures = append(g.NodeFeatures, features)
	}
	g.Nodes = []graph.NodeMeta{
		{ID: "r0", Cls: "Title", BBox: [4]float64{100, 100, 800, 50}, Lines: []string{"l0"}},
		{ID: "r1", Cls: "Text", BBox: [4]float64{100, 170, 800, 100}, Lines: []string{"l1", "l2"}},
		{ID: "r2", Cls: "Text", BBox: [4]float64{100, 290, 800, 100}, Lines: []string{"l3"}},
		{ID: "r3", Cls: "Text", BBox: [4]float64{100, 900, 800, 100}, Lines: []string{"l4"}},
	}
	g.Edges = [][2]int{{0, 1}, {1, 2}, {2, 3}}
	return g
}

func TestJoinMergesEverythingAtZeroThreshold(t *testing.T) {
	joiner := NewJoinerWithThreshold(smallModel(), 0)

	bites, err := joiner.Join(testGraph(), nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(bites) != 1 {
		t.Fatalf("Expected 1 bite, got %d", len(bites))
	}

	bite := bites[0]
	if bite.LineCount() != 5 {
		t.Errorf("Expected 5 lines, got %d", bite.LineCount())
	}
	if bite.Kind != model.RegionKindTitle || bite.Cls != "Title" {
		t.Errorf("Title region should classify the merged bite, got %s", bite.Cls)
	}
	if bite.BBox.Top() != 100 || bite.BBox.Bottom() != 1000 {
		t.Errorf("Unexpected merged bbox: %+v", bite.BBox)
	}
}

func TestJoinMergesNothingAboveOne(t *testing.T) {
	joiner := NewJoinerWithThreshold(smallModel(), 1.1)

	bites, err := joiner.Join(testGraph(), nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(bites) != 4 {
		t.Fatalf("Expected 4 singleton bites, got %d", len(bites))
	}

	// Reading order follows node order
	if bites[0].Lines[0] != "l0" || bites[3].Lines[0] != "l4" {
		t.Errorf("Bites out of reading order: %+v", bites)
	}
	if bites[1].Cls != "Text" {
		t.Errorf("Singleton bite kept wrong class: %s", bites[1].Cls)
	}
}

func TestJoinFillsTextFromPage(t *testing.T) {
	page := model.NewPage("page-001", 1000, 1400)
	page.AddLine(model.TextLine{ID: "l0", Text: "Chapter One"})
	page.AddLine(model.TextLine{ID: "l1", Text: "It was a dark"})
	page.AddLine(model.TextLine{ID: "l2", Text: "and stormy night."})

	joiner := NewJoinerWithThreshold(smallModel(), 0)
	bites, err := joiner.Join(testGraph(), page)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(bites) != 1 {
		t.Fatalf("Expected 1 bite, got %d", len(bites))
	}
	want := "Chapter One\nIt was a dark\nand stormy night."
	if bites[0].Text != want {
		t.Errorf("Unexpected bite text: %q", bites[0].Text)
	}
}

func TestJoinEmptyGraph(t *testing.T) {
	joiner := NewJoiner(smallModel())
	bites, err := joiner.Join(&graph.PageGraph{PageID: "empty"}, nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if bites != nil {
		t.Errorf("Expected no bites, got %d", len(bites))
	}
}

func TestDefaultThreshold(t *testing.T) {
	joiner := NewJoiner(smallModel())
	if joiner.Threshold() != 0.71 {
		t.Errorf("Unexpected default threshold: %f", joiner.Threshold())
	}

	// Training-time validation and inference share one operating point
	if gcn.DefaultTrainerConfig().Threshold != DefaultThreshold {
		t.Errorf("Trainer default threshold diverged: %f", gcn.DefaultTrainerConfig().Threshold)
	}
}

func TestDisjointSet(t *testing.T) {
	ds := newDisjointSet(5)
	ds.union(0, 1)
	ds.union(3, 4)
	ds.union(1, 3)

	if ds.find(0) != ds.find(4) {
		t.Error("Expected 0 and 4 in the same set")
	}
	if ds.find(2) == ds.find(0) {
		t.Error("Expected 2 in its own set")
	}
}

func TestSaveBitesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	joiner := NewJoinerWithThreshold(smallModel(), 0)
	bites, err := joiner.Join(testGraph(), nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := SaveBites(dir, "page-001", bites); err != nil {
		t.Fatalf("SaveBites failed: %v", err)
	}

	loaded, err := LoadBites(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatalf("LoadBites failed: %v", err)
	}
	if len(loaded) != len(bites) {
		t.Fatalf("Expected %d bites, got %d", len(bites), len(loaded))
	}
	if loaded[0].Kind != model.RegionKindTitle {
		t.Errorf("Kind not restored from cls: %v", loaded[0].Kind)
	}
	if loaded[0].LineCount() != bites[0].LineCount() {
		t.Errorf("Line count changed in round trip: %d", loaded[0].LineCount())
	}
}

func TestSaveBitesDeterministic(t *testing.T) {
	dir := t.TempDir()
	joiner := NewJoinerWithThreshold(smallModel(), 0)
	bites, err := joiner.Join(testGraph(), nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := SaveBites(dir, "page-001", bites); err != nil {
		t.Fatalf("SaveBites failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatalf("Reading output failed: %v", err)
	}

	if err := SaveBites(dir, "page-001", bites); err != nil {
		t.Fatalf("Second SaveBites failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatalf("Reading output failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("Re-running produced different bytes")
	}
}

func TestSaveBitesEmptyPage(t *testing.T) {
	dir := t.TempDir()
	if err := SaveBites(dir, "blank", nil); err != nil {
		t.Fatalf("SaveBites failed: %v", err)
	}
	loaded, err := LoadBites(filepath.Join(dir, "blank.json"))
	if err != nil {
		t.Fatalf("LoadBites failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected no bites, got %d", len(loaded))
	}
}

func TestLineGroups(t *testing.T) {
	bites := []model.Bite{
		{Lines: []string{"l0", "l1"}},
		{Lines: []string{"l2"}},
	}
	groups := LineGroups(bites)
	if len(groups) != 2 || len(groups[0]) != 2 || groups[1][0] != "l2" {
		t.Errorf("Unexpected line groups: %v", groups)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	page := model.NewPage("page-001", 1000, 1400)
	for i := 0; i < 6; i++ {
		page.AddLine(model.TextLine{
			ID:         string(rune('a' + i)),
			Text:       "some line text",
			BBox:       model.NewBBox(100, 100+float64(i)*40, 800, 30),
			Confidence: 0.9,
		})
	}

	pipeline := NewPipeline(
		detect.NewDetector(detect.NewScorer()),
		graph.NewBuilder(),
		NewJoinerWithThreshold(smallModel(), 0),
	)

	bites, err := pipeline.ProcessPage(page, nil)
	if err != nil {
		t.Fatalf("ProcessPage failed: %v", err)
	}
	if len(bites) == 0 {
		t.Fatal("Expected at least one bite")
	}

	var lines int
	for _, bite := range bites {
		lines += bite.LineCount()
	}
	if lines != 6 {
		t.Errorf("Expected all 6 lines covered, got %d", lines)
	}
}
