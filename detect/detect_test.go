package detect

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/textbite/model"
)

// makeLine builds a test line with a given position and size.
func makeLine(id string, x, y, w, h float64) model.TextLine {
	return model.TextLine{
		ID:         id,
		Text:       "text " + id,
		BBox:       model.NewBBox(x, y, w, h),
		Confidence: 0.9,
	}
}

func TestProposerGroupsAdjacentLines(t *testing.T) {
	p := NewProposer()

	// Two paragraphs separated by a large vertical gap
	lines := []model.TextLine{
		makeLine("l1", 100, 100, 800, 30),
		makeLine("l2", 100, 140, 800, 30),
		makeLine("l3", 100, 180, 600, 30),
		makeLine("l4", 100, 400, 800, 30),
		makeLine("l5", 100, 440, 800, 30),
	}

	groups := p.Propose(lines)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 3 || len(groups[1]) != 2 {
		t.Errorf("Unexpected group sizes: %d and %d", len(groups[0]), len(groups[1]))
	}
	if groups[0][0].ID != "l1" || groups[1][0].ID != "l4" {
		t.Errorf("Unexpected group leaders: %s, %s", groups[0][0].ID, groups[1][0].ID)
	}
}

func TestProposerKeepsColumnsApart(t *testing.T) {
	p := NewProposer()

	// Two side-by-side columns with interleaved Y positions
	lines := []model.TextLine{
		makeLine("a1", 100, 100, 400, 30),
		makeLine("b1", 600, 100, 400, 30),
		makeLine("a2", 100, 140, 400, 30),
		makeLine("b2", 600, 140, 400, 30),
	}

	groups := p.Propose(lines)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 column groups, got %d", len(groups))
	}
	for _, group := range groups {
		if len(group) != 2 {
			t.Errorf("Expected 2 lines per column, got %d", len(group))
		}
		if group[0].BBox.X != group[1].BBox.X {
			t.Errorf("Column mixed lines from different X positions")
		}
	}
}

func TestProposerEmpty(t *testing.T) {
	if groups := NewProposer().Propose(nil); groups != nil {
		t.Errorf("Expected nil groups for no lines, got %v", groups)
	}
}

func TestScorerMonotonicInConfidence(t *testing.T) {
	s := NewScorer()

	confident := &model.Region{
		BBox: model.NewBBox(100, 100, 800, 300),
		Lines: []model.TextLine{
			{BBox: model.NewBBox(100, 100, 800, 90), Confidence: 0.95},
			{BBox: model.NewBBox(100, 200, 800, 90), Confidence: 0.95},
			{BBox: model.NewBBox(100, 300, 800, 90), Confidence: 0.95},
		},
	}
	doubtful := &model.Region{
		BBox: model.NewBBox(100, 100, 800, 300),
		Lines: []model.TextLine{
			{BBox: model.NewBBox(100, 100, 800, 90), Confidence: 0.1},
			{BBox: model.NewBBox(100, 200, 800, 90), Confidence: 0.1},
			{BBox: model.NewBBox(100, 300, 800, 90), Confidence: 0.1},
		},
	}

	high := s.Score(RegionFeatures(confident, 1000, 1400))
	low := s.Score(RegionFeatures(doubtful, 1000, 1400))

	if high <= low {
		t.Errorf("Expected confident region to score higher: %f vs %f", high, low)
	}
	if high < 0 || high > 1 || low < 0 || low > 1 {
		t.Errorf("Scores out of [0,1]: %f, %f", high, low)
	}
}

func TestScorerCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := NewScorer()
	s.Epoch = 4
	path, err := s.Save(dir)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "RegionDetector-detector-checkpoint.4.pth" {
		t.Errorf("Unexpected checkpoint name: %s", path)
	}

	loaded, err := LoadScorer(path)
	if err != nil {
		t.Fatalf("LoadScorer failed: %v", err)
	}
	if loaded.Epoch != 4 || len(loaded.Weights) != len(s.Weights) {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}

	features := make([]float64, ScorerFeatureDim)
	features[4] = 0.5
	if loaded.Score(features) != s.Score(features) {
		t.Error("Loaded scorer produces different scores")
	}
}

func TestDetectPage(t *testing.T) {
	page := model.NewPage("page-001", 1000, 1400)

	// A tall single headline line followed by a body paragraph
	headline := makeLine("h1", 100, 50, 800, 80)
	page.AddLine(headline)
	for i, y := range []float64{200, 240, 280, 320} {
		page.AddLine(makeLine(bodyID(i), 100, y, 800, 30))
	}

	detector := NewDetector(NewScorer())
	regions, err := detector.DetectPage(page, nil)
	if err != nil {
		t.Fatalf("DetectPage failed: %v", err)
	}

	if len(regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(regions))
	}
	if regions[0].Kind != model.RegionKindTitle {
		t.Errorf("Expected first region to be a title, got %v", regions[0].Kind)
	}
	if regions[1].Kind != model.RegionKindText {
		t.Errorf("Expected second region to be text, got %v", regions[1].Kind)
	}
	if regions[0].ID != "page-001-r000" || regions[1].ID != "page-001-r001" {
		t.Errorf("Unexpected region IDs: %s, %s", regions[0].ID, regions[1].ID)
	}
	for _, region := range regions {
		if region.Confidence <= 0 {
			t.Errorf("Region %s has no confidence", region.ID)
		}
	}
}

func bodyID(i int) string {
	return "b" + string(rune('1'+i))
}

func TestDetectPageEmpty(t *testing.T) {
	page := model.NewPage("blank", 1000, 1400)
	regions, err := NewDetector(NewScorer()).DetectPage(page, nil)
	if err != nil {
		t.Fatalf("DetectPage failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("Expected no regions on a blank page, got %d", len(regions))
	}
}

func TestPredictionWriteIsIdempotent(t *testing.T) {
	page := model.NewPage("page-001", 1000, 1400)
	page.AddLine(makeLine("l1", 100, 100, 800, 30))
	page.AddLine(makeLine("l2", 100, 140, 800, 30))

	detector := NewDetector(NewScorer())
	regions, err := detector.DetectPage(page, nil)
	if err != nil {
		t.Fatalf("DetectPage failed: %v", err)
	}

	dir := t.TempDir()
	pred := NewPagePrediction(page, regions)
	if err := pred.Write(dir); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatal(err)
	}

	// Re-run detection and write again: output must be byte-identical
	regions2, err := detector.DetectPage(page, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewPagePrediction(page, regions2).Write(dir); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("Re-running detection changed the prediction file")
	}
}

func TestPredictionRoundTrip(t *testing.T) {
	page := model.NewPage("page-001", 1000, 1400)
	page.AddLine(makeLine("l1", 100, 100, 800, 30))
	page.AddLine(makeLine("l2", 100, 140, 800, 30))

	detector := NewDetector(NewScorer())
	regions, err := detector.DetectPage(page, nil)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := NewPagePrediction(page, regions).Write(dir); err != nil {
		t.Fatal(err)
	}

	pred, err := LoadPrediction(filepath.Join(dir, "page-001.json"))
	if err != nil {
		t.Fatalf("LoadPrediction failed: %v", err)
	}

	restored := pred.ToRegions(page)
	if len(restored) != len(regions) {
		t.Fatalf("Expected %d regions, got %d", len(regions), len(restored))
	}
	if restored[0].ID != regions[0].ID || restored[0].LineCount() != regions[0].LineCount() {
		t.Errorf("Round trip mismatch: %+v vs %+v", restored[0], regions[0])
	}
}
