package model

import (
	"math"
	"testing"
)

func TestBBoxEdges(t *testing.T) {
	b := NewBBox(10, 20, 100, 50)

	if b.Left() != 10 {
		t.Errorf("Expected Left 10, got %f", b.Left())
	}
	if b.Right() != 110 {
		t.Errorf("Expected Right 110, got %f", b.Right())
	}
	if b.Top() != 20 {
		t.Errorf("Expected Top 20, got %f", b.Top())
	}
	if b.Bottom() != 70 {
		t.Errorf("Expected Bottom 70, got %f", b.Bottom())
	}
}

func TestBBoxFromCorners(t *testing.T) {
	b := NewBBoxFromCorners(Point{X: 110, Y: 70}, Point{X: 10, Y: 20})

	if b.X != 10 || b.Y != 20 {
		t.Errorf("Expected top-left (10, 20), got (%f, %f)", b.X, b.Y)
	}
	if b.Width != 100 || b.Height != 50 {
		t.Errorf("Expected 100x50, got %fx%f", b.Width, b.Height)
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(50, 50, 100, 100)

	if !a.Intersects(b) {
		t.Fatal("Expected boxes to intersect")
	}

	inter := a.Intersection(b)
	if inter.Area() != 2500 {
		t.Errorf("Expected intersection area 2500, got %f", inter.Area())
	}

	c := NewBBox(200, 200, 10, 10)
	if a.Intersects(c) {
		t.Error("Expected disjoint boxes not to intersect")
	}
	if a.Intersection(c).Area() != 0 {
		t.Error("Expected empty intersection for disjoint boxes")
	}
}

func TestBBoxIoU(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name string
		b    BBox
		want float64
	}{
		{"identical", NewBBox(0, 0, 100, 100), 1.0},
		{"half overlap", NewBBox(50, 0, 100, 100), 5000.0 / 15000.0},
		{"disjoint", NewBBox(200, 0, 100, 100), 0.0},
	}

	for _, tt := range tests {
		got := a.IoU(tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected IoU %f, got %f", tt.name, tt.want, got)
		}
	}
}

func TestBBoxVerticalGap(t *testing.T) {
	a := NewBBox(0, 0, 100, 50)
	b := NewBBox(0, 80, 100, 50)

	if gap := a.VerticalGap(b); gap != 30 {
		t.Errorf("Expected gap 30, got %f", gap)
	}
	if gap := b.VerticalGap(a); gap != 30 {
		t.Errorf("Expected symmetric gap 30, got %f", gap)
	}

	// Overlapping Y ranges have no gap
	c := NewBBox(0, 40, 100, 50)
	if gap := a.VerticalGap(c); gap != 0 {
		t.Errorf("Expected gap 0 for overlapping boxes, got %f", gap)
	}
}

func TestBBoxHorizontalOverlap(t *testing.T) {
	a := NewBBox(0, 0, 100, 50)
	b := NewBBox(60, 100, 100, 50)

	if overlap := a.HorizontalOverlap(b); overlap != 40 {
		t.Errorf("Expected overlap 40, got %f", overlap)
	}

	c := NewBBox(200, 0, 50, 50)
	if overlap := a.HorizontalOverlap(c); overlap != 0 {
		t.Errorf("Expected overlap 0, got %f", overlap)
	}
}

func makeLine(id, text string, y float64) TextLine {
	return TextLine{
		ID:         id,
		Text:       text,
		BBox:       NewBBox(10, y, 200, 20),
		Confidence: 0.9,
	}
}

func TestRegionText(t *testing.T) {
	region := &Region{
		ID:   "r001",
		Kind: RegionKindText,
		BBox: NewBBox(0, 0, 220, 100),
		Lines: []TextLine{
			makeLine("l1", "first line", 10),
			makeLine("l2", "second line", 40),
			makeLine("l3", "", 70), // empty transcription is skipped
		},
	}

	if got := region.Text(); got != "first line\nsecond line" {
		t.Errorf("Unexpected region text: %q", got)
	}
	if region.LineCount() != 3 {
		t.Errorf("Expected 3 lines, got %d", region.LineCount())
	}
	if region.AverageLineHeight() != 20 {
		t.Errorf("Expected average line height 20, got %f", region.AverageLineHeight())
	}

	ids := region.LineIDs()
	if len(ids) != 3 || ids[0] != "l1" || ids[2] != "l3" {
		t.Errorf("Unexpected line IDs: %v", ids)
	}
}

func TestNewBite(t *testing.T) {
	title := &Region{
		ID:    "r1",
		Kind:  RegionKindTitle,
		BBox:  NewBBox(10, 10, 200, 30),
		Lines: []TextLine{makeLine("l1", "HEADLINE", 10)},
	}
	body := &Region{
		ID:   "r2",
		Kind: RegionKindText,
		BBox: NewBBox(10, 50, 200, 60),
		Lines: []TextLine{
			makeLine("l2", "body one", 50),
			makeLine("l3", "body two", 80),
		},
	}

	bite := NewBite([]*Region{title, body})

	if bite.Kind != RegionKindTitle {
		t.Errorf("Expected title bite, got %v", bite.Kind)
	}
	if bite.Cls != "Title" {
		t.Errorf("Expected cls Title, got %q", bite.Cls)
	}
	if bite.LineCount() != 3 {
		t.Errorf("Expected 3 lines, got %d", bite.LineCount())
	}
	if bite.BBox.Top() != 10 || bite.BBox.Bottom() != 110 {
		t.Errorf("Unexpected merged bbox: %+v", bite.BBox)
	}
	if bite.Text != "HEADLINE\nbody one\nbody two" {
		t.Errorf("Unexpected bite text: %q", bite.Text)
	}
}

func TestNewBiteEmpty(t *testing.T) {
	bite := NewBite(nil)
	if bite.LineCount() != 0 {
		t.Error("Expected empty bite")
	}
}

func TestPageLookups(t *testing.T) {
	page := NewPage("page-001", 1000, 1400)
	page.AddLine(makeLine("l1", "alpha", 100))
	page.AddLine(makeLine("l2", "beta", 200))

	if line := page.LineByID("l2"); line == nil || line.Text != "beta" {
		t.Errorf("LineByID failed: %+v", line)
	}
	if line := page.LineByID("missing"); line != nil {
		t.Error("Expected nil for missing line ID")
	}

	inside := page.LinesInRegion(NewBBox(0, 50, 1000, 100))
	if len(inside) != 1 || inside[0].ID != "l1" {
		t.Errorf("Unexpected lines in region: %+v", inside)
	}

	if got := page.ExtractText(); got != "alpha\nbeta\n" {
		t.Errorf("Unexpected page text: %q", got)
	}
}
