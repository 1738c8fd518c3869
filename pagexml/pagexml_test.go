package pagexml

import (
	"strings"
	"testing"

	"github.com/tsawler/textbite/model"
)

const samplePageXML = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2019-07-15">
  <Page imageFilename="scan-001.jpg" imageWidth="2480" imageHeight="3504">
    <TextRegion id="r001" custom="structure {type:heading;}">
      <Coords points="100,200 2100,200 2100,280 100,280"/>
      <TextLine id="r001-l001">
        <Coords points="110,210 2090,210 2090,270 110,270"/>
        <Baseline points="110,265 2090,265"/>
        <TextEquiv><Unicode>VELKA UDALOST</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
    <TextRegion id="r002">
      <Coords points="100,300 2100,300 2100,600 100,600"/>
      <TextLine id="r002-l001">
        <Coords points="110,310 2090,310 2090,370 110,370"/>
        <TextEquiv><Unicode>first body line</Unicode></TextEquiv>
      </TextLine>
      <TextLine id="r002-l002">
        <Coords points="110,380 2090,380 2090,440 110,440"/>
        <TextEquiv><Unicode>second body line</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>`

func TestParsePageXML(t *testing.T) {
	page, err := Parse(strings.NewReader(samplePageXML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if page.Width != 2480 || page.Height != 3504 {
		t.Errorf("Unexpected page size: %fx%f", page.Width, page.Height)
	}
	if len(page.Regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(page.Regions))
	}
	if len(page.Lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(page.Lines))
	}

	heading := page.Regions[0]
	if heading.Kind != model.RegionKindTitle {
		t.Errorf("Expected heading region, got %v", heading.Kind)
	}
	if heading.BBox.X != 100 || heading.BBox.Y != 200 || heading.BBox.Width != 2000 || heading.BBox.Height != 80 {
		t.Errorf("Unexpected heading bbox: %+v", heading.BBox)
	}

	body := page.Regions[1]
	if body.Kind != model.RegionKindText {
		t.Errorf("Expected text region, got %v", body.Kind)
	}
	if body.LineCount() != 2 {
		t.Errorf("Expected 2 body lines, got %d", body.LineCount())
	}

	line := page.LineByID("r001-l001")
	if line == nil {
		t.Fatal("r001-l001 not found")
	}
	if line.Text != "VELKA UDALOST" {
		t.Errorf("Unexpected line text: %q", line.Text)
	}
	if line.Baseline != 265 {
		t.Errorf("Expected baseline 265, got %f", line.Baseline)
	}
}

func TestParsePageXMLNoPage(t *testing.T) {
	if _, err := Parse(strings.NewReader("<PcGts></PcGts>")); err == nil {
		t.Error("Expected error for document without Page")
	}
}

func TestPointsBBox(t *testing.T) {
	tests := []struct {
		name   string
		points string
		want   model.BBox
	}{
		{"rectangle", "10,20 110,20 110,70 10,70", model.NewBBox(10, 20, 100, 50)},
		{"irregular polygon", "50,20 110,40 10,70", model.NewBBox(10, 20, 100, 50)},
		{"empty", "", model.BBox{}},
		{"malformed", "not points", model.BBox{}},
	}

	for _, tt := range tests {
		if got := pointsBBox(tt.points); got != tt.want {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
	}
}
