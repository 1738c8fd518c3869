package alto

import (
	"math"
	"strings"
	"testing"
)

const sampleALTO = `<?xml version="1.0" encoding="UTF-8"?>
<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#">
  <Layout>
    <Page ID="page_1" WIDTH="2480" HEIGHT="3504">
      <PrintSpace HPOS="0" VPOS="0" WIDTH="2480" HEIGHT="3504">
        <TextBlock ID="block_1" HPOS="100" VPOS="200" WIDTH="2000" HEIGHT="150">
          <TextLine ID="line_1" HPOS="110" VPOS="210" WIDTH="1980" HEIGHT="60" BASELINE="260">
            <String CONTENT="Hello" WC="0.95"/>
            <SP WIDTH="12"/>
            <String CONTENT="world" WC="0.85"/>
          </TextLine>
          <TextLine ID="line_2" HPOS="110" VPOS="280" WIDTH="1500" HEIGHT="60" BASELINE="110,330 1610,331">
            <String CONTENT="second" WC="0.90"/>
          </TextLine>
        </TextBlock>
        <ComposedBlock ID="cb_1">
          <TextBlock ID="block_2" HPOS="100" VPOS="400" WIDTH="2000" HEIGHT="80">
            <TextLine ID="line_3" HPOS="110" VPOS="410" WIDTH="900" HEIGHT="60">
              <String CONTENT="nested"/>
            </TextLine>
          </TextBlock>
        </ComposedBlock>
      </PrintSpace>
    </Page>
  </Layout>
</alto>`

func TestParseALTO(t *testing.T) {
	page, err := Parse(strings.NewReader(sampleALTO))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if page.Width != 2480 || page.Height != 3504 {
		t.Errorf("Unexpected page size: %fx%f", page.Width, page.Height)
	}
	if len(page.Regions) != 2 {
		t.Fatalf("Expected 2 regions (one composed), got %d", len(page.Regions))
	}
	if len(page.Lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(page.Lines))
	}

	line := page.LineByID("line_1")
	if line == nil {
		t.Fatal("line_1 not found")
	}
	if line.Text != "Hello world" {
		t.Errorf("Expected text %q, got %q", "Hello world", line.Text)
	}
	if math.Abs(line.Confidence-0.90) > 1e-9 {
		t.Errorf("Expected confidence 0.90, got %f", line.Confidence)
	}
	if line.Baseline != 260 {
		t.Errorf("Expected baseline 260, got %f", line.Baseline)
	}
	if line.BBox.X != 110 || line.BBox.Y != 210 {
		t.Errorf("Unexpected line bbox: %+v", line.BBox)
	}

	// ALTO 4 polyline baseline takes the first point's Y
	if line := page.LineByID("line_2"); line == nil || line.Baseline != 330 {
		t.Errorf("Expected polyline baseline 330, got %+v", line)
	}

	// Line inside a ComposedBlock is still found
	if line := page.LineByID("line_3"); line == nil || line.Text != "nested" {
		t.Errorf("Expected nested line, got %+v", line)
	}

	region := page.Regions[0]
	if region.ID != "block_1" || region.LineCount() != 2 {
		t.Errorf("Unexpected first region: %+v", region)
	}
}

func TestParseALTOErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not XML", "this is not xml at all <<<"},
		{"no layout", `<alto></alto>`},
		{"no page", `<alto><Layout></Layout></alto>`},
	}

	for _, tt := range tests {
		if _, err := Parse(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func TestParseBaseline(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"", 0},
		{"260", 260},
		{"260.5", 260.5},
		{"110,330 1610,331", 330},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := parseBaseline(tt.input); got != tt.want {
			t.Errorf("parseBaseline(%q): expected %f, got %f", tt.input, tt.want, got)
		}
	}
}
