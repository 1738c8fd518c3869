package model

// Page represents a single scanned document page with its OCR text lines.
// Pages are identified by the source file stem (filename without extension);
// the same stem names the page image, the layout XML, and the ALTO export.
type Page struct {
	// ID is the page identifier (source file stem)
	ID string

	// Width and Height are the page raster dimensions in pixels
	Width  float64
	Height float64

	// Lines are all OCR text lines on the page
	Lines []TextLine

	// Regions are the layout regions, either carried over from the source
	// layout XML or produced by the detector stage
	Regions []*Region
}

// NewPage creates a new page with the given identifier and dimensions
func NewPage(id string, width, height float64) *Page {
	return &Page{
		ID:     id,
		Width:  width,
		Height: height,
	}
}

// AddLine adds a text line to the page
func (p *Page) AddLine(line TextLine) {
	p.Lines = append(p.Lines, line)
}

// AddRegion adds a region to the page
func (p *Page) AddRegion(region *Region) {
	p.Regions = append(p.Regions, region)
}

// LineByID returns the line with the given ID, or nil if not present
func (p *Page) LineByID(id string) *TextLine {
	for i := range p.Lines {
		if p.Lines[i].ID == id {
			return &p.Lines[i]
		}
	}
	return nil
}

// LinesInRegion returns all lines whose center falls inside the given box
func (p *Page) LinesInRegion(bbox BBox) []TextLine {
	var lines []TextLine
	for _, line := range p.Lines {
		if bbox.Contains(line.BBox.Center()) {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractText concatenates all line transcriptions, top to bottom
func (p *Page) ExtractText() string {
	var text string
	for _, line := range p.Lines {
		if !line.IsEmpty() {
			text += line.Text + "\n"
		}
	}
	return text
}
