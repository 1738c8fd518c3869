package model

// TextLine represents a single OCR text line on a page.
// Line IDs come from the source ALTO/hOCR file and are stable across the
// whole pipeline; bites ultimately reference lines by these IDs.
type TextLine struct {
	// ID is the source document's identifier for this line
	ID string

	// Text is the OCR transcription
	Text string

	// BBox is the line's bounding box
	BBox BBox

	// Baseline is the Y coordinate of the text baseline (0 if unknown)
	Baseline float64

	// Confidence is the OCR word confidence averaged over the line, in [0, 1]
	Confidence float64
}

// IsEmpty returns true if the line carries no transcription
func (l TextLine) IsEmpty() bool {
	return l.Text == ""
}
