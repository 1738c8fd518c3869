package model

import "strings"

// RegionKind classifies a detected region
type RegionKind int

const (
	RegionKindUnknown RegionKind = iota
	RegionKindText
	RegionKindTitle
)

func (rk RegionKind) String() string {
	switch rk {
	case RegionKindText:
		return "Text"
	case RegionKindTitle:
		return "Title"
	default:
		return "Unknown"
	}
}

// ParseRegionKind maps a serialized class name back to its kind. Matching
// is case-insensitive; unrecognized names map to RegionKindUnknown.
func ParseRegionKind(s string) RegionKind {
	switch strings.ToLower(s) {
	case "text":
		return RegionKindText
	case "title":
		return RegionKindTitle
	default:
		return RegionKindUnknown
	}
}

// Region represents a detected rectangular group of text lines on a page.
// Regions are the detector stage output and the joiner graph's nodes.
type Region struct {
	// ID is the region's identifier, unique within its page
	ID string

	// Kind classifies the region (text body, title, ...)
	Kind RegionKind

	// BBox is the region's bounding box
	BBox BBox

	// Confidence is the detector's confidence for this region, in [0, 1]
	Confidence float64

	// Lines are the text lines contained in the region, top to bottom
	Lines []TextLine
}

// LineIDs returns the IDs of all lines in the region, in order
func (r *Region) LineIDs() []string {
	ids := make([]string, len(r.Lines))
	for i, line := range r.Lines {
		ids[i] = line.ID
	}
	return ids
}

// Text returns the region's transcription, one source line per text line
func (r *Region) Text() string {
	parts := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		if !line.IsEmpty() {
			parts = append(parts, line.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// LineCount returns the number of lines in the region
func (r *Region) LineCount() int {
	return len(r.Lines)
}

// AverageLineHeight returns the mean height of the region's lines,
// or 0 for an empty region
func (r *Region) AverageLineHeight() float64 {
	if len(r.Lines) == 0 {
		return 0
	}
	total := 0.0
	for _, line := range r.Lines {
		total += line.BBox.Height
	}
	return total / float64(len(r.Lines))
}
