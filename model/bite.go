package model

import "strings"

// Bite is the pipeline's final output unit: a semantically coherent group of
// regions merged into one text segment by the joiner.
//
// The JSON shape matches the evaluation contract: a page hypothesis is a list
// of bites, each carrying the IDs of the text lines it covers.
type Bite struct {
	// Kind is the bite's classification, inherited from its dominant region
	Kind RegionKind `json:"-"`

	// Cls is the serialized form of Kind
	Cls string `json:"cls"`

	// Lines are the IDs of all text lines covered by the bite
	Lines []string `json:"lines"`

	// BBox is the union of the merged regions' bounding boxes
	BBox BBox `json:"bbox"`

	// Text is the bite's transcription in reading order
	Text string `json:"text,omitempty"`

	// Regions are the merged regions (not serialized)
	Regions []*Region `json:"-"`
}

// NewBite builds a bite from a set of regions. Regions are expected in
// reading order; the bite's bbox, lines, text, and kind are derived from them.
func NewBite(regions []*Region) Bite {
	bite := Bite{Regions: regions}
	if len(regions) == 0 {
		return bite
	}

	bite.BBox = regions[0].BBox
	bite.Kind = regions[0].Kind

	var texts []string
	for _, region := range regions {
		bite.BBox = bite.BBox.Union(region.BBox)
		bite.Lines = append(bite.Lines, region.LineIDs()...)
		if text := region.Text(); text != "" {
			texts = append(texts, text)
		}
		// A title anywhere in the group classifies the whole bite
		if region.Kind == RegionKindTitle {
			bite.Kind = RegionKindTitle
		}
	}
	bite.Text = strings.Join(texts, "\n")
	bite.Cls = bite.Kind.String()

	return bite
}

// LineCount returns the number of lines covered by the bite
func (b *Bite) LineCount() int {
	return len(b.Lines)
}
