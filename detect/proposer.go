package detect

import (
	"sort"

	"github.com/tsawler/textbite/model"
)

// ProposerConfig holds configuration for region proposal
type ProposerConfig struct {
	// VerticalGapFactor is the maximum vertical gap between consecutive
	// lines of one region, as a multiple of the average line height
	// (default: 1.8)
	VerticalGapFactor float64

	// MinHorizontalOverlap is the minimum fraction of the narrower line's
	// width that must overlap for two lines to share a region; keeps
	// adjacent columns apart (default: 0.3)
	MinHorizontalOverlap float64

	// MinRegionWidth is the minimum width for a valid region (default: 10)
	MinRegionWidth float64

	// MinRegionHeight is the minimum height for a valid region (default: 5)
	MinRegionHeight float64
}

// DefaultProposerConfig returns sensible default configuration
func DefaultProposerConfig() ProposerConfig {
	return ProposerConfig{
		VerticalGapFactor:    1.8,
		MinHorizontalOverlap: 0.3,
		MinRegionWidth:       10.0,
		MinRegionHeight:      5.0,
	}
}

// Proposer groups text lines into candidate regions
type Proposer struct {
	config ProposerConfig
}

// NewProposer creates a new proposer with default configuration
func NewProposer() *Proposer {
	return &Proposer{config: DefaultProposerConfig()}
}

// NewProposerWithConfig creates a proposer with custom configuration
func NewProposerWithConfig(config ProposerConfig) *Proposer {
	return &Proposer{config: config}
}

// Propose groups lines into candidate regions. Lines are processed top to
// bottom; a line extends the most recently open region it is vertically
// adjacent to and horizontally aligned with, otherwise it opens a new one.
// Returned groups are ordered by their top-left corner.
func (p *Proposer) Propose(lines []model.TextLine) [][]model.TextLine {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]model.TextLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y != sorted[j].BBox.Y {
			return sorted[i].BBox.Y < sorted[j].BBox.Y
		}
		return sorted[i].BBox.X < sorted[j].BBox.X
	})

	var groups [][]model.TextLine
	for _, line := range sorted {
		idx := p.findOpenGroup(groups, line)
		if idx < 0 {
			groups = append(groups, []model.TextLine{line})
		} else {
			groups[idx] = append(groups[idx], line)
		}
	}

	groups = p.validateGroups(groups)

	sort.Slice(groups, func(i, j int) bool {
		a := groupBBox(groups[i])
		b := groupBBox(groups[j])
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	return groups
}

// findOpenGroup returns the index of the group the line should join, or -1.
// The last line of each group is the attachment point; groups are scanned
// newest first so a line prefers the nearest open column.
func (p *Proposer) findOpenGroup(groups [][]model.TextLine, line model.TextLine) int {
	for i := len(groups) - 1; i >= 0; i-- {
		last := groups[i][len(groups[i])-1]

		avgHeight := (last.BBox.Height + line.BBox.Height) / 2
		if avgHeight <= 0 {
			continue
		}

		gap := last.BBox.VerticalGap(line.BBox)
		if gap > avgHeight*p.config.VerticalGapFactor {
			continue
		}

		overlap := last.BBox.HorizontalOverlap(line.BBox)
		narrower := last.BBox.Width
		if line.BBox.Width < narrower {
			narrower = line.BBox.Width
		}
		if narrower <= 0 || overlap/narrower < p.config.MinHorizontalOverlap {
			continue
		}

		return i
	}
	return -1
}

// validateGroups filters out groups that are too small to be regions
func (p *Proposer) validateGroups(groups [][]model.TextLine) [][]model.TextLine {
	var valid [][]model.TextLine
	for _, group := range groups {
		bbox := groupBBox(group)
		if bbox.Width < p.config.MinRegionWidth || bbox.Height < p.config.MinRegionHeight {
			continue
		}
		valid = append(valid, group)
	}
	return valid
}

// groupBBox returns the union bounding box of a group of lines
func groupBBox(group []model.TextLine) model.BBox {
	if len(group) == 0 {
		return model.BBox{}
	}
	bbox := group[0].BBox
	for _, line := range group[1:] {
		bbox = bbox.Union(line.BBox)
	}
	return bbox
}
