package graph

import (
	"sort"

	"github.com/tsawler/textbite/model"
)

// NodeMeta carries enough of a region to reconstruct bites from joiner
// output without re-reading the source page.
type NodeMeta struct {
	ID    string
	Cls   string
	BBox  [4]float64
	Lines []string
}

// PageGraph is one page's graph: region nodes with features, candidate
// edges, and (for training data) per-edge labels.
type PageGraph struct {
	PageID string

	// NodeFeatures has one FeatureDim-wide vector per node
	NodeFeatures [][]float64

	// Edges are candidate adjacency pairs, each stored once with
	// Edges[i][0] < Edges[i][1]
	Edges [][2]int

	// Labels holds one binary label per edge; empty for inference graphs
	Labels []float64

	// Nodes carries region metadata aligned with NodeFeatures
	Nodes []NodeMeta
}

// NodeCount returns the number of nodes in the graph
func (g *PageGraph) NodeCount() int {
	return len(g.NodeFeatures)
}

// EdgeCount returns the number of candidate edges
func (g *PageGraph) EdgeCount() int {
	return len(g.Edges)
}

// BuilderConfig holds configuration for graph construction
type BuilderConfig struct {
	// KNearest is the number of nearest neighbours each node proposes
	// edges to (default: 4)
	KNearest int
}

// DefaultBuilderConfig returns sensible default configuration
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{KNearest: 4}
}

// Builder constructs page graphs from detected regions
type Builder struct {
	config BuilderConfig
}

// NewBuilder creates a builder with default configuration
func NewBuilder() *Builder {
	return &Builder{config: DefaultBuilderConfig()}
}

// NewBuilderWithConfig creates a builder with custom configuration
func NewBuilderWithConfig(config BuilderConfig) *Builder {
	return &Builder{config: config}
}

// Build constructs an unlabeled graph for a page. Regions are expected in
// reading order; node order follows region order.
func (b *Builder) Build(page *model.Page, regions []*model.Region) *PageGraph {
	g := &PageGraph{PageID: page.ID}

	for i, region := range regions {
		g.NodeFeatures = append(g.NodeFeatures, NodeFeatures(region, i, regions, page))
		g.Nodes = append(g.Nodes, NodeMeta{
			ID:    region.ID,
			Cls:   region.Kind.String(),
			BBox:  [4]float64{region.BBox.X, region.BBox.Y, region.BBox.Width, region.BBox.Height},
			Lines: region.LineIDs(),
		})
	}

	g.Edges = b.candidateEdges(regions)
	return g
}

// BuildLabeled constructs a training graph: candidate edges are labeled 1
// when both endpoint regions belong to the same ground-truth bite. Bites
// are given as groups of line IDs, the evaluation exchange format.
func (b *Builder) BuildLabeled(page *model.Page, regions []*model.Region, bites [][]string) *PageGraph {
	g := b.Build(page, regions)

	// Map line ID -> bite index
	lineBite := make(map[string]int)
	for biteIdx, lines := range bites {
		for _, lineID := range lines {
			lineBite[lineID] = biteIdx
		}
	}

	// A region's bite is decided by majority vote over its lines
	regionBite := make([]int, len(regions))
	for i, region := range regions {
		votes := make(map[int]int)
		for _, lineID := range region.LineIDs() {
			if biteIdx, ok := lineBite[lineID]; ok {
				votes[biteIdx]++
			}
		}
		regionBite[i] = -1 - i // unlabeled regions never match each other
		best := 0
		for biteIdx, count := range votes {
			// Ties break toward the lower bite index to keep labels
			// deterministic across runs
			if count > best || (count == best && count > 0 && biteIdx < regionBite[i]) {
				best = count
				regionBite[i] = biteIdx
			}
		}
	}

	g.Labels = make([]float64, len(g.Edges))
	for i, edge := range g.Edges {
		if regionBite[edge[0]] >= 0 && regionBite[edge[0]] == regionBite[edge[1]] {
			g.Labels[i] = 1
		}
	}

	return g
}

// candidateEdges connects each region to its KNearest neighbours by center
// distance. Edges are deduplicated and returned sorted for deterministic
// artifacts.
func (b *Builder) candidateEdges(regions []*model.Region) [][2]int {
	n := len(regions)
	if n < 2 {
		return nil
	}

	k := b.config.KNearest
	if k > n-1 {
		k = n - 1
	}

	seen := make(map[[2]int]bool)
	for i := 0; i < n; i++ {
		type neighbour struct {
			index    int
			distance float64
		}
		neighbours := make([]neighbour, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := regions[i].BBox.Center().Distance(regions[j].BBox.Center())
			neighbours = append(neighbours, neighbour{index: j, distance: d})
		}
		sort.Slice(neighbours, func(a, b int) bool {
			if neighbours[a].distance != neighbours[b].distance {
				return neighbours[a].distance < neighbours[b].distance
			}
			return neighbours[a].index < neighbours[b].index
		})

		for _, nb := range neighbours[:k] {
			edge := [2]int{i, nb.index}
			if edge[0] > edge[1] {
				edge[0], edge[1] = edge[1], edge[0]
			}
			seen[edge] = true
		}
	}

	edges := make([][2]int, 0, len(seen))
	for edge := range seen {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})

	return edges
}
