package join

import (
	"strings"

	"github.com/tsawler/textbite/gcn"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/model"
)

// DefaultThreshold is the edge probability above which two regions are
// merged. The value was selected on the validation splits; change it per
// run with NewJoinerWithThreshold, not by retraining. It aliases the
// trainer's constant so validation and inference share one operating point.
const DefaultThreshold = gcn.DefaultThreshold

// Joiner merges a page graph's regions into bites.
type Joiner struct {
	model     *gcn.GraphModel
	threshold float64
}

// NewJoiner creates a joiner using the default threshold.
func NewJoiner(m *gcn.GraphModel) *Joiner {
	return NewJoinerWithThreshold(m, DefaultThreshold)
}

// NewJoinerWithThreshold creates a joiner with a custom threshold.
func NewJoinerWithThreshold(m *gcn.GraphModel, threshold float64) *Joiner {
	return &Joiner{model: m, threshold: threshold}
}

// Threshold returns the joiner's operating threshold.
func (j *Joiner) Threshold() float64 {
	return j.threshold
}

// Join scores the graph's candidate edges and merges regions connected by
// edges at or above the threshold. The page, when non-nil, supplies line
// transcriptions for bite text; bites come out in reading order.
func (j *Joiner) Join(g *graph.PageGraph, page *model.Page) ([]model.Bite, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, nil
	}

	ds := newDisjointSet(n)
	if g.EdgeCount() > 0 {
		scores, err := j.model.EdgeScores(g)
		if err != nil {
			return nil, err
		}
		for e, edge := range g.Edges {
			if scores[e] >= j.threshold {
				ds.union(edge[0], edge[1])
			}
		}
	}

	// Group nodes by component. Roots enter order at their component's
	// lowest node index, so bites follow the page's reading order.
	components := make(map[int][]int)
	var order []int
	for i := 0; i < n; i++ {
		root := ds.find(i)
		if _, seen := components[root]; !seen {
			order = append(order, root)
		}
		components[root] = append(components[root], i)
	}

	bites := make([]model.Bite, 0, len(order))
	for _, root := range order {
		bites = append(bites, j.buildBite(g, page, components[root]))
	}
	return bites, nil
}

// buildBite assembles one bite from a component's node indices.
func (j *Joiner) buildBite(g *graph.PageGraph, page *model.Page, nodes []int) model.Bite {
	bite := model.Bite{Kind: model.RegionKindText}

	var texts []string
	for i, idx := range nodes {
		node := g.Nodes[idx]
		bbox := model.NewBBox(node.BBox[0], node.BBox[1], node.BBox[2], node.BBox[3])
		if i == 0 {
			bite.BBox = bbox
		} else {
			bite.BBox = bite.BBox.Union(bbox)
		}

		bite.Lines = append(bite.Lines, node.Lines...)
		if node.Cls == model.RegionKindTitle.String() {
			bite.Kind = model.RegionKindTitle
		}

		if page != nil {
			for _, lineID := range node.Lines {
				if line := page.LineByID(lineID); line != nil && !line.IsEmpty() {
					texts = append(texts, line.Text)
				}
			}
		}
	}

	bite.Text = strings.Join(texts, "\n")
	bite.Cls = bite.Kind.String()
	return bite
}

// disjointSet is a union-find structure with path halving and union by size.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}
