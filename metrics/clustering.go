package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ClusterScores holds the clustering comparison measures, each in [0, 1].
type ClusterScores struct {
	Homogeneity  float64
	Completeness float64
	VMeasure     float64
}

// String formats the scores as percentages in the pipeline's log format.
func (s ClusterScores) String() string {
	return fmt.Sprintf("[H/C/V %.2f %.2f %.2f]",
		s.Homogeneity*100, s.Completeness*100, s.VMeasure*100)
}

// missingCluster is the reserved cluster index for lines absent from one
// side of the comparison.
const missingCluster = -1

// CompareClusterings scores a hypothesis clustering of text lines against
// the ground truth. Both are given as groups of line IDs and the union of
// lines is scored: a line absent from one clustering falls into that side's
// reserved cluster, so ground-truth lines the pipeline dropped (and
// hypothesis lines the annotation lacks) lower the scores instead of
// silently vanishing.
func CompareClusterings(truth, hypothesis [][]string) ClusterScores {
	truthOf := assignment(truth)
	hypOf := assignment(hypothesis)

	// Contingency counts over the union of lines
	n := 0
	contingency := make(map[[2]int]int)
	truthCounts := make(map[int]int)
	hypCounts := make(map[int]int)

	seen := make(map[string]bool)
	count := func(line string) {
		if seen[line] {
			return
		}
		seen[line] = true

		c, ok := truthOf[line]
		if !ok {
			c = missingCluster
		}
		k, ok := hypOf[line]
		if !ok {
			k = missingCluster
		}
		n++
		contingency[[2]int{c, k}]++
		truthCounts[c]++
		hypCounts[k]++
	}
	for line := range truthOf {
		count(line)
	}
	for line := range hypOf {
		count(line)
	}

	if n == 0 {
		return ClusterScores{}
	}

	hTruth := entropyOf(truthCounts, n)
	hHyp := entropyOf(hypCounts, n)

	// Conditional entropies from the contingency table
	var hTruthGivenHyp, hHypGivenTruth float64
	total := float64(n)
	for cell, count := range contingency {
		joint := float64(count) / total
		hTruthGivenHyp -= joint * math.Log(float64(count)/float64(hypCounts[cell[1]]))
		hHypGivenTruth -= joint * math.Log(float64(count)/float64(truthCounts[cell[0]]))
	}

	scores := ClusterScores{Homogeneity: 1, Completeness: 1}
	if hTruth > 0 {
		scores.Homogeneity = 1 - hTruthGivenHyp/hTruth
	}
	if hHyp > 0 {
		scores.Completeness = 1 - hHypGivenTruth/hHyp
	}
	if scores.Homogeneity+scores.Completeness > 0 {
		scores.VMeasure = 2 * scores.Homogeneity * scores.Completeness /
			(scores.Homogeneity + scores.Completeness)
	}
	return scores
}

// assignment maps each line ID to its group index. A line appearing in
// several groups keeps the first.
func assignment(groups [][]string) map[string]int {
	out := make(map[string]int)
	for idx, group := range groups {
		for _, line := range group {
			if _, seen := out[line]; !seen {
				out[line] = idx
			}
		}
	}
	return out
}

// entropyOf computes the entropy of a label distribution given its counts.
func entropyOf(counts map[int]int, n int) float64 {
	probs := make([]float64, 0, len(counts))
	for _, count := range counts {
		probs = append(probs, float64(count)/float64(n))
	}
	return stat.Entropy(probs)
}

// AverageScores averages per-page scores over the pages actually scored.
func AverageScores(scores []ClusterScores) ClusterScores {
	if len(scores) == 0 {
		return ClusterScores{}
	}
	var sum ClusterScores
	for _, s := range scores {
		sum.Homogeneity += s.Homogeneity
		sum.Completeness += s.Completeness
		sum.VMeasure += s.VMeasure
	}
	n := float64(len(scores))
	return ClusterScores{
		Homogeneity:  sum.Homogeneity / n,
		Completeness: sum.Completeness / n,
		VMeasure:     sum.VMeasure / n,
	}
}
