// Package join merges detected regions into bites.
//
// The joiner thresholds the graph model's edge probabilities and unions the
// surviving edges' endpoints with a disjoint-set structure. Each resulting
// component becomes one bite; regions with no surviving edge become
// single-region bites.
//
// The threshold is a join-time parameter, deliberately decoupled from the
// model weights: the same checkpoint can be joined at different operating
// points without retraining.
package join
