// Package graph builds the joiner's input graphs from detected regions.
//
// Each page becomes one graph: nodes are regions with a fixed-width feature
// vector, edges connect each region to its nearest neighbours on the page.
// For training, edges carry a binary label: 1 when both endpoint regions
// belong to the same ground-truth bite.
//
// Graphs are serialized into a single artifact container per data split
// (train, val-book, val-dict, val-peri). The container keeps the original
// pipeline's .pkl extension so existing paths keep working, but the encoding
// is gob with a CRC32 integrity check.
package graph
