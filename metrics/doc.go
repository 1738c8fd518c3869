// Package metrics scores pipeline output against ground truth.
//
// The primary measure treats a page's bites as a clustering of its text
// lines and compares hypothesis against ground truth with homogeneity,
// completeness, and their harmonic mean (V-measure). A classification
// report with per-class precision, recall, and F1 covers binary decisions
// such as edge labels and NSP predictions.
package metrics
