// Package lm implements the language-model baseline: a next-segment
// prediction (NSP) classifier finetuned to decide whether two text segments
// follow each other in the source document.
//
// The model is deliberately small: an embedding bag over each segment's
// tokens and a logistic head over the concatenated segment embeddings.
// It exists to compare against the graph joiner, not to replace it; the two
// share no weights and train independently.
package lm
