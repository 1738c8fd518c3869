// Package gcn implements the joiner: a graph convolutional network that
// scores candidate edges between detected regions.
//
// The model stacks graph convolution layers over the symmetrically
// normalized adjacency matrix. Hidden layers use ReLU; the last layer is
// linear. An edge's logit is the dot product of its endpoint embeddings,
// squashed through a sigmoid to give the probability that the two regions
// belong to the same bite.
//
// Training minimizes binary cross-entropy over edge labels with Adam.
// Batches are whole graphs; gradients accumulate across the batch before
// each optimizer step. One checkpoint is written per epoch.
package gcn
