// Package detect implements the region detection stage of the pipeline.
//
// Detection runs in two steps. The proposer groups a page's OCR text lines
// into candidate regions using vertical gaps and horizontal overlap, which
// keeps columns apart on multi-column pages. The scorer then assigns each
// candidate a confidence from a learned logistic model loaded from a
// checkpoint; candidates below the confidence floor are dropped.
//
// Detection is deterministic and idempotent per page: re-running with the
// same inputs and checkpoint produces byte-identical prediction files.
package detect
