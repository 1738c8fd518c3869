// Package model provides the intermediate representation (IR) for document
// segmentation.
//
// This package defines the data structures shared by every pipeline stage.
// Parsers produce them, the detector and joiner consume and refine them, and
// the final bite export serializes them.
//
// # Page Structure
//
// The [Page] type represents a single scanned document page with its OCR
// text lines:
//
//	page := model.NewPage("lidove-noviny-1930-08", 2480, 3504)
//	page.AddLine(line)
//
// Each [TextLine] carries the OCR transcription, its bounding box, and the
// recognizer confidence.
//
// # Regions and Bites
//
// A [Region] is a detected rectangular group of text lines (the detector
// stage output). A [Bite] is the pipeline's final output unit: one or more
// regions merged into a semantically coherent text segment by the joiner.
//
// # Geometry
//
// Geometric primitives support position and layout calculations:
//
//   - [BBox] - bounding box with intersection, union, IoU, and gap calculations
//   - [Point] - 2D point with distance calculation
//
// All coordinates use the raster image coordinate system: the origin is the
// top-left corner of the page and Y grows downward, matching ALTO and hOCR.
package model
