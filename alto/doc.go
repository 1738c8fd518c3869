// Package alto provides readers for OCR interchange formats.
//
// Two formats are supported, both producing the same [model.Page]
// representation:
//
//   - ALTO XML (the primary OCR export consumed by the pipeline), parsed
//     with encoding/xml
//   - hOCR, the HTML-based OCR format, parsed with golang.org/x/net/html
//
// Coordinates are kept in the source raster coordinate system (origin
// top-left, Y down). Line and block identifiers from the source file are
// preserved; they are the stable keys the rest of the pipeline uses to refer
// to text lines.
package alto
