// Package reader provides access to the on-disk page corpus.
//
// A document page exists as up to three sibling files sharing one stem:
// the scanned image (PNG/JPEG/TIFF), the layout XML, and the ALTO OCR
// export. This package discovers and pairs those files across their
// directories and decodes page images.
package reader
