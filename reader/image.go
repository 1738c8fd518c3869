package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Page scans arrive as PNG, JPEG, or TIFF.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/tsawler/textbite/model"
)

// LoadImage decodes a page scan from disk. PNG, JPEG, and TIFF are
// supported.
func LoadImage(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", filename, err)
	}
	return img, nil
}

// ImageSize reads just enough of an image file to report its dimensions.
func ImageSize(filename string) (width, height float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image header %s: %w", filename, err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// CropRegion extracts the pixels under a bounding box, clamped to the image
// bounds. The result is a copy, safe to hold after the source is released.
func CropRegion(img image.Image, bbox model.BBox) image.Image {
	bounds := img.Bounds()

	x0 := clampInt(int(bbox.Left()), bounds.Min.X, bounds.Max.X)
	y0 := clampInt(int(bbox.Top()), bounds.Min.Y, bounds.Max.Y)
	x1 := clampInt(int(bbox.Right()), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(bbox.Bottom()), bounds.Min.Y, bounds.Max.Y)

	rect := image.Rect(0, 0, x1-x0, y1-y0)
	out := image.NewRGBA(rect)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			out.Set(x-x0, y-y0, img.At(x, y))
		}
	}
	return out
}

// EncodePNG encodes an image as PNG bytes, the format handed to the OCR
// engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// clampInt limits v to the range [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
