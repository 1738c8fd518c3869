// Package pagexml provides a reader for PAGE XML layout files
// (the PcGts format produced by layout analysis tools).
//
// PAGE XML describes regions and text lines as coordinate polygons. The
// reader reduces polygons to axis-aligned bounding boxes, which is the only
// geometry the rest of the pipeline consumes.
package pagexml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/textbite/model"
)

// Reader-related errors.
var (
	ErrNoPage = errors.New("pagexml: document contains no Page element")
)

type pcGts struct {
	XMLName xml.Name  `xml:"PcGts"`
	Page    *pagePage `xml:"Page"`
}

type pagePage struct {
	ImageFilename string `xml:"imageFilename,attr"`
	ImageWidth    string `xml:"imageWidth,attr"`
	ImageHeight   string `xml:"imageHeight,attr"`
	TextRegions   []struct {
		ID     string `xml:"id,attr"`
		Custom string `xml:"custom,attr"`
		Coords struct {
			Points string `xml:"points,attr"`
		} `xml:"Coords"`
		Lines []struct {
			ID     string `xml:"id,attr"`
			Coords struct {
				Points string `xml:"points,attr"`
			} `xml:"Coords"`
			Baseline struct {
				Points string `xml:"points,attr"`
			} `xml:"Baseline"`
			TextEquiv struct {
				Unicode string `xml:"Unicode"`
			} `xml:"TextEquiv"`
		} `xml:"TextLine"`
	} `xml:"TextRegion"`
}

// Open reads a PAGE XML file and returns the page it describes. The page ID
// is taken from the file stem.
func Open(filename string) (*model.Page, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	page, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}

	base := filepath.Base(filename)
	page.ID = strings.TrimSuffix(base, filepath.Ext(base))
	return page, nil
}

// Parse parses a PAGE XML document from an io.Reader.
func Parse(r io.Reader) (*model.Page, error) {
	var root pcGts
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing PAGE XML: %w", err)
	}

	if root.Page == nil {
		return nil, ErrNoPage
	}

	src := root.Page
	page := model.NewPage("", parseDim(src.ImageWidth), parseDim(src.ImageHeight))

	for _, srcRegion := range src.TextRegions {
		region := &model.Region{
			ID:   srcRegion.ID,
			Kind: regionKind(srcRegion.Custom),
			BBox: pointsBBox(srcRegion.Coords.Points),
		}

		for _, srcLine := range srcRegion.Lines {
			line := model.TextLine{
				ID:       srcLine.ID,
				Text:     strings.TrimSpace(srcLine.TextEquiv.Unicode),
				BBox:     pointsBBox(srcLine.Coords.Points),
				Baseline: baselineY(srcLine.Baseline.Points),
			}
			region.Lines = append(region.Lines, line)
			page.AddLine(line)
		}

		page.AddRegion(region)
	}

	return page, nil
}

// OpenDir reads every PAGE XML file in a directory, keyed by page ID.
func OpenDir(dir string) (map[string]*model.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading PAGE XML directory: %w", err)
	}

	pages := make(map[string]*model.Page)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		page, err := Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		pages[page.ID] = page
	}

	return pages, nil
}

// regionKind derives the region classification from the PAGE custom
// attribute, e.g. `structure {type:heading;}`.
func regionKind(custom string) model.RegionKind {
	custom = strings.ToLower(custom)
	if strings.Contains(custom, "heading") || strings.Contains(custom, "title") {
		return model.RegionKindTitle
	}
	return model.RegionKindText
}

// pointsBBox reduces a PAGE coordinate polygon ("x1,y1 x2,y2 ...") to its
// axis-aligned bounding box.
func pointsBBox(points string) model.BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false

	for _, pair := range strings.Fields(points) {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			continue
		}
		x, errX := strconv.ParseFloat(parts[0], 64)
		y, errY := strconv.ParseFloat(parts[1], 64)
		if errX != nil || errY != nil {
			continue
		}
		found = true
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	if !found {
		return model.BBox{}
	}
	return model.NewBBox(minX, minY, maxX-minX, maxY-minY)
}

// baselineY returns the Y of the first baseline point, or 0.
func baselineY(points string) float64 {
	fields := strings.Fields(points)
	if len(fields) == 0 {
		return 0
	}
	parts := strings.Split(fields[0], ",")
	if len(parts) != 2 {
		return 0
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0
	}
	return y
}

// parseDim parses an integer image dimension attribute.
func parseDim(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
