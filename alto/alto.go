package alto

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/textbite/model"
)

// Reader-related errors.
var (
	ErrNoLayout = errors.New("alto: document contains no Layout element")
	ErrNoPage   = errors.New("alto: document contains no Page element")
)

// altoRoot mirrors the ALTO XML structure down to the String level.
// Only the elements and attributes the pipeline consumes are mapped.
type altoRoot struct {
	XMLName xml.Name `xml:"alto"`
	Layout  *struct {
		Pages []altoPage `xml:"Page"`
	} `xml:"Layout"`
}

type altoPage struct {
	ID         string `xml:"ID,attr"`
	Width      string `xml:"WIDTH,attr"`
	Height     string `xml:"HEIGHT,attr"`
	PrintSpace struct {
		TextBlocks     []altoBlock `xml:"TextBlock"`
		ComposedBlocks []struct {
			TextBlocks []altoBlock `xml:"TextBlock"`
		} `xml:"ComposedBlock"`
	} `xml:"PrintSpace"`
}

type altoBlock struct {
	ID     string `xml:"ID,attr"`
	HPos   string `xml:"HPOS,attr"`
	VPos   string `xml:"VPOS,attr"`
	Width  string `xml:"WIDTH,attr"`
	Height string `xml:"HEIGHT,attr"`
	Lines  []struct {
		ID       string `xml:"ID,attr"`
		HPos     string `xml:"HPOS,attr"`
		VPos     string `xml:"VPOS,attr"`
		Width    string `xml:"WIDTH,attr"`
		Height   string `xml:"HEIGHT,attr"`
		Baseline string `xml:"BASELINE,attr"`
		Strings  []struct {
			Content    string `xml:"CONTENT,attr"`
			Confidence string `xml:"WC,attr"`
		} `xml:"String"`
	} `xml:"TextLine"`
}

// Open reads an ALTO file and returns the page it describes. The page ID is
// taken from the file stem, which is how the pipeline pairs pages across
// the image, layout, and ALTO directories.
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

	page.ID = stem(filename)
	return page, nil
}

// Parse parses an ALTO document from an io.Reader. Only the first Page
// element is read; multi-page ALTO files do not occur in this pipeline.
func Parse(r io.Reader) (*model.Page, error) {
	var root altoRoot
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing ALTO XML: %w", err)
	}

	if root.Layout == nil {
		return nil, ErrNoLayout
	}
	if len(root.Layout.Pages) == 0 {
		return nil, ErrNoPage
	}

	src := root.Layout.Pages[0]
	page := model.NewPage(src.ID, parseFloat(src.Width), parseFloat(src.Height))

	blocks := src.PrintSpace.TextBlocks
	for _, composed := range src.PrintSpace.ComposedBlocks {
		blocks = append(blocks, composed.TextBlocks...)
	}

	for _, block := range blocks {
		region := &model.Region{
			ID:   block.ID,
			Kind: model.RegionKindText,
			BBox: model.NewBBox(
				parseFloat(block.HPos),
				parseFloat(block.VPos),
				parseFloat(block.Width),
				parseFloat(block.Height),
			),
		}

		for _, src := range block.Lines {
			line := model.TextLine{
				ID: src.ID,
				BBox: model.NewBBox(
					parseFloat(src.HPos),
					parseFloat(src.VPos),
					parseFloat(src.Width),
					parseFloat(src.Height),
				),
				Baseline: parseBaseline(src.Baseline),
			}

			var words []string
			var confidence float64
			var scored int
			for _, s := range src.Strings {
				if s.Content != "" {
					words = append(words, s.Content)
				}
				if s.Confidence != "" {
					confidence += parseFloat(s.Confidence)
					scored++
				}
			}
			line.Text = strings.Join(words, " ")
			if scored > 0 {
				line.Confidence = confidence / float64(scored)
			}

			region.Lines = append(region.Lines, line)
			page.AddLine(line)
		}

		page.AddRegion(region)
	}

	return page, nil
}

// OpenDir reads every ALTO file in a directory, keyed by page ID.
func OpenDir(dir string) (map[string]*model.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ALTO directory: %w", err)
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

// stem returns the filename without directory or extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseFloat parses an ALTO numeric attribute, returning 0 for absent or
// malformed values. ALTO tolerates fractional coordinates.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBaseline parses the BASELINE attribute, which is a single Y value in
// ALTO 2 and a polyline of "x,y" points in ALTO 4. For polylines, the first
// point's Y is returned.
func parseBaseline(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	first := strings.Fields(s)[0]
	parts := strings.Split(first, ",")
	if len(parts) == 2 {
		return parseFloat(parts[1])
	}
	return 0
}
