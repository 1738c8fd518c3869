package alto

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/textbite/model"
)

// OpenHOCR reads an hOCR file and returns the page it describes.
// As with ALTO, the page ID is taken from the file stem.
func OpenHOCR(filename string) (*model.Page, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	page, err := ParseHOCR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}

	page.ID = stem(filename)
	return page, nil
}

// ParseHOCR parses an hOCR document from an io.Reader. The hOCR hierarchy
// (ocr_page > ocr_carea > ocr_par > ocr_line) maps onto the page model with
// careas becoming regions and lines becoming text lines.
func ParseHOCR(r io.Reader) (*model.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing hOCR HTML: %w", err)
	}

	pageNode := findByClass(doc, "ocr_page")
	if pageNode == nil {
		return nil, ErrNoPage
	}

	bbox, _ := parseTitleProps(attrValue(pageNode, "title"))
	page := model.NewPage(attrValue(pageNode, "id"), bbox.Width, bbox.Height)

	var walkAreas func(n *html.Node)
	walkAreas = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_carea") {
			region := parseHOCRArea(n)
			page.AddRegion(region)
			for _, line := range region.Lines {
				page.AddLine(line)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkAreas(c)
		}
	}
	walkAreas(pageNode)

	// Some producers emit lines directly under the page, without careas.
	if len(page.Regions) == 0 {
		region := parseHOCRArea(pageNode)
		region.ID = page.ID
		if len(region.Lines) > 0 {
			page.AddRegion(region)
			for _, line := range region.Lines {
				page.AddLine(line)
			}
		}
	}

	return page, nil
}

// parseHOCRArea builds a region from an ocr_carea node (or any subtree
// containing ocr_line nodes).
func parseHOCRArea(n *html.Node) *model.Region {
	bbox, _ := parseTitleProps(attrValue(n, "title"))
	region := &model.Region{
		ID:   attrValue(n, "id"),
		Kind: model.RegionKindText,
		BBox: bbox,
	}

	var walkLines func(n *html.Node)
	walkLines = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_line") {
			region.Lines = append(region.Lines, parseHOCRLine(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkLines(c)
		}
	}
	walkLines(n)

	return region
}

// parseHOCRLine builds a text line from an ocr_line node. Word confidences
// (x_wconf, 0-100) are averaged and rescaled to [0, 1].
func parseHOCRLine(n *html.Node) model.TextLine {
	bbox, _ := parseTitleProps(attrValue(n, "title"))
	line := model.TextLine{
		ID:   attrValue(n, "id"),
		BBox: bbox,
	}

	var words []string
	var confidence float64
	var scored int

	var walkWords func(n *html.Node)
	walkWords = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocrx_word") {
			if text := strings.TrimSpace(textContent(n)); text != "" {
				words = append(words, text)
			}
			if _, conf := parseTitleProps(attrValue(n, "title")); conf >= 0 {
				confidence += conf / 100.0
				scored++
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkWords(c)
		}
	}
	walkWords(n)

	if len(words) > 0 {
		line.Text = strings.Join(words, " ")
	} else {
		line.Text = strings.TrimSpace(textContent(n))
	}
	if scored > 0 {
		line.Confidence = confidence / float64(scored)
	}

	return line
}

// parseTitleProps parses an hOCR title attribute of semicolon-separated
// properties, e.g. "bbox 12 34 56 78; x_wconf 95". It returns the bounding
// box and the x_wconf value (-1 when absent).
func parseTitleProps(title string) (model.BBox, float64) {
	var bbox model.BBox
	conf := -1.0

	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			if len(fields) == 5 {
				x0 := parseFloat(fields[1])
				y0 := parseFloat(fields[2])
				x1 := parseFloat(fields[3])
				y1 := parseFloat(fields[4])
				bbox = model.NewBBoxFromCorners(
					model.Point{X: x0, Y: y0},
					model.Point{X: x1, Y: y1},
				)
			}
		case "x_wconf":
			if len(fields) == 2 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					conf = v
				}
			}
		}
	}

	return bbox, conf
}

// findByClass returns the first element node carrying the given hOCR class.
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// hasClass reports whether an element node carries the given class.
func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent returns the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
