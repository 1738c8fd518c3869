package main

import (
	"fmt"

	"github.com/tsawler/textbite/alto"
	"github.com/tsawler/textbite/model"
	"github.com/tsawler/textbite/pagexml"
	"github.com/tsawler/textbite/reader"
)

// loadPageFiles parses one page, preferring layout XML over the ALTO
// export. Pages with neither file return nil.
func loadPageFiles(f reader.PageFiles) (*model.Page, error) {
	switch {
	case f.XML != "":
		page, err := pagexml.Open(f.XML)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.XML, err)
		}
		return page, nil
	case f.ALTO != "":
		page, err := alto.Open(f.ALTO)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.ALTO, err)
		}
		return page, nil
	default:
		return nil, nil
	}
}
