// Package filing parses SEC filings (HTML or PDF) into labeled, page-tagged
// text blocks and chunks them for indexing.
package filing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filings shorter than this are considered unparsable rather than indexed.
const minDocumentChars = 1000

var (
	// ErrNotFound indicates the source document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrParse indicates the source document could not be parsed into text.
	ErrParse = errors.New("document parse failed")
)

// Block is a contiguous span of filing text tagged with the section heading
// and page number in effect at its position.
type Block struct {
	Section string
	Page    int
	Text    string
}

// Document is a parsed filing: an ordered sequence of blocks.
type Document struct {
	Path   string
	Blocks []Block
}

// Text returns the full plain text of the document.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// Parse reads and parses a filing, dispatching on file extension.
// HTML is parsed with best-effort section and page heuristics; PDF pages
// are exact. Returns ErrNotFound if the file is missing and ErrParse if
// the content yields too little text to index.
func Parse(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc, err = parsePDF(path)
	default:
		// SEC EDGAR filings are .htm; treat anything else as HTML too,
		// since the HTML parser degrades to plain text on tag-free input.
		doc, err = parseHTML(path)
	}
	if err != nil {
		return nil, err
	}

	if total := len(doc.Text()); total < minDocumentChars {
		return nil, fmt.Errorf("%w: document contains only %d characters of text", ErrParse, total)
	}
	return doc, nil
}
