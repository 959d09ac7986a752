package filing

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts per-page text from a PDF filing. Unlike the HTML path,
// page numbers here are exact.
func parsePDF(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	doc := &Document{Path: path}
	section := defaultSection

	total := r.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not abort the build.
			continue
		}

		for _, para := range splitParagraphs(text) {
			if sec := sectionForHeading(para); sec != "" {
				section = sec
			}
			doc.Blocks = append(doc.Blocks, Block{Section: section, Page: pageNum, Text: para})
		}
	}

	return doc, nil
}

// splitParagraphs breaks extracted page text into whitespace-normalized
// paragraphs so heading detection can see individual lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := collapseWhitespace(line)
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
