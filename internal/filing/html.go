package filing

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// charsPerPage is the fallback pagination estimate for HTML filings that
// carry no explicit page-break markers. SEC 10-K pages run roughly 3000-4000
// characters of body text, so 3500 is used as a fixed best-effort estimate.
// Page numbers derived this way are approximate and monotonically increasing,
// which is all the citation layer requires.
const charsPerPage = 3500

// Elements that terminate a text block when encountered.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "section": true, "article": true,
}

// Elements whose text content is never indexed.
var skipElements = map[string]bool{
	"script": true, "style": true, "head": true, "title": true, "noscript": true,
}

func parseHTML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	c := &htmlCollector{section: defaultSection}
	c.walk(root)
	c.flush()

	doc := &Document{Path: path, Blocks: c.blocks}
	if !c.sawBreak {
		paginateByLength(doc.Blocks)
	}
	return doc, nil
}

// htmlCollector accumulates text into blocks while tracking the current
// section heading and page-break count.
type htmlCollector struct {
	blocks   []Block
	current  strings.Builder
	section  string
	breaks   int
	sawBreak bool
}

func (c *htmlCollector) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		if skipElements[n.Data] {
			return
		}
		if isPageBreak(n) {
			c.flush()
			c.breaks++
			c.sawBreak = true
		}
		if blockElements[n.Data] {
			c.flush()
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.walk(child)
		}
		if blockElements[n.Data] {
			c.flush()
		}
		return
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			if c.current.Len() > 0 {
				c.current.WriteByte(' ')
			}
			c.current.WriteString(n.Data)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

// flush turns accumulated text into a Block, switching the active section
// first when the text is a recognized item heading.
func (c *htmlCollector) flush() {
	text := collapseWhitespace(c.current.String())
	c.current.Reset()
	if text == "" {
		return
	}

	if sec := sectionForHeading(text); sec != "" {
		c.section = sec
	}

	c.blocks = append(c.blocks, Block{Section: c.section, Page: c.breaks + 1, Text: text})
}

// isPageBreak reports whether the element marks a page boundary: an <hr>
// or any element styled with a CSS page-break property, which is how EDGAR
// HTML renders pagination.
func isPageBreak(n *html.Node) bool {
	if n.Data == "hr" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "style" {
			continue
		}
		style := strings.ToLower(attr.Val)
		if strings.Contains(style, "page-break-before") ||
			strings.Contains(style, "page-break-after") ||
			strings.Contains(style, "break-before:page") {
			return true
		}
	}
	return false
}

// paginateByLength assigns synthetic page numbers from cumulative text length
// when the document carried no explicit page-break markers.
func paginateByLength(blocks []Block) {
	offset := 0
	for i := range blocks {
		blocks[i].Page = offset/charsPerPage + 1
		offset += len(blocks[i].Text) + 1
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
