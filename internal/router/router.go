// Package router decides which tools answer a query. Routing is a pure
// function of the query text: a fixed keyword rule list, no model call, so
// the same query always selects the same tools at zero latency.
package router

import "strings"

// Tool identifies a query-answering tool.
type Tool string

const (
	// ToolDocumentQA retrieves evidence from the indexed filing.
	ToolDocumentQA Tool = "document_qa"
	// ToolWebSearch fetches live data from the web.
	ToolWebSearch Tool = "web_search"
)

// Decision is the outcome of routing one query: the tools to invoke, in
// invocation order, and the keywords that matched per tool category.
type Decision struct {
	Tools   []Tool
	Matched map[Tool][]string
}

// Keywords suggesting the answer lives in the filing itself.
var documentKeywords = []string{
	"risk factor", "10-k", "10k", "filing", "filed", "annual report",
	"management discussion", "md&a", "financial statement",
	"balance sheet", "income statement", "cash flow statement", "r&d",
}

// Keywords suggesting the answer needs current, post-filing data.
var liveKeywords = []string{
	"current", "today", "now", "stock price", "share price",
	"market cap", "latest stock", "recent news", "this week", "right now",
}

// Keywords suggesting a comparison against peers, which needs the filing
// for one side and live data for the other.
var comparativeKeywords = []string{
	"compare", "compared", "versus", "vs", "competitor", "industry average",
	"microsoft", "google", "alphabet", "amazon", "meta", "nvidia", "samsung", "intel",
}

// Route selects the tool set for a query. The rule list is evaluated in
// order:
//
//  1. A comparative keyword, or both a document and a live keyword,
//     selects both tools with document_qa first.
//  2. Only live keywords select web_search alone.
//  3. Everything else, including no match at all, falls through to
//     document_qa alone: the filing is the primary source of truth.
//
// Route is total: the tool list is never empty.
func Route(query string) Decision {
	docMatches := match(query, documentKeywords)
	liveMatches := match(query, liveKeywords)
	compMatches := match(query, comparativeKeywords)

	matched := map[Tool][]string{}

	switch {
	case len(compMatches) > 0 || (len(docMatches) > 0 && len(liveMatches) > 0):
		matched[ToolDocumentQA] = append(docMatches, compMatches...)
		matched[ToolWebSearch] = append(liveMatches, compMatches...)
		return Decision{Tools: []Tool{ToolDocumentQA, ToolWebSearch}, Matched: matched}
	case len(liveMatches) > 0:
		matched[ToolWebSearch] = liveMatches
		return Decision{Tools: []Tool{ToolWebSearch}, Matched: matched}
	default:
		matched[ToolDocumentQA] = docMatches
		return Decision{Tools: []Tool{ToolDocumentQA}, Matched: matched}
	}
}

// Needs reports whether the decision selects the given tool.
func (d Decision) Needs(tool Tool) bool {
	for _, t := range d.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// match returns the keywords found in the query. Multi-word phrases match
// by substring on the normalized query; single words must match a whole
// token, so "now" never fires on "know".
func match(query string, keywords []string) []string {
	normalized := strings.ToLower(query)
	tokens := tokenSet(normalized)

	var found []string
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(normalized, kw) {
				found = append(found, kw)
			}
			continue
		}
		if tokens[kw] {
			found = append(found, kw)
		}
	}
	return found
}

// tokenSet splits the query into lowercase tokens, trimming sentence
// punctuation but keeping in-word characters like "10-k" and "r&d" intact.
func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tok = strings.Trim(tok, `.,;:!?()"'`)
		if tok == "" {
			continue
		}
		set[tok] = true
		// "microsoft's" should also count as "microsoft".
		if base, ok := strings.CutSuffix(tok, "'s"); ok {
			set[base] = true
		}
	}
	return set
}
