// Package synthesis composes a final cited answer from the evidence the
// tools gathered.
package synthesis

import "fmt"

// SourceType distinguishes filing evidence from web evidence.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceWeb      SourceType = "web"
)

// Citation points at where a piece of evidence came from. Document citations
// carry section and page; web citations carry a URL. Exactly one of the two
// is populated, matching Source.
type Citation struct {
	Source  SourceType `json:"source_type"`
	Section string     `json:"section,omitempty"`
	Page    int        `json:"page,omitempty"`
	URL     string     `json:"url,omitempty"`
	Title   string     `json:"title,omitempty"`
	Snippet string     `json:"snippet,omitempty"`
}

// Ref renders a short human-readable reference for display.
func (c Citation) Ref() string {
	if c.Source == SourceDocument {
		return fmt.Sprintf("Section: %s, Page: %d", c.Section, c.Page)
	}
	switch {
	case c.Title != "" && c.URL != "":
		return fmt.Sprintf("%s — %s", c.Title, c.URL)
	case c.Title != "":
		return c.Title
	default:
		return c.URL
	}
}

// Passage is one attributed piece of evidence.
type Passage struct {
	Text     string
	Score    float32
	Citation Citation
}

// ToolResult is the evidence one tool produced for a query.
type ToolResult struct {
	Tool     string
	Passages []Passage
}

// Citations returns the citations of all passages, in passage order.
func (r ToolResult) Citations() []Citation {
	out := make([]Citation, len(r.Passages))
	for i, p := range r.Passages {
		out[i] = p.Citation
	}
	return out
}

// Answer is the final response for a query.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
	ToolsUsed []string   `json:"tools_used,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	Notes     []string   `json:"notes,omitempty"`
}

// UnavailableError reports that the language-model call kept failing after
// retries. The already-gathered evidence and citations ride along so the
// caller can still surface them instead of losing fetched data.
type UnavailableError struct {
	Evidence  string
	Citations []Citation
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("synthesis unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
