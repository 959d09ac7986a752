// Package agent orchestrates one query end to end: routing, sequential tool
// execution, and synthesis of the final cited answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/edgarqa/internal/retrieval"
	"github.com/kalambet/edgarqa/internal/router"
	"github.com/kalambet/edgarqa/internal/synthesis"
	"github.com/kalambet/edgarqa/internal/websearch"
)

const defaultTopK = 5

// snippetLen bounds citation snippets for display.
const snippetLen = 200

// DocumentTool retrieves evidence chunks from the indexed filing.
type DocumentTool interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Result, error)
}

// SearchTool fetches live evidence from the web.
type SearchTool interface {
	Search(ctx context.Context, query string) (websearch.Result, error)
}

// Synthesizer composes the final answer from tool results.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []synthesis.ToolResult) (synthesis.Answer, error)
}

// Agent sequences Router -> tools -> Synthesizer for each query.
type Agent struct {
	document DocumentTool
	search   SearchTool // nil when no search credential is configured
	synth    Synthesizer
	topK     int
	logger   *slog.Logger
}

// New creates an Agent. search may be nil, in which case queries routed to
// web search degrade to document-only answers with a note. If topK <= 0 the
// default (5) is used.
func New(document DocumentTool, search SearchTool, synth Synthesizer, topK int) *Agent {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Agent{
		document: document,
		search:   search,
		synth:    synth,
		topK:     topK,
		logger:   slog.Default(),
	}
}

// Ask answers a query. Selected tools run sequentially, document_qa first.
// A single failing tool degrades gracefully: the answer is built from the
// remaining evidence and carries a note about the missing source. Only
// all-tools-failed, or model exhaustion during synthesis, surfaces an error;
// the latter still returns the gathered evidence and citations alongside it.
func (a *Agent) Ask(ctx context.Context, query string) (synthesis.Answer, error) {
	decision := router.Route(query)
	a.logger.Info("routing decision", "query", query, "tools", decision.Tools)

	var results []synthesis.ToolResult
	var toolsUsed []string
	var notes []string
	var toolErrs []error

	for _, tool := range decision.Tools {
		result, err := a.execute(ctx, tool, query)
		if err != nil {
			a.logger.Warn("tool failed", "tool", tool, "error", err)
			toolErrs = append(toolErrs, fmt.Errorf("%s: %w", tool, err))
			notes = append(notes, failureNote(tool, err))
			continue
		}
		results = append(results, result)
		toolsUsed = append(toolsUsed, string(tool))
	}

	if len(results) == 0 && len(toolErrs) > 0 {
		return synthesis.Answer{}, fmt.Errorf("all tools failed: %w", errors.Join(toolErrs...))
	}

	answer, err := a.synth.Synthesize(ctx, query, results)
	if err != nil {
		var unavailable *synthesis.UnavailableError
		if errors.As(err, &unavailable) {
			// Model exhausted: surface the raw evidence rather than losing it.
			degraded := synthesis.Answer{
				Text: "The answer could not be synthesized. Raw evidence gathered for this query:\n\n" +
					unavailable.Evidence,
				Citations: unavailable.Citations,
				ToolsUsed: toolsUsed,
				Plan:      plan(decision),
				Notes:     append(notes, "answer synthesis was unavailable; showing raw evidence"),
			}
			return degraded, err
		}
		return synthesis.Answer{}, err
	}

	answer.ToolsUsed = toolsUsed
	answer.Plan = plan(decision)
	answer.Notes = notes
	return answer, nil
}

// Plan returns the human-readable execution plan for a query without
// running it.
func (a *Agent) Plan(query string) string {
	return plan(router.Route(query))
}

func (a *Agent) execute(ctx context.Context, tool router.Tool, query string) (synthesis.ToolResult, error) {
	switch tool {
	case router.ToolDocumentQA:
		return a.runDocumentQA(ctx, query)
	case router.ToolWebSearch:
		return a.runWebSearch(ctx, query)
	default:
		return synthesis.ToolResult{}, fmt.Errorf("unknown tool %q", tool)
	}
}

// runDocumentQA retrieves top-K chunks. Zero retrieved chunks is a valid
// empty-evidence result, not a failure.
func (a *Agent) runDocumentQA(ctx context.Context, query string) (synthesis.ToolResult, error) {
	hits, err := a.document.Retrieve(ctx, query, a.topK)
	if err != nil {
		return synthesis.ToolResult{}, err
	}

	result := synthesis.ToolResult{Tool: string(router.ToolDocumentQA)}
	for _, hit := range hits {
		result.Passages = append(result.Passages, synthesis.Passage{
			Text:  hit.Chunk.Text,
			Score: hit.Score,
			Citation: synthesis.Citation{
				Source:  synthesis.SourceDocument,
				Section: hit.Chunk.Section,
				Page:    hit.Chunk.Page,
				Snippet: snippet(hit.Chunk.Text),
			},
		})
	}
	return result, nil
}

func (a *Agent) runWebSearch(ctx context.Context, query string) (synthesis.ToolResult, error) {
	if a.search == nil {
		return synthesis.ToolResult{}, websearch.ErrUnavailable
	}

	found, err := a.search.Search(ctx, query)
	if err != nil {
		return synthesis.ToolResult{}, err
	}

	result := synthesis.ToolResult{Tool: string(router.ToolWebSearch)}
	if found.Answer != "" {
		// Tavily's synthesized answer leads the web evidence; the score
		// keeps it ahead of raw snippets when the context budget is tight.
		result.Passages = append(result.Passages, synthesis.Passage{
			Text:  found.Answer,
			Score: 1,
			Citation: synthesis.Citation{
				Source:  synthesis.SourceWeb,
				Title:   "Web search summary",
				Snippet: snippet(found.Answer),
			},
		})
	}
	for _, src := range found.Sources {
		result.Passages = append(result.Passages, synthesis.Passage{
			Text: src.Snippet,
			Citation: synthesis.Citation{
				Source:  synthesis.SourceWeb,
				URL:     src.URL,
				Title:   src.Title,
				Snippet: snippet(src.Snippet),
			},
		})
	}
	return result, nil
}

func failureNote(tool router.Tool, err error) string {
	if tool == router.ToolWebSearch {
		if errors.Is(err, websearch.ErrUnavailable) {
			return "live web data was unavailable; the answer is based on the 10-K filing only"
		}
		return "web search failed; the answer is based on the 10-K filing only"
	}
	return "the 10-K filing index was unavailable; the answer is based on web sources only"
}

func plan(decision router.Decision) string {
	both := decision.Needs(router.ToolDocumentQA) && decision.Needs(router.ToolWebSearch)
	switch {
	case both:
		return "Plan: (1) Query the 10-K filing for historical data (2) Search the web for current data (3) Synthesize both sources"
	case decision.Needs(router.ToolWebSearch):
		return "Plan: Search the web for current market information"
	default:
		return "Plan: Query the 10-K filing for the requested information"
	}
}

func snippet(text string) string {
	if len(text) <= snippetLen {
		return text
	}
	return strings.TrimSpace(text[:snippetLen]) + "..."
}
