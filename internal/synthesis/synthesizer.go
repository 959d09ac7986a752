package synthesis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kalambet/edgarqa/internal/llm"
)

// NotFoundAnswer is returned verbatim when no tool produced any evidence.
// It is a normal outcome, not an error: the system states that the
// information is absent rather than fabricating an answer.
const NotFoundAnswer = "The requested information was not found in the indexed filing or the available web sources."

// Synthesizer turns gathered evidence into a final prose answer with
// citations.
type Synthesizer struct {
	client           llm.CompletionClient
	maxContextTokens int
	logger           *slog.Logger
}

// New creates a Synthesizer with the given context token budget.
// If maxContextTokens <= 0, the default (4000) is used.
func New(client llm.CompletionClient, maxContextTokens int) *Synthesizer {
	if maxContextTokens <= 0 {
		maxContextTokens = defaultMaxContextTokens
	}
	return &Synthesizer{client: client, maxContextTokens: maxContextTokens, logger: slog.Default()}
}

// Synthesize composes the final answer for a query from the tool results,
// in order. Document evidence always precedes web evidence, both in the
// prompt and in the returned citation list.
//
// With no evidence at all, the explicit not-found answer is returned without
// a model call. If the model call fails after its internal retries, the
// returned error is an *UnavailableError carrying the composed evidence and
// citations so the caller can degrade gracefully.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []ToolResult) (Answer, error) {
	var docPassages, webPassages []Passage
	for _, r := range results {
		for _, p := range r.Passages {
			if p.Citation.Source == SourceDocument {
				docPassages = append(docPassages, p)
			} else {
				webPassages = append(webPassages, p)
			}
		}
	}

	if len(docPassages) == 0 && len(webPassages) == 0 {
		return Answer{Text: NotFoundAnswer, Citations: []Citation{}}, nil
	}

	evidence, selectedDocs, selectedWeb := buildContext(docPassages, webPassages, s.maxContextTokens)
	citations := make([]Citation, 0, len(selectedDocs)+len(selectedWeb))
	for _, p := range selectedDocs {
		citations = append(citations, p.Citation)
	}
	for _, p := range selectedWeb {
		citations = append(citations, p.Citation)
	}

	text, err := s.client.Complete(ctx, buildPrompt(query, evidence))
	if err != nil {
		s.logger.Warn("synthesis model call failed", "error", err)
		return Answer{}, &UnavailableError{Evidence: evidence, Citations: citations, Err: err}
	}

	return Answer{Text: strings.TrimSpace(text), Citations: citations}, nil
}
