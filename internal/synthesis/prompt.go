package synthesis

import (
	"fmt"
	"sort"
	"strings"
)

const defaultMaxContextTokens = 4000

const systemInstructions = `You are a financial research assistant answering questions about a company's 10-K filing, optionally supplemented with live web data.

Rules:
- Answer only from the evidence passages provided below. Do not use outside knowledge.
- Cite evidence using the passage labels, e.g. [Chunk 2] or [Web 1].
- Distinguish clearly between historical data from the 10-K and current data from the web.
- If the evidence does not contain the answer, say so explicitly instead of guessing.`

// buildContext assembles the labeled evidence block for the prompt, keeping
// document passages ahead of web passages. When the evidence exceeds the
// token budget, the lowest-scoring document passages are dropped first.
// Returned passages are the ones actually included, in label order.
func buildContext(docPassages, webPassages []Passage, maxTokens int) (string, []Passage, []Passage) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxContextTokens
	}

	remaining := maxTokens
	selectedDocs := selectByScore(docPassages, &remaining)
	selectedWeb := selectByScore(webPassages, &remaining)

	var sb strings.Builder
	for i, p := range selectedDocs {
		fmt.Fprintf(&sb, "[Chunk %d] (Section: %s, Page: %d)\n%s\n\n",
			i+1, p.Citation.Section, p.Citation.Page, p.Text)
	}
	for i, p := range selectedWeb {
		loc := p.Citation.URL
		if loc == "" {
			loc = p.Citation.Title
		}
		fmt.Fprintf(&sb, "[Web %d] (%s)\n%s\n\n", i+1, loc, p.Text)
	}

	return strings.TrimRight(sb.String(), "\n"), selectedDocs, selectedWeb
}

// selectByScore picks passages highest-score-first until the budget runs
// out, then restores original order so labels follow retrieval rank.
func selectByScore(passages []Passage, remaining *int) []Passage {
	order := make([]int, len(passages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return passages[order[a]].Score > passages[order[b]].Score
	})

	keep := make(map[int]bool, len(passages))
	for _, idx := range order {
		tokens := estimateTokens(passages[idx].Text) + 16 // label overhead
		if tokens > *remaining {
			continue
		}
		keep[idx] = true
		*remaining -= tokens
	}

	var selected []Passage
	for i, p := range passages {
		if keep[i] {
			selected = append(selected, p)
		}
	}
	return selected
}

// buildPrompt assembles the full completion prompt.
func buildPrompt(query, context string) string {
	var sb strings.Builder
	sb.WriteString(systemInstructions)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nEvidence:\n\n")
	sb.WriteString(context)
	sb.WriteString("\n\nYour answer:")
	return sb.String()
}

// estimateTokens uses the rough 4-chars-per-token heuristic.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
