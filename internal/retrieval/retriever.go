package retrieval

import (
	"context"
	"fmt"

	"github.com/kalambet/edgarqa/internal/filing"
	"github.com/kalambet/edgarqa/internal/index"
)

// Result is a retrieved chunk with its similarity score and 1-based rank.
type Result struct {
	Chunk filing.Chunk
	Score float32
	Rank  int
}

// Searcher is the slice of the index store the Retriever needs.
type Searcher interface {
	Search(vector []float32, sourceID string, topK int) ([]index.ScoredRecord, error)
}

// Retriever combines query embedding and vector search over one filing.
type Retriever struct {
	embedder *Embedder
	store    Searcher
	sourceID string
	minScore float32
}

// NewRetriever creates a Retriever for the given source. minScore is an
// optional similarity floor; results scoring below it are dropped. Pass a
// value <= 0 to disable the floor.
func NewRetriever(embedder *Embedder, store Searcher, sourceID string, minScore float32) *Retriever {
	return &Retriever{embedder: embedder, store: store, sourceID: sourceID, minScore: minScore}
}

// Retrieve embeds the query and returns up to topK chunks ordered by
// descending similarity (ascending chunk index on ties). An empty index, or
// no chunk clearing the similarity floor, yields an empty slice and no error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 1
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := r.store.Search(vec, r.sourceID, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var results []Result
	for _, s := range scored {
		if r.minScore > 0 && s.Score < r.minScore {
			continue
		}
		results = append(results, Result{
			Chunk: s.Chunk,
			Score: s.Score,
			Rank:  len(results) + 1,
		})
	}
	return results, nil
}
