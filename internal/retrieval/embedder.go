// Package retrieval embeds queries and finds the most similar indexed
// filing chunks.
package retrieval

import (
	"context"
	"fmt"

	"github.com/kalambet/edgarqa/internal/llm"
	"golang.org/x/sync/errgroup"
)

// Embedder wraps an EmbeddingClient. The identical client must be used at
// index-build time and query time; the Retriever and Indexer therefore share
// one Embedder instance.
type Embedder struct {
	client llm.EmbeddingClient
}

// NewEmbedder creates an Embedder over the given embedding client.
func NewEmbedder(client llm.EmbeddingClient) *Embedder {
	return &Embedder{client: client}
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	return vec, nil
}

// EmbedBatch returns embedding vectors for multiple texts concurrently.
// Returns nil (not error) for empty/nil input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to avoid overwhelming the embedding API.

	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.client.Embed(gCtx, text)
			if err != nil {
				return fmt.Errorf("embedding text %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
