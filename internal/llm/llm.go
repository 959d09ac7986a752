// Package llm provides narrow capability interfaces over the language-model
// backend so callers (and tests) never depend on a concrete provider.
package llm

import "context"

// CompletionClient produces free text from a prompt.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient maps text to a fixed-length vector. The same client must
// be used at index-build time and query time; mixing embedding models makes
// similarity scores meaningless.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
