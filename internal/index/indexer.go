package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kalambet/edgarqa/internal/filing"
)

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer builds and loads the persisted vector index for a filing.
type Indexer struct {
	store    *Store
	embedder Embedder
	logger   *slog.Logger
}

// NewIndexer creates an Indexer over the given store and embedder.
func NewIndexer(store *Store, embedder Embedder) *Indexer {
	return &Indexer{store: store, embedder: embedder, logger: slog.Default()}
}

// Build parses, chunks, and embeds the filing at path, then atomically
// replaces all index records for sourceID. Rebuilding with the same source
// is idempotent: the prior records are discarded, never duplicated. Returns
// the number of chunks indexed.
func (ix *Indexer) Build(ctx context.Context, path, sourceID string) (int, error) {
	doc, err := filing.Parse(path)
	if err != nil {
		return 0, err
	}

	chunks := filing.ChunkDocument(doc, sourceID)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no chunks produced from %s", filing.ErrParse, path)
	}
	ix.logger.Info("chunked filing", "source_id", sourceID, "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}

	now := time.Now().UTC()
	records := make([]Record, len(chunks))
	for i, ch := range chunks {
		records[i] = Record{
			ID:        uuid.New().String(),
			Chunk:     ch,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	if err := ix.store.Replace(sourceID, records); err != nil {
		return 0, fmt.Errorf("persisting index: %w", err)
	}

	ix.logger.Info("index built", "source_id", sourceID, "chunks", len(records))
	return len(records), nil
}

// Ensure makes the index for sourceID available, reusing an existing on-disk
// index when present. On a cache hit the document is neither re-parsed nor
// re-embedded. Returns the chunk count and whether a build ran.
func (ix *Indexer) Ensure(ctx context.Context, path, sourceID string) (int, bool, error) {
	count, err := ix.store.Count(sourceID)
	if err != nil {
		return 0, false, fmt.Errorf("checking existing index: %w", err)
	}
	if count > 0 {
		ix.logger.Debug("index already built", "source_id", sourceID, "chunks", count)
		return count, false, nil
	}

	count, err = ix.Build(ctx, path, sourceID)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
