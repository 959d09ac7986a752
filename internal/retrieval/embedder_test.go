package retrieval

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

// --- mock embedding client ---

type mockEmbeddingClient struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return make([]float32, 8), nil
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	// Each vector encodes its input's index so order can be verified after
	// the concurrent fan-out.
	client := &mockEmbeddingClient{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			n, err := strconv.Atoi(strings.TrimPrefix(text, "text"))
			if err != nil {
				return nil, err
			}
			return []float32{float32(n)}, nil
		},
	}
	e := NewEmbedder(client)

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = "text" + strconv.Itoa(i)
	}

	vectors, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != 1 || v[0] != float32(i) {
			t.Errorf("vectors[%d] = %v, want [%d]", i, v, i)
		}
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	e := NewEmbedder(&mockEmbeddingClient{})

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vectors != nil {
		t.Errorf("vectors = %v, want nil", vectors)
	}
}

func TestEmbedBatch_Error(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	client := &mockEmbeddingClient{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			if text == "text3" {
				return nil, wantErr
			}
			return make([]float32, 8), nil
		},
	}
	e := NewEmbedder(client)

	_, err := e.EmbedBatch(context.Background(), []string{"text0", "text1", "text2", "text3"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestEmbed_WrapsError(t *testing.T) {
	wantErr := errors.New("boom")
	e := NewEmbedder(&mockEmbeddingClient{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return nil, wantErr
		},
	})

	_, err := e.Embed(context.Background(), "query")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
