package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const (
	completionTimeout = 60 * time.Second
	embedTimeout      = 30 * time.Second
	maxRetries        = 3
	initialBackoff    = 500 * time.Millisecond
)

// Compile-time checks that Gemini satisfies both capability interfaces.
var (
	_ CompletionClient = (*Gemini)(nil)
	_ EmbeddingClient  = (*Gemini)(nil)
)

// Gemini implements completion and embeddings via the Gemini API.
// Rate-limited and transient server failures are retried with exponential
// backoff before an error is surfaced.
type Gemini struct {
	client     *genai.Client
	model      string
	embedModel string
}

// NewGemini creates a Gemini client for the given models.
func NewGemini(ctx context.Context, apiKey, model, embedModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, embedModel: embedModel}, nil
}

// Complete sends the prompt to the generation model and returns its text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.withRetry(ctx, func(callCtx context.Context) error {
		resp, err := g.client.Models.GenerateContent(
			callCtx,
			g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			nil,
		)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	}, completionTimeout)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return text, nil
}

// Embed returns the embedding vector for the given text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := g.withRetry(ctx, func(callCtx context.Context) error {
		resp, err := g.client.Models.EmbedContent(
			callCtx,
			g.embedModel,
			[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
			nil,
		)
		if err != nil {
			return err
		}
		if len(resp.Embeddings) == 0 {
			return fmt.Errorf("empty embeddings response")
		}
		vec = resp.Embeddings[0].Values
		return nil
	}, embedTimeout)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	return vec, nil
}

// withRetry runs call with a bounded per-attempt timeout, retrying retryable
// failures with exponential backoff up to maxRetries attempts.
func (g *Gemini) withRetry(ctx context.Context, call func(context.Context) error, timeout time.Duration) error {
	var lastErr error
	for attempt := range maxRetries {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// isRetryable reports whether an API error is worth retrying: rate limits,
// server-side failures, and transport-level timeouts.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
