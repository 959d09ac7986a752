// Package websearch wraps the Tavily live-search API behind a uniform
// result contract.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 5
	requestTimeout    = 30 * time.Second
	maxRetries        = 3
	initialBackoff    = 500 * time.Millisecond
)

// ErrUnavailable indicates the search backend could not be reached or kept
// rate-limiting after retries. Callers degrade to document-only answers.
var ErrUnavailable = errors.New("web search unavailable")

// Source is one web result backing the search answer.
type Source struct {
	URL     string
	Title   string
	Snippet string
}

// Result is a normalized search response: a short answer plus the sources
// it was drawn from.
type Result struct {
	Answer  string
	Sources []Source
}

// Client calls the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxResults int
}

// NewClient creates a Tavily client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		maxResults: defaultMaxResults,
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries Tavily and normalizes the response. Rate limits and
// transient failures are retried with exponential backoff; on exhaustion
// the returned error wraps ErrUnavailable rather than the raw transport
// error.
func (c *Client) Search(ctx context.Context, query string) (Result, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		MaxResults:    c.maxResults,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling search request: %w", err)
	}

	var lastErr error
	for attempt := range maxRetries {
		result, err := c.doSearch(ctx, body)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if !isRetryable(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return Result{}, fmt.Errorf("%w: after %d retries: %v", ErrUnavailable, maxRetries, lastErr)
}

// statusError marks HTTP-level failures so the retry loop can distinguish
// rate limits and server errors from permanent request errors.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	if e.status == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("unexpected status %d", e.status)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	// Anything that isn't an HTTP status failure is a transport error.
	return true
}

func (c *Client) doSearch(ctx context.Context, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, &statusError{status: resp.StatusCode}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Result{}, fmt.Errorf("decoding search response: %w", err)
	}

	return normalize(sr), nil
}

// normalize converts the raw API response into the uniform Result contract.
// When Tavily returns no synthesized answer, the top result snippets are
// joined as a fallback.
func normalize(sr searchResponse) Result {
	result := Result{Answer: strings.TrimSpace(sr.Answer)}
	for _, r := range sr.Results {
		result.Sources = append(result.Sources, Source{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
		})
	}

	if result.Answer == "" {
		var parts []string
		for i, s := range result.Sources {
			if i == 3 {
				break
			}
			if s.Snippet != "" {
				parts = append(parts, s.Snippet)
			}
		}
		result.Answer = strings.Join(parts, "\n\n")
	}

	return result
}
