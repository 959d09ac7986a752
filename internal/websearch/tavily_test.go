package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testResponse = `{
	"answer": "The stock closed at $230.",
	"results": [
		{"title": "Quote", "url": "https://example.com/quote", "content": "AAPL closed at $230."},
		{"title": "News", "url": "https://example.com/news", "content": "Shares rose 2%."}
	]
}`

func TestSearch(t *testing.T) {
	var gotReq searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("got %s %s, want POST /search", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, testResponse)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	result, err := c.Search(context.Background(), "current stock price")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.APIKey != "test-key" {
		t.Errorf("api_key = %q, want %q", gotReq.APIKey, "test-key")
	}
	if gotReq.Query != "current stock price" {
		t.Errorf("query = %q, want %q", gotReq.Query, "current stock price")
	}
	if gotReq.SearchDepth != "basic" {
		t.Errorf("search_depth = %q, want %q", gotReq.SearchDepth, "basic")
	}
	if gotReq.MaxResults != defaultMaxResults {
		t.Errorf("max_results = %d, want %d", gotReq.MaxResults, defaultMaxResults)
	}
	if !gotReq.IncludeAnswer {
		t.Error("include_answer = false, want true")
	}

	if result.Answer != "The stock closed at $230." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(result.Sources))
	}
	if result.Sources[0].URL != "https://example.com/quote" {
		t.Errorf("Sources[0].URL = %q", result.Sources[0].URL)
	}
	if result.Sources[1].Snippet != "Shares rose 2%." {
		t.Errorf("Sources[1].Snippet = %q", result.Sources[1].Snippet)
	}
}

func TestSearch_AnswerFallbackFromSnippets(t *testing.T) {
	resp := `{
		"answer": "",
		"results": [
			{"title": "A", "url": "https://a", "content": "First snippet."},
			{"title": "B", "url": "https://b", "content": "Second snippet."},
			{"title": "C", "url": "https://c", "content": "Third snippet."},
			{"title": "D", "url": "https://d", "content": "Fourth snippet."}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resp)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", srv.URL)
	result, err := c.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Only the top three snippets back the fallback answer.
	want := "First snippet.\n\nSecond snippet.\n\nThird snippet."
	if result.Answer != want {
		t.Errorf("Answer = %q, want %q", result.Answer, want)
	}
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, testResponse)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", srv.URL)
	result, err := c.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if result.Answer == "" {
		t.Error("empty answer after successful retry")
	}
}

func TestSearch_ExhaustedRetriesWrapUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", srv.URL)
	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls.Load() != maxRetries {
		t.Errorf("calls = %d, want %d", calls.Load(), maxRetries)
	}
}

func TestSearch_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", srv.URL)
	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSearch_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Immediately closed: connection refused.

	c := NewClientWithBaseURL("k", srv.URL)
	_, err := c.Search(context.Background(), "q")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClientWithBaseURL("k", srv.URL)
	_, err := c.Search(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
