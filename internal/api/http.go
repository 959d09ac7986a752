// Package api exposes the question-answering agent over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/edgarqa/internal/synthesis"
)

const maxAskBodySize = 1 << 20 // 1MB

// Asker is the caller-facing entry point of the core: one query in, one
// cited answer out.
type Asker interface {
	Ask(ctx context.Context, query string) (synthesis.Answer, error)
}

// IndexStats reports what is currently indexed.
type IndexStats interface {
	Count(sourceID string) (int, error)
	Sections(sourceID string) ([]string, error)
}

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Agent    Asker
	Stats    IndexStats
	SourceID string
	Token    string // optional; empty disables auth
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// NewHandler builds the HTTP API router.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(deps))

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/v1/ask", handleAsk(deps))
	})

	return r
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAskBodySize)
		defer r.Body.Close()

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		answer, err := deps.Agent.Ask(r.Context(), req.Query)
		if err != nil {
			// Synthesis exhaustion still carries usable evidence; return it
			// as a degraded 200 rather than discarding fetched data.
			if answer.Text != "" {
				writeJSON(w, http.StatusOK, answer)
				return
			}
			httpError(w, http.StatusBadGateway, "upstream_error", "query failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, answer)
	}
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Stats.Count(deps.SourceID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "checking index: %v", err)
			return
		}
		sections, err := deps.Stats.Sections(deps.SourceID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "reading sections: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"source_id": deps.SourceID,
			"chunks":    count,
			"sections":  sections,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
