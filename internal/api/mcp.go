package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/edgarqa/internal/retrieval"
)

// MCPRetriever abstracts raw chunk retrieval for the MCP layer.
type MCPRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Result, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Agent     Asker
	Retriever MCPRetriever
	Stats     IndexStats
	SourceID  string
}

// NewMCPServer creates an MCP server exposing the filing QA tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"edgarqa",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("edgarqa — cited question answering over an indexed SEC 10-K filing, with optional live web search."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_filing",
			mcp.WithDescription("Answer a question about the indexed 10-K filing, combining document retrieval and live web search as needed. Returns a cited answer."),
			mcp.WithString("query", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAskFiling(deps),
	)

	s.AddTool(
		mcp.NewTool("search_filing",
			mcp.WithDescription("Semantically search the indexed 10-K filing and return the most relevant chunks with section and page metadata."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of chunks (default 5)")),
		),
		mcpSearchFiling(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"filing://stats",
			"Filing Index Stats",
			mcp.WithResourceDescription("Chunk count and section list for the indexed filing"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	return s
}

func mcpAskFiling(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		answer, err := deps.Agent.Ask(ctx, query)
		if err != nil && answer.Text == "" {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}

		b, err := json.Marshal(answer)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal answer: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchFiling(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		hits, err := deps.Retriever.Retrieve(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(hits) == 0 {
			return mcpText("[]"), nil
		}

		type chunkResult struct {
			Section    string  `json:"section"`
			Page       int     `json:"page"`
			ChunkIndex int     `json:"chunk_index"`
			Text       string  `json:"text"`
			Score      float32 `json:"score"`
			Rank       int     `json:"rank"`
		}

		results := make([]chunkResult, len(hits))
		for i, h := range hits {
			results[i] = chunkResult{
				Section:    h.Chunk.Section,
				Page:       h.Chunk.Page,
				ChunkIndex: h.Chunk.ChunkIndex,
				Text:       h.Chunk.Text,
				Score:      h.Score,
				Rank:       h.Rank,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		count, err := deps.Stats.Count(deps.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks: %w", err)
		}
		sections, err := deps.Stats.Sections(deps.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sections: %w", err)
		}

		b, err := json.Marshal(map[string]any{
			"source_id": deps.SourceID,
			"chunks":    count,
			"sections":  sections,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
