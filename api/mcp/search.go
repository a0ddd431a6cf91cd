package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
)

var (
	searchToolName    = "search"
	searchDescription = "Semantic search over the indexed documentation collection. Returns the most similar chunks with their similarity score and stored metadata. Results are candidates, not an answer."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the natural-language search query"`
	TopK  *int   `json:"top_k,omitempty" jsonschema:"number of results to return, at least 1 (default: 5)"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, *retrieval.Response, error) {
	logger := s.config.Logger

	logger.Debug("MCP search request",
		"query", input.Query,
		"top_k_set", input.TopK != nil,
	)

	resp, err := s.config.Searcher.Search(ctx, input.Query, input.TopK)
	if err != nil {
		logger.Warn("MCP search failed", "status", retrieval.KindOf(err), "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("%s: %v", retrieval.KindOf(err), err)},
			},
		}, nil, nil
	}

	// Structured results are also returned as serialized JSON text for
	// clients that only read text content.
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, resp, nil
}
