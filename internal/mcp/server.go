// Package mcp exposes winwin-search over the Model Context Protocol so AI
// clients can query local knowledge bases as a tool.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
	"github.com/heibaibufen/winwin-search/internal/kb"
	"github.com/heibaibufen/winwin-search/pkg/version"
)

// Server is the MCP server bridging AI clients with the search engine.
type Server struct {
	mcp     *mcp.Server
	manager *kb.Manager
	logger  *slog.Logger
}

// NewServer creates an MCP server over the given knowledge-base manager.
func NewServer(manager *kb.Manager, logger *slog.Logger) (*Server, error) {
	if manager == nil {
		return nil, errors.New("knowledge base manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{manager: manager, logger: logger}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "winwin-search",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)
	s.registerTools()
	return s, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search across local knowledge bases with BM25 ranking. Handles both English and Chinese queries. Pass knowledge_base to search one collection, or omit it to search all enabled ones.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report registered knowledge bases with document counts, term counts, and last index time. Use to check whether a knowledge base has been indexed before searching it.",
	}, s.indexStatusHandler)

	s.logger.Info("mcp_tools_registered", slog.Int("count", 2))
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query         string `json:"query" jsonschema:"the search query to execute"`
	KnowledgeBase string `json:"knowledge_base,omitempty" jsonschema:"knowledge base id to search, default all enabled ones"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchResultOutput is one hit in the search tool output.
type SearchResultOutput struct {
	KnowledgeBase string  `json:"knowledge_base"`
	Path          string  `json:"path"`
	Score         float64 `json:"score"`
	Snippet       string  `json:"snippet,omitempty"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchOutput{}, wserrors.InvalidQuery("query parameter is required")
	}

	target := input.KnowledgeBase
	if target == "" {
		target = kb.TargetAll
	}

	results, err := s.manager.Search(ctx, target, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, SearchResultOutput{
			KnowledgeBase: r.KnowledgeBase,
			Path:          r.Path,
			Score:         r.Score,
			Snippet:       r.Snippet,
		})
	}
	return nil, output, nil
}

// IndexStatusInput defines the input schema for the index_status tool.
type IndexStatusInput struct {
	KnowledgeBase string `json:"knowledge_base,omitempty" jsonschema:"knowledge base id, default all registered ones"`
}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	KnowledgeBases []kb.Stats `json:"knowledge_bases"`
}

func (s *Server) indexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, input IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	target := input.KnowledgeBase
	if target == "" {
		target = kb.TargetAll
	}

	stats, err := s.manager.Stats(ctx, target)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, IndexStatusOutput{KnowledgeBases: stats}, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}
