package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/wikidex/internal/store"
	"github.com/Aman-CERP/wikidex/pkg/version"
)

// Server exposes a built index to MCP clients.
type Server struct {
	mcp      *mcp.Server
	index    store.Index
	manifest *store.Manifest
	dir      string
	logger   *slog.Logger

	mu sync.RWMutex
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"words to look for in page titles and bodies"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of pages, default 10, at most 50"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []PageOutput `json:"results" jsonschema:"matching pages, best first"`
}

// PageOutput is one search hit.
type PageOutput struct {
	ID    uint64  `json:"id" jsonschema:"document id assigned at build time"`
	Title string  `json:"title" jsonschema:"page title"`
	Score float64 `json:"score" jsonschema:"relevance score, higher is better"`
}

// IndexStatusInput is the (empty) input schema for index_status.
type IndexStatusInput struct{}

// IndexStatusOutput describes the served index.
type IndexStatusOutput struct {
	Dir       string `json:"dir"`
	Backend   string `json:"backend"`
	Language  string `json:"language"`
	Encoding  string `json:"encoding"`
	Dump      string `json:"dump,omitempty"`
	Documents uint64 `json:"documents"`
	FirstID   uint64 `json:"first_id"`
	LastID    uint64 `json:"last_id"`
	Builds    int    `json:"builds"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Full-text search over the indexed wiki pages. Returns page titles and ids ranked by relevance.",
	},
	{
		Name:        "index_status",
		Description: "Describe the served index: backend, language, document count and id range.",
	},
}

// NewServer creates a server over index. manifest may be nil when the
// index was opened without one.
func NewServer(index store.Index, manifest *store.Manifest, dir string, logger *slog.Logger) (*Server, error) {
	if index == nil {
		return nil, errors.New("index is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		index:    index,
		manifest: manifest,
		dir:      dir,
		logger:   logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: version.Name, Version: version.Version},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-decoded arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		input := SearchInput{}
		if q, ok := args["query"].(string); ok {
			input.Query = q
		}
		if l, ok := args["limit"].(float64); ok {
			input.Limit = int(l)
		}
		return s.search(ctx, input)
	case "index_status":
		return s.indexStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	limit := clampLimit(input.Limit, DefaultLimit, 1, MaxLimit)

	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("search started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.Int("limit", limit))

	s.mu.RLock()
	results, err := s.index.Search(ctx, input.Query, limit)
	s.mu.RUnlock()
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(results)))

	out := &SearchOutput{Results: make([]PageOutput, 0, len(results))}
	for _, r := range filterValidResults(results) {
		out.Results = append(out.Results, toPageOutput(r))
	}
	return out, nil
}

func (s *Server) indexStatus(ctx context.Context) (*IndexStatusOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, MapError(err)
	}

	out := &IndexStatusOutput{Dir: s.dir, Documents: count}
	if m := s.manifest; m != nil {
		out.Backend = m.Backend
		out.Language = m.Language
		out.Encoding = m.Encoding
		out.Dump = m.Dump
		out.FirstID = uint64(m.FirstID)
		out.LastID = uint64(m.LastID)
		out.Builds = m.Builds
		if !m.UpdatedAt.IsZero() {
			out.UpdatedAt = m.UpdatedAt.Format(time.RFC3339)
		}
	}
	return out, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	out, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	text := FormatSearchResults(input.Query, out.hits())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, *out, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	out, err := s.indexStatus(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

// Serve runs the server on transport until ctx is done or the client
// disconnects. Only "stdio" is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_started", slog.String("transport", transport), slog.String("dir", s.dir))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close closes the served index.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// generateRequestID creates a short id for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
