// Package mcpserver exposes the smell engine as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/cppsmell/internal/service/analysis"
)

// Server wraps the MCP server and the analysis service behind its tools.
type Server struct {
	server *mcp.Server
	svc    *analysis.Service
}

// NewServer creates a new MCP server with all cppsmell tools registered.
// Every tool call shares svc, so get_original_text sees the files analyzed
// by earlier analyze_smells calls.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_smells",
		Description: describeSmells(),
	}, s.handleAnalyzeSmells)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_original_text",
		Description: describeOriginalText(),
	}, s.handleGetOriginalText)
}
