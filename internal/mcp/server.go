package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/chatguard/internal/api"
)

// Checker is the host surface the MCP tools call. *server.Server satisfies it.
type Checker interface {
	Check(ctx context.Context, req api.EvalRequest) api.EvalResponse
	Record(ctx context.Context, req api.RecordRequest) error
	Reset(ctx context.Context, req api.ResetRequest) error
}

// Server wraps the MCP SDK server around a Checker.
type Server struct {
	mcpServer *mcpsdk.Server
	checker   Checker
}

// New creates an MCP server exposing the contact filter tools.
func New(checker Checker, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{checker: checker}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "chatguard",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatguard_evaluate",
		Description: "Check whether a chat message leaks contact information (phone, website, email, social handle), including details split across the sender's recent messages.",
	}, s.handleEvaluate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatguard_record",
		Description: "Replace a sender's recent message history in a channel for conversation analysis.",
	}, s.handleRecord)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatguard_reset",
		Description: "Forget a sender's message history in a channel, e.g. when the chat session ends.",
	}, s.handleReset)
}
