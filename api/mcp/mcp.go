// Package mcp exposes chat sessions as MCP (Model Context Protocol) tools, so
// an agent can hold a conversation with the configured flow.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/prompts"
	"github.com/papercomputeco/flowchat/pkg/utils"
)

type Config struct {
	// Sessions holds the conversations the tools operate on
	Sessions *chat.Manager

	// Catalog resolves prompt_index for the ask tool. Defaults to prompts.Default()
	Catalog *prompts.Catalog

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask, history and clear tools.
func NewServer(c Config) (*Server, error) {
	if c.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if c.Catalog == nil {
		c.Catalog = prompts.Default()
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "flowchat",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        historyToolName,
		Description: historyDescription,
	}, s.handleHistory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        clearToolName,
		Description: clearDescription,
	}, s.handleClear)

	s.mcpServer = mcpServer

	// Sessions live in the chat manager, so the transport can stay stateless
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves the MCP server over transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}
