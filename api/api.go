package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/flowchat/api/mcp"
	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

// Server is the API server for chat sessions.
type Server struct {
	config   Config
	sessions *chat.Manager
	catalog  *prompts.Catalog
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The session manager is injected so callers decide how sessions reach the flow.
func NewServer(config Config, sessions *chat.Manager, catalog *prompts.Catalog, logger *slog.Logger) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if catalog == nil {
		catalog = prompts.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Sessions: sessions,
		Catalog:  catalog,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/prompts", s.handleListPrompts)
	app.Post("/sessions", s.handleCreateSession)
	app.Delete("/sessions/:id", s.handleDeleteSession)
	app.Post("/sessions/:id/messages", s.handleSubmitMessage)
	app.Post("/sessions/:id/prompts/:index", s.handleSubmitPrompt)
	app.Get("/sessions/:id/history", s.handleGetHistory)
	app.Delete("/sessions/:id/history", s.handleClearHistory)

	// MCP tools over the same sessions
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Handler exposes the server routes as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}
