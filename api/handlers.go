package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/conversation"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Kind is set when a flow exchange failed.
	Kind chat.ErrorKind `json:"kind,omitempty"`
}

// SessionResponse identifies a chat session.
type SessionResponse struct {
	ID string `json:"id"`
}

// MessageRequest is the body of a submitted message.
type MessageRequest struct {
	Message string `json:"message"`
}

// ExchangeResponse is a completed exchange.
type ExchangeResponse struct {
	User       conversation.Turn `json:"user"`
	Assistant  conversation.Turn `json:"assistant"`
	DurationMs int64             `json:"duration_ms"`
}

// HistoryResponse contains the transcript of a session.
type HistoryResponse struct {
	ID string `json:"id"`
	// Turns in chronological order (oldest first)
	Turns []conversation.Turn `json:"turns"`
	Count int                 `json:"count"`
}

// PromptsResponse lists the sample prompts.
type PromptsResponse struct {
	Categories []prompts.Category `json:"categories"`
	Prompts    []prompts.Entry    `json:"prompts"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListPrompts returns the sample prompt catalog.
func (s *Server) handleListPrompts(c *fiber.Ctx) error {
	return c.JSON(PromptsResponse{
		Categories: s.catalog.Categories(),
		Prompts:    s.catalog.Entries(),
	})
}

// handleCreateSession starts a new session with an empty transcript.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess := s.sessions.Create()
	s.logger.Debug("session created", "session_id", sess.ID())
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{ID: sess.ID()})
}

// handleDeleteSession drops a session and its transcript.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.sessions.Delete(id) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSubmitMessage sends a message through the session's flow.
func (s *Server) handleSubmitMessage(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	return s.respondExchange(c, func(ctx context.Context) (*chat.Exchange, error) {
		return sess.Submit(ctx, req.Message)
	})
}

// handleSubmitPrompt sends the sample prompt at the 1-based index.
func (s *Server) handleSubmitPrompt(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "prompt index must be a number"})
	}

	return s.respondExchange(c, func(ctx context.Context) (*chat.Exchange, error) {
		return sess.SubmitPrompt(ctx, s.catalog, index)
	})
}

func (s *Server) respondExchange(c *fiber.Ctx, submit func(context.Context) (*chat.Exchange, error)) error {
	ex, err := submit(c.UserContext())
	if err != nil {
		if errors.Is(err, prompts.ErrPromptNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}
		if exErr, ok := chat.AsExchangeError(err); ok {
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Error: exErr.Describe(),
				Kind:  exErr.Kind,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to submit message"})
	}

	return c.JSON(ExchangeResponse{
		User:       ex.User,
		Assistant:  ex.Assistant,
		DurationMs: ex.Duration.Milliseconds(),
	})
}

// handleGetHistory returns the transcript of a session.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	turns := sess.History()
	if turns == nil {
		turns = []conversation.Turn{}
	}

	return c.JSON(HistoryResponse{
		ID:    id,
		Turns: turns,
		Count: len(turns),
	})
}

// handleClearHistory empties the transcript of a session.
func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	sess.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}
