package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/conversation"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

var (
	askToolName    = "ask"
	askDescription = "Send a message, or a sample prompt by its 1-based index, to the flow and return its answer. Omit session_id to start a new conversation; the returned session_id continues it."

	historyToolName    = "history"
	historyDescription = "Return the transcript of a conversation in order, oldest turn first."

	clearToolName    = "clear"
	clearDescription = "Empty the transcript of a conversation. The conversation stays open."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	SessionID   string `json:"session_id,omitempty" jsonschema:"conversation to continue; omit to start a new one"`
	Message     string `json:"message,omitempty" jsonschema:"the message to send to the flow"`
	PromptIndex int    `json:"prompt_index,omitempty" jsonschema:"1-based index of a sample prompt to send instead of message"`
}

// AskOutput represents the answer of the ask tool.
type AskOutput struct {
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	Answer     string `json:"answer"`
	DurationMs int64  `json:"duration_ms"`
}

// SessionInput names the conversation for the history and clear tools.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the conversation returned by ask"`
}

// Turn represents a single turn in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryOutput represents the output of the history tool.
type HistoryOutput struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
	Count     int    `json:"count"`
}

// ClearOutput represents the output of the clear tool.
type ClearOutput struct {
	SessionID string `json:"session_id"`
	Removed   int    `json:"removed"`
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Message) == "" && input.PromptIndex == 0 {
		return toolError("message or prompt_index is required"), AskOutput{}, nil
	}

	session, result := s.sessionFor(input.SessionID, true)
	if result != nil {
		return result, AskOutput{}, nil
	}

	logger.Debug("MCP ask request",
		"session_id", session.ID(),
		"prompt_index", input.PromptIndex,
	)

	var (
		exchange *chat.Exchange
		err      error
	)
	if input.PromptIndex != 0 {
		exchange, err = session.SubmitPrompt(ctx, s.config.Catalog, input.PromptIndex)
	} else {
		exchange, err = session.Submit(ctx, input.Message)
	}
	if err != nil {
		return exchangeError(session.ID(), err), AskOutput{}, nil
	}

	output := AskOutput{
		SessionID:  session.ID(),
		Message:    exchange.User.Content,
		Answer:     exchange.Assistant.Content,
		DurationMs: exchange.Duration.Milliseconds(),
	}
	return jsonResult(output)
}

func (s *Server) handleHistory(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, HistoryOutput, error) {
	session, result := s.sessionFor(input.SessionID, false)
	if result != nil {
		return result, HistoryOutput{}, nil
	}

	return jsonResult(buildHistory(session.ID(), session.History()))
}

func (s *Server) handleClear(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, ClearOutput, error) {
	session, result := s.sessionFor(input.SessionID, false)
	if result != nil {
		return result, ClearOutput{}, nil
	}

	removed := session.Len()
	session.Clear()

	return jsonResult(ClearOutput{SessionID: session.ID(), Removed: removed})
}

// sessionFor looks up id. With create set, an empty id starts a new session.
// A non-nil result is the tool error to return.
func (s *Server) sessionFor(id string, create bool) (*chat.Session, *mcp.CallToolResult) {
	if id == "" {
		if !create {
			return nil, toolError("session_id is required")
		}
		return s.config.Sessions.Create(), nil
	}

	session, ok := s.config.Sessions.Get(id)
	if !ok {
		return nil, toolError("session %q not found", id)
	}
	return session, nil
}

// buildHistory converts a transcript into the history tool output.
func buildHistory(id string, turns []conversation.Turn) HistoryOutput {
	out := HistoryOutput{
		SessionID: id,
		Turns:     make([]Turn, len(turns)),
		Count:     len(turns),
	}
	for i, turn := range turns {
		out.Turns[i] = Turn{Role: string(turn.Role), Content: turn.Content}
	}
	return out
}

func exchangeError(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, prompts.ErrPromptNotFound) {
		return toolError("%v", err)
	}
	if exErr, ok := chat.AsExchangeError(err); ok {
		return toolError("%s (kind: %s, session_id: %s)", exErr.Describe(), exErr.Kind, id)
	}
	return toolError("exchange failed: %v", err)
}

// jsonResult returns output as structured content with its JSON text alongside
// for clients that only read text content.
func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return toolError("failed to serialize result: %v", err), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
