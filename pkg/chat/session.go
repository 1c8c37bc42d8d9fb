// Package chat applies the interaction policy of a chat session: each
// submitted message is recorded as a user turn, sent to the flow, and
// followed by an assistant turn only when the flow produced an answer.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/flowchat/pkg/conversation"
	"github.com/papercomputeco/flowchat/pkg/eventstream"
	"github.com/papercomputeco/flowchat/pkg/eventstream/nop"
	"github.com/papercomputeco/flowchat/pkg/logger"
	"github.com/papercomputeco/flowchat/pkg/prompts"
	"github.com/papercomputeco/flowchat/pkg/utils"
)

// Sender sends one message to the flow and returns the answer text.
// *flow.Client satisfies Sender.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Exchange is a completed user/assistant pair.
type Exchange struct {
	User      conversation.Turn `json:"user"`
	Assistant conversation.Turn `json:"assistant"`
	Duration  time.Duration     `json:"duration"`
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPublisher sets the publisher that receives an event per exchange.
func WithPublisher(p eventstream.Publisher) SessionOption {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithEndpointID records which flow the session talks to on emitted events.
func WithEndpointID(id string) SessionOption {
	return func(s *Session) {
		s.endpointID = id
	}
}

// Session owns one conversation log and the policy that feeds it.
type Session struct {
	id         string
	log        *conversation.Log
	sender     Sender
	publisher  eventstream.Publisher
	endpointID string
	logger     *slog.Logger

	// submitMu serializes exchanges so a user turn is always directly
	// followed by its own answer.
	submitMu sync.Mutex
}

// NewSession creates a Session with an empty log.
func NewSession(id string, sender Sender, opts ...SessionOption) *Session {
	s := &Session{
		id:        id,
		log:       conversation.NewLog(),
		sender:    sender,
		publisher: nop.NewPublisher(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit records text as a user turn, sends it to the flow and, on success,
// records the answer as an assistant turn. On failure the returned error is an
// *ExchangeError and the log holds only the new user turn. If the log is
// cleared while the flow is answering, the answer is returned but not recorded.
func (s *Session) Submit(ctx context.Context, text string) (*Exchange, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	userTurn := conversation.NewUserTurn(text)
	generation := s.log.Append(userTurn)
	s.logger.Debug("submitting message", "message", utils.Preview(text, 80))

	start := time.Now()
	answer, err := s.sender.Send(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		exErr := &ExchangeError{Kind: classify(err), Cause: err}
		s.logger.Warn("exchange failed",
			"kind", exErr.Kind,
			"duration", elapsed,
			"error", err,
		)
		s.publish(ctx, s.failedEvent(text, exErr, elapsed))
		return nil, exErr
	}

	assistantTurn := conversation.NewAssistantTurn(answer)
	if !s.log.AppendIf(generation, assistantTurn) {
		s.logger.Debug("conversation cleared during exchange, answer not recorded")
	}

	s.logger.Info("exchange completed",
		"duration", elapsed,
		"answer_length", len(answer),
	)
	s.publish(ctx, s.completedEvent(text, answer, elapsed))

	return &Exchange{
		User:      userTurn,
		Assistant: assistantTurn,
		Duration:  elapsed,
	}, nil
}

// SubmitPrompt submits the sample prompt at the 1-based index of catalog.
// An unknown index returns prompts.ErrPromptNotFound and leaves the log untouched.
func (s *Session) SubmitPrompt(ctx context.Context, catalog *prompts.Catalog, index int) (*Exchange, error) {
	text, err := catalog.Lookup(index)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, text)
}

// History returns the transcript in display order.
func (s *Session) History() []conversation.Turn {
	return s.log.All()
}

// Len returns the number of turns in the transcript.
func (s *Session) Len() int {
	return s.log.Len()
}

// Clear empties the transcript.
func (s *Session) Clear() {
	s.log.Clear()
	s.logger.Debug("conversation cleared")
}

func (s *Session) completedEvent(text, answer string, elapsed time.Duration) *eventstream.ExchangeEvent {
	event := eventstream.NewExchangeEvent(eventstream.EventTypeExchangeCompleted, s.id, time.Now().UTC())
	event.EndpointID = s.endpointID
	event.UserText = text
	event.AssistantText = answer
	event.DurationMs = elapsed.Milliseconds()
	return event
}

func (s *Session) failedEvent(text string, exErr *ExchangeError, elapsed time.Duration) *eventstream.ExchangeEvent {
	event := eventstream.NewExchangeEvent(eventstream.EventTypeExchangeFailed, s.id, time.Now().UTC())
	event.EndpointID = s.endpointID
	event.UserText = text
	event.ErrorKind = string(exErr.Kind)
	event.Error = exErr.Cause.Error()
	event.DurationMs = elapsed.Milliseconds()
	return event
}

// publish hands event to the publisher. Publishing never fails an exchange.
func (s *Session) publish(ctx context.Context, event *eventstream.ExchangeEvent) {
	if err := s.publisher.PublishExchange(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish exchange event",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
