package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after the flow answered and the
	// assistant turn was appended.
	EventTypeExchangeCompleted = "flowchat.exchange.completed"

	// EventTypeExchangeFailed is emitted after an exchange failed and only
	// the user turn was appended.
	EventTypeExchangeFailed = "flowchat.exchange.failed"
)

// ExchangeEvent is a transport-neutral event payload for one chat exchange.
type ExchangeEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID  string `json:"session_id"`
	EndpointID string `json:"endpoint_id,omitempty"`

	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text,omitempty"`

	// ErrorKind and Error are set on failed exchanges only.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// NewExchangeEvent creates an event of eventType with a fresh event ID.
func NewExchangeEvent(eventType, sessionID string, emittedAt time.Time) *ExchangeEvent {
	return &ExchangeEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     emittedAt,
		SessionID:     sessionID,
	}
}
