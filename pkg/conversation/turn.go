// Package conversation holds the visible transcript of a chat session.
package conversation

import "time"

// Role identifies who authored a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one role tagged message in the transcript. Turns are values and are
// never mutated once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserTurn creates a user Turn stamped with the current time.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// NewAssistantTurn creates an assistant Turn stamped with the current time.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, CreatedAt: time.Now()}
}
