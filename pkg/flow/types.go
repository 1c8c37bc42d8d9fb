package flow

const (
	// IOTypeChat is the only input/output type the chat front-end speaks.
	IOTypeChat = "chat"

	// NoResponseText is what presentations display when the flow answers
	// with empty text. The client itself never returns it.
	NoResponseText = "No response received"
)

// Tweaks maps a flow component identifier to its override object.
// Tweaks are forwarded to the flow verbatim and never interpreted here.
type Tweaks map[string]map[string]any

// Clone returns a shallow copy of t with each component map copied.
func (t Tweaks) Clone() Tweaks {
	if t == nil {
		return nil
	}

	out := make(Tweaks, len(t))
	for id, overrides := range t {
		cp := make(map[string]any, len(overrides))
		for k, v := range overrides {
			cp[k] = v
		}
		out[id] = cp
	}
	return out
}

// Request is the body of a run flow call.
type Request struct {
	InputValue string `json:"input_value"`
	OutputType string `json:"output_type"`
	InputType  string `json:"input_type"`

	// Tweaks is omitted from the body entirely when empty.
	Tweaks Tweaks `json:"tweaks,omitempty"`

	// SessionID selects the flow's own server side memory. Omitted when empty.
	SessionID string `json:"session_id,omitempty"`
}

// NewRequest builds a chat Request for message.
func NewRequest(message string, tweaks Tweaks) *Request {
	return &Request{
		InputValue: message,
		OutputType: IOTypeChat,
		InputType:  IOTypeChat,
		Tweaks:     tweaks,
	}
}
