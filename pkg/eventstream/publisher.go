// Package eventstream publishes chat exchange events to an event backend.
package eventstream

import "context"

// Publisher publishes exchange events to an event stream backend.
type Publisher interface {
	PublishExchange(ctx context.Context, event *ExchangeEvent) error
	Close() error
}
