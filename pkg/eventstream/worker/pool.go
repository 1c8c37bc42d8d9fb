// Package worker provides an asynchronous worker pool that publishes exchange
// events through another eventstream.Publisher.
//
// The pool decouples event delivery from the chat hot path so a slow broker
// never delays an answer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/flowchat/pkg/eventstream"
	"github.com/papercomputeco/flowchat/pkg/logger"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// ErrQueueFull is returned by PublishExchange when the event was dropped.
var ErrQueueFull = errors.New("event queue full, event dropped")

// ErrClosed is returned by PublishExchange after Close.
var ErrClosed = errors.New("event pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher delivers the queued events.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each delivery (defaults to 10s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes exchange events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *eventstream.ExchangeEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.ExchangeEvent, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// PublishExchange queues event for delivery. It returns ErrQueueFull when the
// queue has no capacity, in which case the event is dropped.
func (p *Pool) PublishExchange(_ context.Context, event *eventstream.ExchangeEvent) error {
	if event == nil {
		return eventstream.ErrNilExchangeEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return nil
	default:
		p.logger.Error("event not queued, queue full, event dropped",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to drain and closes
// the underlying publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

func (p *Pool) publish(event *eventstream.ExchangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishExchange(ctx, event); err != nil {
		p.logger.Error("event publish failed",
			"event_id", event.EventID,
			"session_id", event.SessionID,
			"error", err,
		)
		return
	}

	p.logger.Debug("event published",
		"event_id", event.EventID,
		"session_id", event.SessionID,
	)
}
