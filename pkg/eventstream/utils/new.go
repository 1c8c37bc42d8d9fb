// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/flowchat/pkg/eventstream"
	"github.com/papercomputeco/flowchat/pkg/eventstream/kafka"
	"github.com/papercomputeco/flowchat/pkg/eventstream/nop"
	"github.com/papercomputeco/flowchat/pkg/eventstream/worker"
)

const (
	ProviderNone  = "none"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger

	// QueueSize bounds the events buffered ahead of a broker publisher.
	QueueSize uint
}

// NewPublisher builds the configured publisher. Broker publishers are fronted
// by a worker pool so delivery happens off the exchange path.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", ProviderNone:
		return nop.NewPublisher(), nil
	case ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		pool, err := worker.NewPool(&worker.Config{
			Publisher: p,
			QueueSize: o.QueueSize,
			Logger:    o.Logger,
		})
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", o.ProviderType)
	}
}
