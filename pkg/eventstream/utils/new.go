// Package eventstreamutils builds event publishers from configuration.
package eventstreamutils

import (
	"fmt"

	"github.com/elvenok1/servidor-api-rag/pkg/eventstream"
	"github.com/elvenok1/servidor-api-rag/pkg/eventstream/kafka"
	"github.com/elvenok1/servidor-api-rag/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	// ProviderType is "kafka", or empty to disable events.
	ProviderType string
	Brokers      string
	Topic        string
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", o.ProviderType)
	}
}
