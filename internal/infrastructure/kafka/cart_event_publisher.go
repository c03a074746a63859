package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
)

// CartEventPublisher serializes cart events onto a topic, keyed by cart token
// so one cart's events stay ordered within a partition.
type CartEventPublisher struct {
	port  domain.PublisherPort
	topic string
}

func NewCartEventPublisher(port domain.PublisherPort, topic string) *CartEventPublisher {
	return &CartEventPublisher{port: port, topic: topic}
}

func (p *CartEventPublisher) PublishCartEvent(ctx context.Context, event domain.CartEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cart event: %w", err)
	}

	if err := p.port.Publish(p.topic, domain.Message{Key: []byte(event.CartToken), Value: v}); err != nil {
		return fmt.Errorf("failed to publish cart event %s: %w", event.ID, err)
	}
	return nil
}
