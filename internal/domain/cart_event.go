package domain

import (
	"context"
	"time"
)

type CartEventType string

const (
	CartItemAdded   CartEventType = "cart.item_added"
	CartItemUpdated CartEventType = "cart.item_updated"
	CartItemRemoved CartEventType = "cart.item_removed"
	CartUpdated     CartEventType = "cart.updated"
)

type CartEvent struct {
	ID         string        `json:"id"`
	Type       CartEventType `json:"type"`
	CartToken  string        `json:"cart_token"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type CartEventPublisher interface {
	PublishCartEvent(ctx context.Context, event CartEvent) error
}

// RelayRecord is one audited upstream call.
type RelayRecord struct {
	ID         string
	RequestID  string
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	CartToken  string
	Error      string
	CreatedAt  time.Time
}

type RelayAuditRepository interface {
	Save(ctx context.Context, record *RelayRecord) error
}
