package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// EstimateSentEvent is published whenever an estimate is marked as sent.
type EstimateSentEvent struct {
	EstimateID     string               `json:"estimateId"`
	EstimateNumber string               `json:"estimateNumber"`
	TraderID       string               `json:"traderId"`
	Channels       []domain.SendChannel `json:"channels"`
	Total          decimal.Decimal      `json:"total"`
	ValidTill      time.Time            `json:"validTill"`
	Party          domain.PartySummary  `json:"customer"`
	SentAt         time.Time            `json:"sentAt"`
}

// Publisher delivers a serialized event to the message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// Notifier accepts sent-estimate events for asynchronous delivery. Enqueue
// must not block the request path.
type Notifier interface {
	Enqueue(event EstimateSentEvent)
}
