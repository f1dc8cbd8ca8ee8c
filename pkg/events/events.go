// Package events implements the transactional outbox: domain writes enqueue
// an event row in the same transaction, and a relay publishes pending rows to
// the broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Type identifies a domain event.
type Type string

const (
	TypeAuctionCreated Type = "auction.created"
	TypeBidPlaced      Type = "bid.placed"
)

func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one the system emits.
func (t Type) IsValid() bool {
	switch t {
	case TypeAuctionCreated, TypeBidPlaced:
		return true
	default:
		return false
	}
}

// AuctionCreated is the payload published when a seller lists an auction.
type AuctionCreated struct {
	AuctionID  int64     `json:"auctionId"`
	SellerID   int64     `json:"sellerId"`
	Title      string    `json:"title"`
	CategoryID int64     `json:"categoryId"`
	Reserve    int64     `json:"reserve"`
	EndDate    time.Time `json:"endDate"`
}

// BidPlaced is the payload published when a bid is accepted.
type BidPlaced struct {
	BidID     int64     `json:"bidId"`
	AuctionID int64     `json:"auctionId"`
	BidderID  int64     `json:"bidderId"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// OutboxStatus is the processing state of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxEvent is a serialized event waiting to be published.
type OutboxEvent struct {
	ID          uuid.UUID    `db:"id"`
	EventType   Type         `db:"event_type"`
	Payload     []byte       `db:"payload"`
	Status      OutboxStatus `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	ProcessedAt *time.Time   `db:"processed_at"`
}

// OutboxRepository is the persistence interface for outbox rows. SaveEvent is
// called inside the domain write's transaction; the other two are used by the
// relay, which fetches rows with FOR UPDATE SKIP LOCKED so multiple relays
// never double-publish.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *OutboxEvent) error
	GetPendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*OutboxEvent, error)
	UpdateEventStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status OutboxStatus) error
}

// Publisher sends event payloads to the message broker.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// NewOutboxEvent builds a pending outbox row for the given payload bytes.
func NewOutboxEvent(eventType Type, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}
