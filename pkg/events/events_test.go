package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"auction.created", TypeAuctionCreated, true},
		{"bid.placed", TypeBidPlaced, true},
		{"unknown", Type("auction.exploded"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewOutboxEvent(t *testing.T) {
	payload, err := json.Marshal(BidPlaced{BidID: 1, AuctionID: 2, BidderID: 3, Amount: 400})
	require.NoError(t, err)

	event := NewOutboxEvent(TypeBidPlaced, payload)

	assert.Equal(t, TypeBidPlaced, event.EventType)
	assert.Equal(t, OutboxStatusPending, event.Status)
	assert.NotZero(t, event.ID)
	assert.JSONEq(t, string(payload), string(event.Payload))
}

// fakeTx satisfies pgx.Tx for relay tests; only Commit and Rollback are used.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeTxManager struct {
	tx *fakeTx
}

func (f *fakeTxManager) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeOutboxRepo struct {
	pending   []*OutboxEvent
	published map[string]OutboxStatus
}

func (f *fakeOutboxRepo) SaveEvent(_ context.Context, _ pgx.Tx, event *OutboxEvent) error {
	f.pending = append(f.pending, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(_ context.Context, _ pgx.Tx, limit int) ([]*OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) UpdateEventStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status OutboxStatus) error {
	if f.published == nil {
		f.published = map[string]OutboxStatus{}
	}
	f.published[id.String()] = status
	return nil
}

type recordingPublisher struct {
	published []string
	fail      bool
}

func (p *recordingPublisher) Publish(_ context.Context, _, routingKey string, _ []byte) error {
	if p.fail {
		return assert.AnError
	}
	p.published = append(p.published, routingKey)
	return nil
}

func newTestRelay(repo OutboxRepository, pub Publisher, tm *fakeTxManager) *OutboxRelay {
	return NewOutboxRelay(repo, pub, tm, 10, time.Millisecond, "auction.events", slog.Default())
}

func TestOutboxRelay_PublishesPendingBatch(t *testing.T) {
	repo := &fakeOutboxRepo{}
	_ = repo.SaveEvent(context.Background(), nil, NewOutboxEvent(TypeBidPlaced, []byte(`{}`)))
	_ = repo.SaveEvent(context.Background(), nil, NewOutboxEvent(TypeAuctionCreated, []byte(`{}`)))

	pub := &recordingPublisher{}
	tm := &fakeTxManager{}

	err := newTestRelay(repo, pub, tm).processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bid.placed", "auction.created"}, pub.published)
	assert.True(t, tm.tx.committed)
}

func TestOutboxRelay_RollsBackOnPublishFailure(t *testing.T) {
	repo := &fakeOutboxRepo{}
	_ = repo.SaveEvent(context.Background(), nil, NewOutboxEvent(TypeBidPlaced, []byte(`{}`)))

	pub := &recordingPublisher{fail: true}
	tm := &fakeTxManager{}

	err := newTestRelay(repo, pub, tm).processBatch(context.Background())
	require.Error(t, err)
	assert.True(t, tm.tx.rolledBack)
	assert.Empty(t, pub.published)
}
