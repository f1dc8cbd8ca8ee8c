package auctions

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jdmccork/auctionhouse/pkg/events"
)

// Repository is the persistence interface for auctions. List and Get return
// rows with bid aggregates computed from the ledger. Get returns nil when the
// auction does not exist.
type Repository interface {
	ListAuctions(ctx context.Context, filter Filter) ([]Auction, error)

	GetAuctionByID(ctx context.Context, id int64) (*Auction, error)

	// CreateAuction inserts within tx and returns the new id.
	CreateAuction(ctx context.Context, tx pgx.Tx, a *Auction) (int64, error)

	// UpdateAuction writes title/description/reserve/endDate/category.
	UpdateAuction(ctx context.Context, a *Auction) error

	DeleteAuction(ctx context.Context, id int64) error

	SetImageFilename(ctx context.Context, id int64, filename string) error
}

// CategoryRepository reads the fixed category set. GetCategoryByID returns
// nil when the category does not exist.
type CategoryRepository interface {
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// OutboxRepository stores domain events alongside the writes that caused
// them.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
