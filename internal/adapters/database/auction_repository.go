package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// PostgresAuctionRepository implements auctions.Repository and
// bids.AuctionRepository using pgx. Bid aggregates are computed from the
// ledger on every read; the auction row carries no cached counters.
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

// POSITION() is byte-wise and case-sensitive, matching the substring-search
// contract.
const listAuctionsQuery = `
	SELECT a.id, a.title, a.description, a.category_id, a.seller_id,
	       u.first_name, u.last_name, a.reserve,
	       COUNT(b.id), MAX(b.amount),
	       a.end_date, a.image_filename
	FROM auction a
	JOIN users u ON u.id = a.seller_id
	LEFT JOIN auction_bid b ON b.auction_id = a.id
	WHERE ($1 = '' OR POSITION($1 IN a.title) > 0 OR POSITION($1 IN a.description) > 0)
	  AND ($2::bigint IS NULL OR a.category_id = $2)
	  AND ($3::bigint IS NULL OR a.seller_id = $3)
	GROUP BY a.id, u.first_name, u.last_name
	HAVING $4::bigint IS NULL OR COUNT(b.id) FILTER (WHERE b.user_id = $4) > 0
	ORDER BY a.id
`

// ListAuctions runs one filter pass. Each auction appears at most once per
// call; the multi-category union happens in the service.
func (r *PostgresAuctionRepository) ListAuctions(ctx context.Context, filter auctions.Filter) ([]auctions.Auction, error) {
	rows, err := r.pool.Query(ctx, listAuctionsQuery,
		filter.SearchTerm, filter.CategoryID, filter.SellerID, filter.BidderID)
	if err != nil {
		return nil, apperrors.Storage("list auctions", err)
	}
	defer rows.Close()

	var result []auctions.Auction
	for rows.Next() {
		var a auctions.Auction
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.CategoryID, &a.SellerID,
			&a.SellerFirstName, &a.SellerLastName, &a.Reserve,
			&a.NumBids, &a.HighestBid,
			&a.EndDate, &a.ImageFilename,
		); err != nil {
			return nil, apperrors.Storage("scan auction", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate auctions", err)
	}
	return result, nil
}

// GetAuctionByID returns the full record with live aggregates, or nil when
// the auction does not exist.
func (r *PostgresAuctionRepository) GetAuctionByID(ctx context.Context, id int64) (*auctions.Auction, error) {
	query := `
		SELECT a.id, a.title, a.description, a.category_id, a.seller_id,
		       u.first_name, u.last_name, a.reserve,
		       COUNT(b.id), MAX(b.amount),
		       a.end_date, a.image_filename
		FROM auction a
		JOIN users u ON u.id = a.seller_id
		LEFT JOIN auction_bid b ON b.auction_id = a.id
		WHERE a.id = $1
		GROUP BY a.id, u.first_name, u.last_name
	`
	var a auctions.Auction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.CategoryID, &a.SellerID,
		&a.SellerFirstName, &a.SellerLastName, &a.Reserve,
		&a.NumBids, &a.HighestBid,
		&a.EndDate, &a.ImageFilename,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Storage("get auction", err)
	}
	return &a, nil
}

// CreateAuction inserts within tx and returns the new id.
func (r *PostgresAuctionRepository) CreateAuction(ctx context.Context, tx pgx.Tx, a *auctions.Auction) (int64, error) {
	query := `
		INSERT INTO auction (title, description, category_id, seller_id, reserve, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := tx.QueryRow(ctx, query,
		a.Title, a.Description, a.CategoryID, a.SellerID, a.Reserve, a.EndDate,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.Storage("insert auction", err)
	}
	return id, nil
}

func (r *PostgresAuctionRepository) UpdateAuction(ctx context.Context, a *auctions.Auction) error {
	query := `
		UPDATE auction
		SET title = $1, description = $2, category_id = $3, reserve = $4, end_date = $5
		WHERE id = $6
	`
	tag, err := r.pool.Exec(ctx, query,
		a.Title, a.Description, a.CategoryID, a.Reserve, a.EndDate, a.ID)
	if err != nil {
		return apperrors.Storage("update auction", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("auction %d", a.ID)
	}
	return nil
}

func (r *PostgresAuctionRepository) DeleteAuction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auction WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storage("delete auction", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("auction %d", id)
	}
	return nil
}

func (r *PostgresAuctionRepository) SetImageFilename(ctx context.Context, id int64, filename string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE auction SET image_filename = $1 WHERE id = $2`, filename, id)
	if err != nil {
		return apperrors.Storage("set auction image", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("auction %d", id)
	}
	return nil
}

// GetAuctionForUpdate locks the auction row for the rest of tx, serializing
// concurrent bid placements on this auction. Returns nil when the auction
// does not exist.
func (r *PostgresAuctionRepository) GetAuctionForUpdate(ctx context.Context, tx pgx.Tx, auctionID int64) (*bids.AuctionRef, error) {
	query := `SELECT id, seller_id, end_date FROM auction WHERE id = $1 FOR UPDATE`

	var ref bids.AuctionRef
	err := tx.QueryRow(ctx, query, auctionID).Scan(&ref.ID, &ref.SellerID, &ref.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock auction row: %w", err)
	}
	return &ref, nil
}
