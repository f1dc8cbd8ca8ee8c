package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// PostgresCategoryRepository implements auctions.CategoryRepository. The
// category table is read-only from the application's perspective.
type PostgresCategoryRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCategoryRepository(pool *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pool: pool}
}

func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*auctions.Category, error) {
	var c auctions.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM category WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Storage("get category", err)
	}
	return &c, nil
}

func (r *PostgresCategoryRepository) ListCategories(ctx context.Context) ([]auctions.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM category ORDER BY id`)
	if err != nil {
		return nil, apperrors.Storage("list categories", err)
	}
	defer rows.Close()

	var categories []auctions.Category
	for rows.Next() {
		var c auctions.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, apperrors.Storage("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("iterate categories", err)
	}
	return categories, nil
}
