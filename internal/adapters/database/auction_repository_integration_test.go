//go:build integration

package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infradb "github.com/jdmccork/auctionhouse/internal/adapters/database"
	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/internal/testhelpers"
)

func seedUser(t *testing.T, pool *pgxpool.Pool, firstName string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (first_name, last_name, email, password_hash)
		VALUES ($1, 'Test', $2, 'x')
		RETURNING id
	`, firstName, fmt.Sprintf("%s.%d@example.com", firstName, time.Now().UnixNano())).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedAuction(t *testing.T, pool *pgxpool.Pool, title, description string, categoryID, sellerID int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO auction (title, description, category_id, seller_id, reserve, end_date)
		VALUES ($1, $2, $3, $4, 100, $5)
		RETURNING id
	`, title, description, categoryID, sellerID, time.Now().Add(24*time.Hour)).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedBid(t *testing.T, pool *pgxpool.Pool, auctionID, bidderID, amount int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO auction_bid (auction_id, user_id, amount, ts)
		VALUES ($1, $2, $3, now())
	`, auctionID, bidderID, amount)
	require.NoError(t, err)
}

func int64Ptr(n int64) *int64 {
	return &n
}

func TestPostgresAuctionRepository_ListAuctions(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	repo := infradb.NewPostgresAuctionRepository(pool)
	ctx := context.Background()

	seller1 := seedUser(t, pool, "Sally")
	seller2 := seedUser(t, pool, "Steve")
	bidder := seedUser(t, pool, "Bob")

	guitar := seedAuction(t, pool, "Vintage Guitar", "A 1960s classic", 1, seller1)
	lamp := seedAuction(t, pool, "Desk Lamp", "Guitar-shaped lamp", 2, seller2)
	watch := seedAuction(t, pool, "Wrist Watch", "Keeps time", 2, seller1)

	seedBid(t, pool, guitar, bidder, 500)
	seedBid(t, pool, guitar, bidder, 700)

	ids := func(items []auctions.Auction) []int64 {
		out := make([]int64, 0, len(items))
		for _, a := range items {
			out = append(out, a.ID)
		}
		return out
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{guitar, lamp, watch}, ids(result))
	})

	t.Run("search term matches title or description", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{SearchTerm: "Guitar"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{guitar, lamp}, ids(result))
	})

	t.Run("category filter", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{CategoryID: int64Ptr(2)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{lamp, watch}, ids(result))
	})

	t.Run("seller filter", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{SellerID: int64Ptr(seller1)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{guitar, watch}, ids(result))
	})

	t.Run("bidder filter returns auctions the user bid on", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{BidderID: int64Ptr(bidder)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{guitar}, ids(result))
	})

	t.Run("aggregates are computed from the ledger", func(t *testing.T) {
		result, err := repo.ListAuctions(ctx, auctions.Filter{SearchTerm: "Vintage"})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, int64(2), result[0].NumBids)
		require.NotNil(t, result[0].HighestBid)
		assert.Equal(t, int64(700), *result[0].HighestBid)
		assert.Equal(t, "Sally", result[0].SellerFirstName)
	})
}

func TestAuctionSchema_RejectsNegativeReserve(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	sellerID := seedUser(t, pool, "Sally")

	_, err := pool.Exec(context.Background(), `
		INSERT INTO auction (title, description, category_id, seller_id, reserve, end_date)
		VALUES ('Broken', 'Reserve below zero', 1, $1, -5, now() + interval '1 day')
	`, sellerID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check constraint")
}

func TestPostgresAuctionRepository_GetAuctionByID(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	repo := infradb.NewPostgresAuctionRepository(pool)
	ctx := context.Background()

	sellerID := seedUser(t, pool, "Sally")
	auctionID := seedAuction(t, pool, "Vintage Guitar", "A 1960s classic", 1, sellerID)

	t.Run("existing auction with no bids", func(t *testing.T) {
		auction, err := repo.GetAuctionByID(ctx, auctionID)
		require.NoError(t, err)
		require.NotNil(t, auction)
		assert.Equal(t, "Vintage Guitar", auction.Title)
		assert.Equal(t, int64(0), auction.NumBids)
		assert.Nil(t, auction.HighestBid)
	})

	t.Run("missing auction returns nil", func(t *testing.T) {
		auction, err := repo.GetAuctionByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, auction)
	})
}
