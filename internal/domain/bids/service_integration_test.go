//go:build integration

package bids_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infradb "github.com/jdmccork/auctionhouse/internal/adapters/database"
	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/internal/testhelpers"
	"github.com/jdmccork/auctionhouse/pkg/database"
)

type testServices struct {
	Service     *bids.Service
	TxManager   database.TransactionManager
	BidRepo     bids.Repository
	AuctionRepo *infradb.PostgresAuctionRepository
	OutboxRepo  *infradb.PostgresOutboxRepository
}

func setupBidService(pool *pgxpool.Pool) *testServices {
	txManager := database.NewPostgresTransactionManager(pool, 5*time.Second)
	bidRepo := infradb.NewPostgresBidRepository(pool)
	auctionRepo := infradb.NewPostgresAuctionRepository(pool)
	outboxRepo := infradb.NewPostgresOutboxRepository(pool)
	service := bids.NewService(txManager, bidRepo, auctionRepo, outboxRepo, false)

	return &testServices{
		Service:     service,
		TxManager:   txManager,
		BidRepo:     bidRepo,
		AuctionRepo: auctionRepo,
		OutboxRepo:  outboxRepo,
	}
}

func seedUser(t *testing.T, pool *pgxpool.Pool, firstName, lastName string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (first_name, last_name, email, password_hash)
		VALUES ($1, $2, $3, 'x')
		RETURNING id
	`, firstName, lastName, fmt.Sprintf("%s.%s.%d@example.com", firstName, lastName, time.Now().UnixNano())).Scan(&id)
	require.NoError(t, err, "Failed to seed user")
	return id
}

func seedAuction(t *testing.T, pool *pgxpool.Pool, sellerID int64, endDate time.Time) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO auction (title, description, category_id, seller_id, reserve, end_date)
		VALUES ('Vintage Guitar', 'A 1960s guitar', 1, $1, 500, $2)
		RETURNING id
	`, sellerID, endDate).Scan(&id)
	require.NoError(t, err, "Failed to seed auction")
	return id
}

func TestService_PlaceBid_Success(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	svc := setupBidService(pool)

	sellerID := seedUser(t, pool, "Sally", "Seller")
	bidderID := seedUser(t, pool, "Bob", "Bidder")
	auctionID := seedAuction(t, pool, sellerID, time.Now().Add(24*time.Hour))

	ctx := context.Background()
	bid, err := svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    1500,
		Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.NotNil(t, bid)
	assert.NotZero(t, bid.ID)

	ledger, err := svc.Service.ListBids(ctx, auctionID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, int64(1500), ledger[0].Amount)
	assert.Equal(t, "Bob", ledger[0].FirstName)

	// The auction's aggregates reflect the ledger.
	auction, err := svc.AuctionRepo.GetAuctionByID(ctx, auctionID)
	require.NoError(t, err)
	require.NotNil(t, auction)
	assert.Equal(t, int64(1), auction.NumBids)
	require.NotNil(t, auction.HighestBid)
	assert.Equal(t, int64(1500), *auction.HighestBid)

	// One pending outbox event for the accepted bid.
	tx, err := svc.TxManager.BeginTx(ctx)
	require.NoError(t, err)
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	events, err := svc.OutboxRepo.GetPendingEvents(ctx, tx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Payload)
}

func TestService_PlaceBid_RejectLowerBid(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	svc := setupBidService(pool)

	sellerID := seedUser(t, pool, "Sally", "Seller")
	bidder1 := seedUser(t, pool, "Bob", "Bidder")
	bidder2 := seedUser(t, pool, "Carol", "Bidder")
	auctionID := seedAuction(t, pool, sellerID, time.Now().Add(24*time.Hour))

	ctx := context.Background()

	_, err := svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auctionID, BidderID: bidder1, Amount: 1000, Timestamp: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auctionID, BidderID: bidder2, Amount: 900, Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, bids.ErrBidTooLow)

	_, err = svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auctionID, BidderID: bidder2, Amount: 1000, Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, bids.ErrBidTooLow)

	// The rejected attempts left nothing behind.
	ledger, err := svc.Service.ListBids(ctx, auctionID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestService_PlaceBid_SellerAndClosedRules(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	svc := setupBidService(pool)

	sellerID := seedUser(t, pool, "Sally", "Seller")
	bidderID := seedUser(t, pool, "Bob", "Bidder")
	openAuction := seedAuction(t, pool, sellerID, time.Now().Add(24*time.Hour))
	closedAuction := seedAuction(t, pool, sellerID, time.Now().Add(-time.Hour))

	ctx := context.Background()

	_, err := svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: openAuction, BidderID: sellerID, Amount: 1000, Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, bids.ErrSellerCannotBid)

	_, err = svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: closedAuction, BidderID: bidderID, Amount: 1000, Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, bids.ErrAuctionClosed)

	_, err = svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: 99999, BidderID: bidderID, Amount: 1000, Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, bids.ErrAuctionNotFound)
}

// TestService_PlaceBid_ConcurrentBids verifies the central concurrency
// property: under concurrent placement the accepted bid stream per auction is
// strictly increasing, because each transaction holds the auction row lock
// across its read-compare-insert sequence.
func TestService_PlaceBid_ConcurrentBids(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	pool := testDB.Pool
	svc := setupBidService(pool)

	sellerID := seedUser(t, pool, "Sally", "Seller")
	auctionID := seedAuction(t, pool, sellerID, time.Now().Add(24*time.Hour))

	numBidders := 10
	bidderIDs := make([]int64, numBidders)
	for i := range bidderIDs {
		bidderIDs[i] = seedUser(t, pool, fmt.Sprintf("Bidder%d", i), "Test")
	}

	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, numBidders)

	for i := 0; i < numBidders; i++ {
		wg.Add(1)
		go func(bidderID, amount int64) {
			defer wg.Done()
			_, err := svc.Service.PlaceBid(ctx, bids.PlaceBidCommand{
				AuctionID: auctionID,
				BidderID:  bidderID,
				Amount:    amount,
				Timestamp: time.Now(),
			})
			results <- err
		}(bidderIDs[i], int64(100+i*100))
	}

	wg.Wait()
	close(results)

	var successCount, failCount int
	for err := range results {
		if err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, bids.ErrBidTooLow)
			failCount++
		}
	}
	t.Logf("Successful bids: %d, Failed bids: %d", successCount, failCount)
	assert.Equal(t, numBidders, successCount+failCount)
	assert.GreaterOrEqual(t, successCount, 1)

	// The ledger is strictly increasing when replayed in placement order,
	// which is amount ascending (ListBids returns amount descending).
	ledger, err := svc.Service.ListBids(ctx, auctionID)
	require.NoError(t, err)
	assert.Len(t, ledger, successCount)
	for i := 1; i < len(ledger); i++ {
		assert.Greater(t, ledger[i-1].Amount, ledger[i].Amount,
			"accepted amounts must be unique and ordered")
	}

	// The highest submitted amount always wins: whichever order the lock
	// grants, 1000 beats every earlier acceptance.
	auction, err := svc.AuctionRepo.GetAuctionByID(ctx, auctionID)
	require.NoError(t, err)
	require.NotNil(t, auction.HighestBid)
	assert.Equal(t, int64(100+(numBidders-1)*100), *auction.HighestBid)
	assert.Equal(t, int64(successCount), auction.NumBids)

	// One outbox event per accepted bid.
	tx, err := svc.TxManager.BeginTx(ctx)
	require.NoError(t, err)
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	events, err := svc.OutboxRepo.GetPendingEvents(ctx, tx, 100)
	require.NoError(t, err)
	assert.Len(t, events, successCount)
}
