package auctions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdmccork/auctionhouse/internal/domain/images"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/database"
	"github.com/jdmccork/auctionhouse/pkg/events"
)

var (
	ErrAuctionNotFound  = fmt.Errorf("auction %w", apperrors.ErrNotFound)
	ErrCategoryNotFound = apperrors.Validationf("category does not exist")
	ErrNotSeller        = apperrors.Forbiddenf("only the seller can perform this action")
	ErrAuctionHasBids   = apperrors.Forbiddenf("auction already has bids")
	ErrAuctionClosed    = apperrors.Forbiddenf("auction has closed")
)

// DefaultReserve applies when a seller omits the reserve price.
const DefaultReserve = 1

// ListQuery is the full listing call contract: filters, sort strategy and
// pagination window.
type ListQuery struct {
	SearchTerm  string
	CategoryIDs []int64
	SellerID    *int64
	BidderID    *int64
	SortBy      SortKey
	StartIndex  int
	Count       *int
}

// CreateCommand creates a new auction in the Open, bid-free state.
type CreateCommand struct {
	SellerID    int64
	Title       string
	Description string
	EndDate     time.Time
	CategoryID  int64
	// Reserve defaults to DefaultReserve when nil.
	Reserve *int64
}

// EditCommand is a partial update; nil fields keep their current value.
type EditCommand struct {
	AuctionID   int64
	CallerID    int64
	Title       *string
	Description *string
	Reserve     *int64
	EndDate     *time.Time
	CategoryID  *int64
}

// Service implements auction CRUD behind the lifecycle guard: every mutation
// is checked against ownership and the Open(no bids) state before any write.
type Service struct {
	txManager    database.TransactionManager
	repo         Repository
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	imageManager *images.Manager
}

func NewService(
	txManager database.TransactionManager,
	repo Repository,
	categoryRepo CategoryRepository,
	outboxRepo OutboxRepository,
	imageManager *images.Manager,
) *Service {
	return &Service{
		txManager:    txManager,
		repo:         repo,
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		imageManager: imageManager,
	}
}

// List runs the filter passes, then sorts and paginates. A request naming
// several categories runs one repository pass per category id and
// concatenates the results without deduplication, so an auction matching the
// other filters appears once per matching requested category id. This mirrors
// the documented union semantic; within one pass an auction cannot repeat.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = DefaultSortKey
	}
	// Fail fast on sort/pagination input before touching storage.
	if !sortBy.IsValid() {
		return nil, apperrors.Validationf("unknown sortBy %q", string(q.SortBy))
	}
	if q.StartIndex < 0 {
		return nil, apperrors.Validationf("startIndex must be non-negative, got %d", q.StartIndex)
	}
	if q.Count != nil && *q.Count < 0 {
		return nil, apperrors.Validationf("count must be non-negative, got %d", *q.Count)
	}

	base := Filter{SearchTerm: q.SearchTerm, SellerID: q.SellerID, BidderID: q.BidderID}

	var matches []Auction
	if len(q.CategoryIDs) == 0 {
		result, err := s.repo.ListAuctions(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}
		matches = result
	} else {
		for _, categoryID := range q.CategoryIDs {
			filter := base
			id := categoryID
			filter.CategoryID = &id
			result, err := s.repo.ListAuctions(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("list auctions (category %d): %w", categoryID, err)
			}
			matches = append(matches, result...)
		}
	}

	return SelectPage(matches, sortBy, q.StartIndex, q.Count)
}

// Get returns the full auction record including live bid aggregates.
func (s *Service) Get(ctx context.Context, id int64) (*Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get auction %d: %w", id, err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	return auction, nil
}

// Categories returns the fixed category set.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Create validates and inserts a new auction, emitting auction.created in the
// same transaction.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (int64, error) {
	if cmd.Title == "" {
		return 0, apperrors.Validationf("title must not be empty")
	}
	if cmd.Description == "" {
		return 0, apperrors.Validationf("description must not be empty")
	}

	reserve := int64(DefaultReserve)
	if cmd.Reserve != nil {
		reserve = *cmd.Reserve
	}
	if reserve < 0 {
		return 0, apperrors.Validationf("reserve must be non-negative, got %d", reserve)
	}

	if !cmd.EndDate.After(time.Now()) {
		return 0, apperrors.Validationf("end date must be in the future")
	}

	category, err := s.categoryRepo.GetCategoryByID(ctx, cmd.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("check category %d: %w", cmd.CategoryID, err)
	}
	if category == nil {
		return 0, ErrCategoryNotFound
	}

	auction := &Auction{
		Title:       cmd.Title,
		Description: cmd.Description,
		CategoryID:  cmd.CategoryID,
		SellerID:    cmd.SellerID,
		Reserve:     reserve,
		EndDate:     cmd.EndDate,
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	id, err := s.repo.CreateAuction(ctx, tx, auction)
	if err != nil {
		return 0, fmt.Errorf("failed to create auction: %w", err)
	}

	payload, err := json.Marshal(events.AuctionCreated{
		AuctionID:  id,
		SellerID:   cmd.SellerID,
		Title:      cmd.Title,
		CategoryID: cmd.CategoryID,
		Reserve:    reserve,
		EndDate:    cmd.EndDate,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, events.NewOutboxEvent(events.TypeAuctionCreated, payload)); err != nil {
		return 0, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// Edit applies a partial update, permitted only to the seller while the
// auction is open and bid-free.
func (s *Service) Edit(ctx context.Context, cmd EditCommand) (*Auction, error) {
	auction, err := s.guardMutable(ctx, cmd.AuctionID, cmd.CallerID)
	if err != nil {
		return nil, err
	}

	if cmd.Title != nil {
		if *cmd.Title == "" {
			return nil, apperrors.Validationf("title must not be empty")
		}
		auction.Title = *cmd.Title
	}
	if cmd.Description != nil {
		if *cmd.Description == "" {
			return nil, apperrors.Validationf("description must not be empty")
		}
		auction.Description = *cmd.Description
	}
	if cmd.Reserve != nil {
		if *cmd.Reserve < 0 {
			return nil, apperrors.Validationf("reserve must be non-negative, got %d", *cmd.Reserve)
		}
		auction.Reserve = *cmd.Reserve
	}
	if cmd.EndDate != nil {
		if !cmd.EndDate.After(time.Now()) {
			return nil, apperrors.Validationf("end date must be in the future")
		}
		auction.EndDate = *cmd.EndDate
	}
	if cmd.CategoryID != nil {
		category, err := s.categoryRepo.GetCategoryByID(ctx, *cmd.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category %d: %w", *cmd.CategoryID, err)
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		auction.CategoryID = *cmd.CategoryID
	}

	if err := s.repo.UpdateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to update auction: %w", err)
	}
	return auction, nil
}

// Delete removes an auction, permitted only to the seller while the auction
// is open and bid-free.
func (s *Service) Delete(ctx context.Context, auctionID, callerID int64) error {
	if _, err := s.guardMutable(ctx, auctionID, callerID); err != nil {
		return err
	}
	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	return nil
}

// AttachImage replaces the auction's image. Seller only; allowed in any
// lifecycle state.
func (s *Service) AttachImage(ctx context.Context, auctionID, callerID int64, data []byte) (images.Outcome, error) {
	auction, err := s.Get(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	if !auction.IsOwnedBy(callerID) {
		return 0, ErrNotSeller
	}

	filename, outcome, err := s.imageManager.Attach(ctx, images.AuctionBaseName(auctionID), auction.ImageFilename, data)
	if err != nil {
		return 0, err
	}

	if err := s.repo.SetImageFilename(ctx, auctionID, filename); err != nil {
		return 0, fmt.Errorf("failed to record image filename: %w", err)
	}
	return outcome, nil
}

// ImagePath resolves the auction's image to a servable path.
func (s *Service) ImagePath(ctx context.Context, auctionID int64) (string, error) {
	auction, err := s.Get(ctx, auctionID)
	if err != nil {
		return "", err
	}
	if auction.ImageFilename == nil || *auction.ImageFilename == "" {
		return "", apperrors.NotFoundf("auction %d has no image", auctionID)
	}
	return s.imageManager.Resolve(*auction.ImageFilename), nil
}

// guardMutable enforces the edit/delete rules: the auction exists, the caller
// is the seller, and the state is Open with no bids.
func (s *Service) guardMutable(ctx context.Context, auctionID, callerID int64) (*Auction, error) {
	auction, err := s.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.IsOwnedBy(callerID) {
		return nil, ErrNotSeller
	}
	if auction.HasBids() {
		return nil, ErrAuctionHasBids
	}
	if auction.Closed(time.Now()) {
		return nil, ErrAuctionClosed
	}
	return auction, nil
}
