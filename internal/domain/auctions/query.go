package auctions

import (
	"sort"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// SortKey selects a listing sort strategy.
type SortKey string

const (
	SortAlphabeticalAsc  SortKey = "ALPHABETICAL_ASC"
	SortAlphabeticalDesc SortKey = "ALPHABETICAL_DESC"
	SortBidsAsc          SortKey = "BIDS_ASC"
	SortBidsDesc         SortKey = "BIDS_DESC"
	SortClosingSoon      SortKey = "CLOSING_SOON"
	SortClosingLast      SortKey = "CLOSING_LAST"
	SortReserveAsc       SortKey = "RESERVE_ASC"
	SortReserveDesc      SortKey = "RESERVE_DESC"
)

// DefaultSortKey is applied when the caller does not name one.
const DefaultSortKey = SortClosingSoon

// IsValid reports whether k is a known sort strategy.
func (k SortKey) IsValid() bool {
	switch k {
	case SortAlphabeticalAsc, SortAlphabeticalDesc,
		SortBidsAsc, SortBidsDesc,
		SortClosingSoon, SortClosingLast,
		SortReserveAsc, SortReserveDesc:
		return true
	default:
		return false
	}
}

func (k SortKey) less(a, b *Auction) bool {
	switch k {
	case SortAlphabeticalAsc:
		return a.Title < b.Title
	case SortAlphabeticalDesc:
		return a.Title > b.Title
	case SortBidsAsc:
		return a.NumBids < b.NumBids
	case SortBidsDesc:
		return a.NumBids > b.NumBids
	case SortClosingSoon:
		return a.EndDate.Before(b.EndDate)
	case SortClosingLast:
		return a.EndDate.After(b.EndDate)
	case SortReserveAsc:
		return a.Reserve < b.Reserve
	case SortReserveDesc:
		return a.Reserve > b.Reserve
	default:
		return false
	}
}

// Page is one window of a sorted result set. TotalCount is the size of the
// full match set before pagination.
type Page struct {
	Items      []Auction
	TotalCount int
}

// SelectPage sorts items by key and returns the window
// [startIndex, startIndex+count) clamped to bounds. A nil count means the
// rest of the result set. The sort is stable: ties keep their pre-sort order.
// items is sorted in place.
func SelectPage(items []Auction, key SortKey, startIndex int, count *int) (*Page, error) {
	if !key.IsValid() {
		return nil, apperrors.Validationf("unknown sortBy %q", string(key))
	}
	if startIndex < 0 {
		return nil, apperrors.Validationf("startIndex must be non-negative, got %d", startIndex)
	}
	if count != nil && *count < 0 {
		return nil, apperrors.Validationf("count must be non-negative, got %d", *count)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return key.less(&items[i], &items[j])
	})

	total := len(items)
	start := startIndex
	if start > total {
		start = total
	}
	end := total
	// Compare widths rather than start+*count, which can overflow.
	if count != nil && *count < end-start {
		end = start + *count
	}

	return &Page{Items: items[start:end], TotalCount: total}, nil
}
