package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

func TestParseListQuery(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		r := httptest.NewRequest("GET",
			"/api/v1/auctions?q=watch&categoryIds=1,2&categoryIds=5&sellerId=3&bidderId=4&sortBy=RESERVE_DESC&startIndex=10&count=5", nil)

		query, err := parseListQuery(r)
		require.NoError(t, err)

		assert.Equal(t, "watch", query.SearchTerm)
		assert.Equal(t, []int64{1, 2, 5}, query.CategoryIDs)
		require.NotNil(t, query.SellerID)
		assert.Equal(t, int64(3), *query.SellerID)
		require.NotNil(t, query.BidderID)
		assert.Equal(t, int64(4), *query.BidderID)
		assert.Equal(t, auctions.SortReserveDesc, query.SortBy)
		assert.Equal(t, 10, query.StartIndex)
		require.NotNil(t, query.Count)
		assert.Equal(t, 5, *query.Count)
	})

	t.Run("empty query", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/auctions", nil)

		query, err := parseListQuery(r)
		require.NoError(t, err)

		assert.Empty(t, query.SearchTerm)
		assert.Empty(t, query.CategoryIDs)
		assert.Nil(t, query.SellerID)
		assert.Nil(t, query.BidderID)
		assert.Nil(t, query.Count)
		assert.Zero(t, query.StartIndex)
	})

	t.Run("malformed values", func(t *testing.T) {
		for _, raw := range []string{
			"categoryIds=abc",
			"sellerId=abc",
			"bidderId=1.5",
			"startIndex=ten",
			"count=many",
		} {
			r := httptest.NewRequest("GET", "/api/v1/auctions?"+raw, nil)
			_, err := parseListQuery(r)
			assert.ErrorIs(t, err, apperrors.ErrValidation, raw)
		}
	})
}
