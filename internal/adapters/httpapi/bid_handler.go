package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/auth"
)

type BidHandler struct {
	svc    *bids.Service
	logger *slog.Logger
}

func NewBidHandler(svc *bids.Service, logger *slog.Logger) *BidHandler {
	return &BidHandler{svc: svc, logger: logger}
}

type bidResponse struct {
	BidID     int64     `json:"bidId"`
	Amount    int64     `json:"amount"`
	BidderID  int64     `json:"bidderId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Timestamp time.Time `json:"timestamp"`
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
	// Timestamp is optional; the server clock applies when omitted.
	Timestamp *time.Time `json:"timestamp"`
}

func (h *BidHandler) list(w http.ResponseWriter, r *http.Request) {
	auctionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ledger, err := h.svc.ListBids(r.Context(), auctionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]bidResponse, 0, len(ledger))
	for _, b := range ledger {
		resp = append(resp, bidResponse{
			BidID:     b.ID,
			Amount:    b.Amount,
			BidderID:  b.BidderID,
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Timestamp: b.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BidHandler) place(w http.ResponseWriter, r *http.Request) {
	auctionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	timestamp := time.Now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	bid, err := h.svc.PlaceBid(r.Context(), bids.PlaceBidCommand{
		AuctionID: auctionID,
		BidderID:  auth.MustUserID(r.Context()),
		Amount:    req.Amount,
		Timestamp: timestamp,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"bidId": bid.ID})
}
