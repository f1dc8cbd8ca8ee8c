package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/internal/domain/images"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/auth"
)

// maxImageBytes bounds image uploads.
const maxImageBytes = 10 << 20

type AuctionHandler struct {
	svc    *auctions.Service
	logger *slog.Logger
}

func NewAuctionHandler(svc *auctions.Service, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{svc: svc, logger: logger}
}

type auctionResponse struct {
	AuctionID       int64     `json:"auctionId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CategoryID      int64     `json:"categoryId"`
	SellerID        int64     `json:"sellerId"`
	SellerFirstName string    `json:"sellerFirstName"`
	SellerLastName  string    `json:"sellerLastName"`
	Reserve         int64     `json:"reserve"`
	NumBids         int64     `json:"numBids"`
	HighestBid      *int64    `json:"highestBid"`
	EndDate         time.Time `json:"endDate"`
}

func toAuctionResponse(a *auctions.Auction, withDescription bool) auctionResponse {
	resp := auctionResponse{
		AuctionID:       a.ID,
		Title:           a.Title,
		CategoryID:      a.CategoryID,
		SellerID:        a.SellerID,
		SellerFirstName: a.SellerFirstName,
		SellerLastName:  a.SellerLastName,
		Reserve:         a.Reserve,
		NumBids:         a.NumBids,
		HighestBid:      a.HighestBid,
		EndDate:         a.EndDate,
	}
	if withDescription {
		resp.Description = a.Description
	}
	return resp
}

type listAuctionsResponse struct {
	Auctions []auctionResponse `json:"auctions"`
	Count    int               `json:"count"`
}

type createAuctionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  int64     `json:"categoryId"`
	EndDate     time.Time `json:"endDate"`
	Reserve     *int64    `json:"reserve"`
}

type editAuctionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CategoryID  *int64     `json:"categoryId"`
	EndDate     *time.Time `json:"endDate"`
	Reserve     *int64     `json:"reserve"`
}

type categoryResponse struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

func (h *AuctionHandler) list(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]auctionResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toAuctionResponse(&page.Items[i], false))
	}
	writeJSON(w, http.StatusOK, listAuctionsResponse{Auctions: items, Count: page.TotalCount})
}

// parseListQuery reads the listing filters, sort key and pagination window
// from the query string. categoryIds accepts both repeated parameters and a
// comma-separated list.
func parseListQuery(r *http.Request) (auctions.ListQuery, error) {
	q := r.URL.Query()
	query := auctions.ListQuery{
		SearchTerm: q.Get("q"),
		SortBy:     auctions.SortKey(q.Get("sortBy")),
	}

	for _, raw := range q["categoryIds"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return auctions.ListQuery{}, apperrors.Validationf("invalid categoryIds value %q", part)
			}
			query.CategoryIDs = append(query.CategoryIDs, id)
		}
	}

	if raw := q.Get("sellerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return auctions.ListQuery{}, apperrors.Validationf("invalid sellerId %q", raw)
		}
		query.SellerID = &id
	}
	if raw := q.Get("bidderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return auctions.ListQuery{}, apperrors.Validationf("invalid bidderId %q", raw)
		}
		query.BidderID = &id
	}
	if raw := q.Get("startIndex"); raw != "" {
		start, err := strconv.Atoi(raw)
		if err != nil {
			return auctions.ListQuery{}, apperrors.Validationf("invalid startIndex %q", raw)
		}
		query.StartIndex = start
	}
	if raw := q.Get("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return auctions.ListQuery{}, apperrors.Validationf("invalid count %q", raw)
		}
		query.Count = &count
	}
	return query, nil
}

func (h *AuctionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auction, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuctionResponse(auction, true))
}

func (h *AuctionHandler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{CategoryID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuctionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	id, err := h.svc.Create(r.Context(), auctions.CreateCommand{
		SellerID:    auth.MustUserID(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		EndDate:     req.EndDate,
		Reserve:     req.Reserve,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"auctionId": id})
}

func (h *AuctionHandler) edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req editAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	if _, err := h.svc.Edit(r.Context(), auctions.EditCommand{
		AuctionID:   id,
		CallerID:    auth.MustUserID(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		Reserve:     req.Reserve,
		EndDate:     req.EndDate,
		CategoryID:  req.CategoryID,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *AuctionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id, auth.MustUserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *AuctionHandler) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	path, err := h.svc.ImagePath(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (h *AuctionHandler) putImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil {
		writeError(w, h.logger, apperrors.Validationf("failed to read request body"))
		return
	}

	outcome, err := h.svc.AttachImage(r.Context(), id, auth.MustUserID(r.Context()), data)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(imageStatus(outcome))
}

// imageStatus reports 201 for a first attach and 200 for a replacement.
func imageStatus(outcome images.Outcome) int {
	if outcome == images.OutcomeCreated {
		return http.StatusCreated
	}
	return http.StatusOK
}

// pathID parses a numeric path parameter. A non-numeric id is a not-found,
// matching how unknown resource paths behave.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NotFoundf("invalid id %q", raw)
	}
	return id, nil
}
