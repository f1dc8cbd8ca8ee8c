package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/jdmccork/auctionhouse/internal/domain/users"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/auth"
)

type UserHandler struct {
	svc    *users.Service
	logger *slog.Logger
}

func NewUserHandler(svc *users.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64  `json:"userId"`
	Token  string `json:"token"`
}

type profileResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

type updateUserRequest struct {
	CurrentPassword string  `json:"currentPassword"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	id, err := h.svc.Register(r.Context(), users.RegisterCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"userId": id})
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	userID, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{UserID: userID, Token: token})
}

func (h *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "not logged in"})
		return
	}
	if err := h.svc.Logout(r.Context(), sess); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// get is behind the optional auth middleware: the email field appears only
// when the viewer is the profile owner.
func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var viewerID int64
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		viewerID = sess.UserID
	}

	profile, err := h.svc.Get(r.Context(), id, viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
	})
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperrors.Validationf("invalid json body"))
		return
	}

	if err := h.svc.Update(r.Context(), users.UpdateCommand{
		UserID:          id,
		CallerID:        auth.MustUserID(r.Context()),
		CurrentPassword: req.CurrentPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) getImage(w http.ResponseWriter, r *http.Request) {
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

func (h *UserHandler) putImage(w http.ResponseWriter, r *http.Request) {
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
