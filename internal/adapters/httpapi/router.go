package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jdmccork/auctionhouse/internal/domain/auctions"
	"github.com/jdmccork/auctionhouse/internal/domain/bids"
	"github.com/jdmccork/auctionhouse/internal/domain/users"
	"github.com/jdmccork/auctionhouse/pkg/auth"
)

// NewRouter wires all routes under /api/v1. Reads are public; writes sit
// behind the required-auth middleware, except user registration and login.
func NewRouter(
	auctionSvc *auctions.Service,
	bidSvc *bids.Service,
	userSvc *users.Service,
	signer *auth.Signer,
	sessions auth.SessionStore,
	logger *slog.Logger,
) http.Handler {
	auctionHandler := NewAuctionHandler(auctionSvc, logger)
	bidHandler := NewBidHandler(bidSvc, logger)
	userHandler := NewUserHandler(userSvc, logger)

	requireAuth := auth.Middleware(signer, sessions)
	optionalAuth := auth.OptionalMiddleware(signer, sessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.register)
			r.Post("/login", userHandler.login)
			r.With(requireAuth).Post("/logout", userHandler.logout)
			r.With(optionalAuth).Get("/{id}", userHandler.get)
			r.With(requireAuth).Patch("/{id}", userHandler.update)
			r.Get("/{id}/image", userHandler.getImage)
			r.With(requireAuth).Put("/{id}/image", userHandler.putImage)
		})

		r.Route("/auctions", func(r chi.Router) {
			r.Get("/", auctionHandler.list)
			r.With(requireAuth).Post("/", auctionHandler.create)
			r.Get("/categories", auctionHandler.categories)
			r.Get("/{id}", auctionHandler.get)
			r.With(requireAuth).Patch("/{id}", auctionHandler.edit)
			r.With(requireAuth).Delete("/{id}", auctionHandler.delete)
			r.Get("/{id}/bids", bidHandler.list)
			r.With(requireAuth).Post("/{id}/bids", bidHandler.place)
			r.Get("/{id}/image", auctionHandler.getImage)
			r.With(requireAuth).Put("/{id}/image", auctionHandler.putImage)
		})
	})

	return r
}
