package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/adapter/auth"
)

// NewRouter wires the public browse routes and the authenticated account
// routes.
func NewRouter(h *Handler, sessions *auth.SessionManager, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/api/listings", h.HandleBrowseListings)
	r.Get("/api/listings/{id}", h.HandleGetListing)
	r.Get("/api/listings/{id}/images", h.HandleListImages)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(sessions, logger))

		r.Post("/api/listings", h.HandleCreateListing)
		r.Get("/api/my/listings", h.HandleMyListings)
		r.Get("/api/favorites", h.HandleGetFavorites)
		r.Get("/api/favorites/{carID}", h.HandleIsFavorite)
		r.Post("/api/favorites/toggle", h.HandleToggleFavorite)
	})

	return r
}
