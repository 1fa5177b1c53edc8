package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/adapter/auth"
	"github.com/carhive/marketplace/internal/listing/domain"
	"github.com/carhive/marketplace/internal/listing/usecase"
)

type Handler struct {
	listings  *usecase.ListingUsecase
	favorites *usecase.FavoriteUsecase
	photos    *usecase.PhotoUsecase
	logger    *zap.Logger
}

func NewHandler(listings *usecase.ListingUsecase, favorites *usecase.FavoriteUsecase, photos *usecase.PhotoUsecase, logger *zap.Logger) *Handler {
	return &Handler{listings: listings, favorites: favorites, photos: photos, logger: logger}
}

type carPayload struct {
	ID           string  `json:"id,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Year         int     `json:"year,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Mileage      int     `json:"mileage,omitempty"`
	Fuel         string  `json:"fuel,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	Color        string  `json:"color,omitempty"`
	Location     string  `json:"location,omitempty"`
	Description  string  `json:"description,omitempty"`
	VIN          string  `json:"vin,omitempty"`
	Status       string  `json:"status,omitempty"`
}

type createListingRequest struct {
	carPayload
	ImageURIs []string `json:"image_uris"`
}

func (h *Handler) HandleBrowseListings(w http.ResponseWriter, r *http.Request) {
	page := domain.Page{
		Limit:  intQuery(r, "limit"),
		Offset: intQuery(r, "offset"),
	}
	cars, err := h.listings.Browse(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carsToPayload(cars))
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	car, err := h.listings.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carToPayload(car))
}

func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode create listing request", zap.Error(err))
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	created, err := h.listings.CreateListingWithImages(r.Context(), payloadToCar(req.carPayload), req.ImageURIs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, carToPayload(created))
}

func (h *Handler) HandleListImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	car, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	refs, err := h.photos.ListImages(r.Context(), car.UserID, car.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *Handler) HandleMyListings(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	if session == nil {
		h.writeError(w, domain.ErrUnauthenticated)
		return
	}
	cars, err := h.listings.ListByOwner(r.Context(), session.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carsToPayload(cars))
}

func (h *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	if session == nil {
		h.writeError(w, domain.ErrUnauthenticated)
		return
	}
	var req struct {
		CarID string `json:"car_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.favorites.ToggleCached(r.Context(), req.CarID, session.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	isFav, err := h.favorites.IsFavoriteCached(r.Context(), session.UserID, req.CarID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": isFav})
}

func (h *Handler) HandleIsFavorite(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	if session == nil {
		h.writeError(w, domain.ErrUnauthenticated)
		return
	}
	isFav, err := h.favorites.IsFavoriteCached(r.Context(), session.UserID, chi.URLParam(r, "carID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": isFav})
}

func (h *Handler) HandleGetFavorites(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	if session == nil {
		h.writeError(w, domain.ErrUnauthenticated)
		return
	}
	cars, err := h.favorites.ListFavoritesCached(r.Context(), session.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carsToPayload(cars))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid listing data", "fields": validationErr.Fields})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func intQuery(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func payloadToCar(p carPayload) domain.Car {
	return domain.Car{
		Brand:        p.Brand,
		Model:        p.Model,
		Year:         p.Year,
		Price:        p.Price,
		Mileage:      p.Mileage,
		Fuel:         domain.FuelType(p.Fuel),
		Transmission: domain.Transmission(p.Transmission),
		Color:        p.Color,
		Location:     p.Location,
		Description:  p.Description,
		VIN:          p.VIN,
		Status:       domain.CarStatus(p.Status),
	}
}

func carToPayload(car domain.Car) carPayload {
	return carPayload{
		ID:           car.ID,
		UserID:       car.UserID,
		Brand:        car.Brand,
		Model:        car.Model,
		Year:         car.Year,
		Price:        car.Price,
		Mileage:      car.Mileage,
		Fuel:         string(car.Fuel),
		Transmission: string(car.Transmission),
		Color:        car.Color,
		Location:     car.Location,
		Description:  car.Description,
		VIN:          car.VIN,
		Status:       string(car.Status),
	}
}

func carsToPayload(cars []domain.Car) []carPayload {
	payloads := make([]carPayload, 0, len(cars))
	for _, car := range cars {
		payloads = append(payloads, carToPayload(car))
	}
	return payloads
}
