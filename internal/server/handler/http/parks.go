package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ParkPassport/internal/response"
	"github.com/go-chi/chi/v5"
)

// RatingService computes park ratings.
type RatingService interface {
	// ParkRating returns nil for a cached park without reviews.
	ParkRating(ctx context.Context, parkCode string) (*float64, error)
}

// ParkHandler serves the public park cache endpoints.
type ParkHandler struct {
	RatingService RatingService
}

// RatingResponse carries a park's average rating, null when nobody rated it.
type RatingResponse struct {
	Rating *float64 `json:"rating"`
}

// Rating handles GET /api/parks-cache/{parkCode}.
func (h *ParkHandler) Rating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.RatingService.ParkRating(r.Context(), chi.URLParam(r, "parkCode"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, RatingResponse{Rating: rating})
}
