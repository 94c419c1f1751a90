package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ParkPassport/internal/middleware"
	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/atinyakov/ParkPassport/internal/response"
	"github.com/atinyakov/ParkPassport/internal/service"
	"github.com/go-chi/chi/v5"
)

// ReviewService defines the review workflow required by ReviewHandler.
type ReviewService interface {
	Submit(ctx context.Context, sub service.Submission) (*models.Review, error)
	ForEdit(ctx context.Context, accountID int64, parkCode string) (*models.ReviewForm, error)
	ListByState(ctx context.Context, accountID int64, stateCode string) ([]models.ReviewWithPark, error)
	Delete(ctx context.Context, accountID int64, parkCode string) (*models.Review, error)
}

// ReviewHandler handles the authenticated review endpoints.
type ReviewHandler struct {
	ReviewService ReviewService
	// MaxUploadBytes caps a submission body. Zero disables the cap.
	MaxUploadBytes int64
}

// empty is written where a lookup legitimately finds nothing.
var empty = struct{}{}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, service.SubmitCreate, http.StatusCreated)
}

// Update handles PUT /api/reviews.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, service.SubmitUpdate, http.StatusOK)
}

func (h *ReviewHandler) submit(w http.ResponseWriter, r *http.Request, kind service.SubmitKind, status int) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	sub, cleanup, err := parseSubmission(r, kind)
	defer cleanup()
	if err != nil {
		response.Error(w, err)
		return
	}

	review, err := h.ReviewService.Submit(r.Context(), sub)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, status, review)
}

// ListByState handles GET /api/reviews/{stateCode}.
func (h *ReviewHandler) ListByState(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountIDFromContext(r.Context())

	reviews, err := h.ReviewService.ListByState(r.Context(), accountID, chi.URLParam(r, "stateCode"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.ReviewWithPark{}
	}

	response.JSON(w, http.StatusOK, reviews)
}

// ForEdit handles GET /api/reviews/edit/{parkCode}.
func (h *ReviewHandler) ForEdit(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountIDFromContext(r.Context())

	form, err := h.ReviewService.ForEdit(r.Context(), accountID, chi.URLParam(r, "parkCode"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if form == nil {
		response.JSON(w, http.StatusOK, empty)
		return
	}

	response.JSON(w, http.StatusOK, form)
}

// Delete handles DELETE /api/reviews/{parkCode}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountIDFromContext(r.Context())

	deleted, err := h.ReviewService.Delete(r.Context(), accountID, chi.URLParam(r, "parkCode"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if deleted == nil {
		response.JSON(w, http.StatusOK, empty)
		return
	}

	response.JSON(w, http.StatusOK, deleted)
}
