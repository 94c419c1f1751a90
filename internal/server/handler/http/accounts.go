package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ParkPassport/internal/middleware"
	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/atinyakov/ParkPassport/internal/response"
)

// SummaryService computes per-account visit statistics.
type SummaryService interface {
	VisitSummary(ctx context.Context, accountID int64) (*models.VisitSummary, error)
}

// AccountHandler serves the authenticated account endpoints.
type AccountHandler struct {
	SummaryService SummaryService
}

// VisitSummary handles GET /api/accounts/me/visit-summary.
// The body is a two-element array: the per-state counts and a one-element
// array holding the review total.
func (h *AccountHandler) VisitSummary(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountIDFromContext(r.Context())

	summary, err := h.SummaryService.VisitSummary(r.Context(), accountID)
	if err != nil {
		response.Error(w, err)
		return
	}

	states := summary.States
	if states == nil {
		states = []models.StateVisits{}
	}
	response.JSON(w, http.StatusOK, []any{states, []models.ReviewTotal{{Reviews: summary.Total}}})
}
