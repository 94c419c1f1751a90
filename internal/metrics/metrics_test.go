package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/reviews/{stateCode}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, state := range []string{"CA", "UT"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reviews/"+state, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/reviews/{stateCode}", "418")))
}

func TestReviewCounters(t *testing.T) {
	m := New()
	m.ReviewWritten("create")
	m.ReviewWritten("create")
	m.ParkCached()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reviewsWritten.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parksCached))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.ParkCached()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "parkpassport_parks_cached_total 1")
}
