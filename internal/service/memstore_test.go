package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// memStore is an in-memory stand-in for the Postgres repositories and transactor.
type memStore struct {
	parks   map[string]models.ParkCache
	reviews []models.Review
	nextID  int64
	calls   int

	failCreate error
}

func newMemStore() *memStore {
	return &memStore{parks: map[string]models.ParkCache{}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	parks := maps.Clone(m.parks)
	reviews := slices.Clone(m.reviews)
	if err := fn(ctx); err != nil {
		m.parks, m.reviews = parks, reviews
		return err
	}
	return nil
}

func (m *memStore) WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Get(_ context.Context, parkCode string) (*models.ParkCache, error) {
	m.calls++
	p, ok := m.parks[parkCode]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("cannot find park with code %q", parkCode))
	}
	return &p, nil
}

func (m *memStore) EnsureCached(_ context.Context, park models.ParkCache) (bool, error) {
	m.calls++
	if _, ok := m.parks[park.ParkCode]; ok {
		return false, nil
	}
	m.parks[park.ParkCode] = park
	return true, nil
}

func (m *memStore) Create(_ context.Context, review models.Review) (*models.Review, error) {
	m.calls++
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	for _, r := range m.reviews {
		if r.AccountID == review.AccountID && r.ParkCode == review.ParkCode {
			return nil, apperrors.Conflict("a review for this park already exists", nil)
		}
	}
	m.nextID++
	review.ID = m.nextID
	m.reviews = append(m.reviews, review)
	return &review, nil
}

func (m *memStore) FindByAccountAndPark(_ context.Context, accountID int64, parkCode string) ([]models.Review, error) {
	m.calls++
	out := []models.Review{}
	for _, r := range m.reviews {
		if r.AccountID == accountID && r.ParkCode == parkCode {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UpdateByAccountAndPark(_ context.Context, accountID int64, parkCode string, patch models.ReviewPatch) (*models.Review, error) {
	m.calls++
	for i, r := range m.reviews {
		if r.AccountID != accountID || r.ParkCode != parkCode {
			continue
		}
		r.Rating = patch.Rating
		r.DatesVisited = patch.DatesVisited
		r.RecommendedActivities = patch.RecommendedActivities
		r.RecommendedVisitors = patch.RecommendedVisitors
		r.Tips = patch.Tips
		r.GeneralThoughts = patch.GeneralThoughts
		if patch.ImageURL != nil {
			r.ImageURL = patch.ImageURL
		}
		m.reviews[i] = r
		return &r, nil
	}
	return nil, apperrors.NotFound("no existing review to update for this account and park")
}

func (m *memStore) DeleteByAccountAndPark(_ context.Context, accountID int64, parkCode string) (*models.Review, error) {
	m.calls++
	for i, r := range m.reviews {
		if r.AccountID == accountID && r.ParkCode == parkCode {
			m.reviews = slices.Delete(m.reviews, i, i+1)
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("no review to delete for this account and park")
}

func (m *memStore) ListByStateForAccount(_ context.Context, accountID int64, stateCode string) ([]models.ReviewWithPark, error) {
	m.calls++
	out := []models.ReviewWithPark{}
	for _, r := range m.reviews {
		p := m.parks[r.ParkCode]
		if r.AccountID == accountID && p.StateCode == stateCode {
			out = append(out, models.ReviewWithPark{Review: r, Details: p.Details, StateCode: p.StateCode})
		}
	}
	return out, nil
}

func (m *memStore) AverageRating(_ context.Context, parkCode string) (float64, error) {
	m.calls++
	var sum, n int
	for _, r := range m.reviews {
		if r.ParkCode == parkCode {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, apperrors.NotFound("no reviews for park")
	}
	return float64(sum) / float64(n), nil
}

func (m *memStore) VisitCountsByState(_ context.Context, accountID int64) ([]models.StateVisits, error) {
	m.calls++
	counts := map[string]int64{}
	for _, r := range m.reviews {
		if r.AccountID == accountID {
			counts[m.parks[r.ParkCode].StateCode]++
		}
	}
	out := make([]models.StateVisits, 0, len(counts))
	for state, n := range counts {
		out = append(out, models.StateVisits{StateCode: state, Visits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].StateCode < out[j].StateCode
	})
	return out, nil
}

func (m *memStore) TotalReviewCount(_ context.Context, accountID int64) (int64, error) {
	m.calls++
	var n int64
	for _, r := range m.reviews {
		if r.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

type mockBlobs struct {
	PutFunc func(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

func (m *mockBlobs) Put(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	return m.PutFunc(ctx, filename, contentType, body)
}

type countingRecorder struct {
	written map[string]int
	cached  int
}

func (c *countingRecorder) ReviewWritten(op string) {
	if c.written == nil {
		c.written = map[string]int{}
	}
	c.written[op]++
}

func (c *countingRecorder) ParkCached() { c.cached++ }
