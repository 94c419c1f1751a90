package service

import (
	"context"
	"errors"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// StatsRepository is the aggregation persistence.
type StatsRepository interface {
	// AverageRating returns NotFound when the park has no reviews.
	AverageRating(ctx context.Context, parkCode string) (float64, error)
	VisitCountsByState(ctx context.Context, accountID int64) ([]models.StateVisits, error)
	TotalReviewCount(ctx context.Context, accountID int64) (int64, error)
}

// StatsService answers the aggregation queries.
type StatsService struct {
	parks ParkCacheRepository
	stats StatsRepository
	tx    Transactor
}

// NewStatsService creates a StatsService.
func NewStatsService(parks ParkCacheRepository, stats StatsRepository, tx Transactor) *StatsService {
	return &StatsService{parks: parks, stats: stats, tx: tx}
}

// AverageRating returns the mean rating of parkCode.
func (s *StatsService) AverageRating(ctx context.Context, parkCode string) (float64, error) {
	return s.stats.AverageRating(ctx, parkCode)
}

// VisitCountsByState returns the per-state number of reviews written by accountID.
func (s *StatsService) VisitCountsByState(ctx context.Context, accountID int64) ([]models.StateVisits, error) {
	return s.stats.VisitCountsByState(ctx, accountID)
}

// TotalReviewCount returns the number of reviews written by accountID.
func (s *StatsService) TotalReviewCount(ctx context.Context, accountID int64) (int64, error) {
	return s.stats.TotalReviewCount(ctx, accountID)
}

// ParkRating returns the average rating of a cached park, or nil when the
// park is cached but has no reviews. An uncached park is NotFound.
func (s *StatsService) ParkRating(ctx context.Context, parkCode string) (*float64, error) {
	var rating *float64
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		if _, err := s.parks.Get(ctx, parkCode); err != nil {
			return err
		}
		avg, err := s.stats.AverageRating(ctx, parkCode)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		rating = &avg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// VisitSummary returns the per-state counts and the review total of accountID
// read from the same snapshot.
func (s *StatsService) VisitSummary(ctx context.Context, accountID int64) (*models.VisitSummary, error) {
	summary := &models.VisitSummary{}
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		states, err := s.stats.VisitCountsByState(ctx, accountID)
		if err != nil {
			return err
		}
		total, err := s.stats.TotalReviewCount(ctx, accountID)
		if err != nil {
			return err
		}
		summary.States, summary.Total = states, total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
