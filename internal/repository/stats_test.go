package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/ParkPassport/internal/apperrors"
)

func setupStats(t *testing.T) (*PostgresStatsRepository, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newMock(t)
	return NewPostgresStatsRepository(db), mock, cleanup
}

func TestAverageRating(t *testing.T) {
	repo, mock, cleanup := setupStats(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT avg(rating)::float8 FROM reviews WHERE park_code = $1`)).
		WithArgs("yose").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(4.0))

	avg, err := repo.AverageRating(context.Background(), "yose")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg != 4 {
		t.Errorf("average = %v; want 4", avg)
	}
}

func TestAverageRating_NoReviewsIsNotFound(t *testing.T) {
	repo, mock, cleanup := setupStats(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT avg(rating)::float8 FROM reviews`)).
		WithArgs("zion").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	_, err := repo.AverageRating(context.Background(), "zion")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestVisitCountsByState(t *testing.T) {
	repo, mock, cleanup := setupStats(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY p.state_code ORDER BY visits DESC, p.state_code ASC`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"state_code", "visits"}).
			AddRow("CA", int64(2)).
			AddRow("UT", int64(1)))

	visits, err := repo.VisitCountsByState(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits) != 2 || visits[0].StateCode != "CA" || visits[0].Visits != 2 || visits[1].StateCode != "UT" {
		t.Errorf("unexpected visits: %+v", visits)
	}
}

func TestVisitCountsByState_Error(t *testing.T) {
	repo, mock, cleanup := setupStats(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reviews r`)).
		WithArgs(int64(7)).
		WillReturnError(errors.New("timeout"))

	if _, err := repo.VisitCountsByState(context.Background(), 7); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestTotalReviewCount(t *testing.T) {
	repo, mock, cleanup := setupStats(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM reviews WHERE account_id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	total, err := repo.TotalReviewCount(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d; want 0", total)
	}
}
