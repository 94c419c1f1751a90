package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// PostgresStatsRepository computes read-only aggregates over reviews and the park cache.
// Callers that need several aggregates from one snapshot run them through
// Transactor.WithinReadTx.
type PostgresStatsRepository struct {
	// DB is the database handle used outside transactions.
	DB *sql.DB
}

// NewPostgresStatsRepository creates a PostgresStatsRepository using db.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{DB: db}
}

// AverageRating returns the mean rating of all reviews of parkCode.
// Returns NotFound when the park has no reviews.
func (r *PostgresStatsRepository) AverageRating(ctx context.Context, parkCode string) (float64, error) {
	var avg sql.NullFloat64
	err := conn(ctx, r.DB).QueryRowContext(ctx, `
		SELECT avg(rating)::float8 FROM reviews WHERE park_code = $1
	`, parkCode).Scan(&avg)
	if err != nil {
		return 0, storageErr("average rating", "", err)
	}
	if !avg.Valid {
		return 0, apperrors.NotFound(fmt.Sprintf("park %q has no reviews", parkCode))
	}
	return avg.Float64, nil
}

// VisitCountsByState counts accountID's reviewed parks per state, most visited
// first; ties are ordered by state code.
func (r *PostgresStatsRepository) VisitCountsByState(ctx context.Context, accountID int64) ([]models.StateVisits, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `
		SELECT p.state_code, count(*) AS visits
		FROM reviews r
		JOIN parks_cache p ON p.park_code = r.park_code
		WHERE r.account_id = $1
		GROUP BY p.state_code
		ORDER BY visits DESC, p.state_code ASC
	`, accountID)
	if err != nil {
		return nil, storageErr("visit counts", "", err)
	}
	defer rows.Close()

	visits := []models.StateVisits{}
	for rows.Next() {
		var v models.StateVisits
		if err := rows.Scan(&v.StateCode, &v.Visits); err != nil {
			return nil, storageErr("scan visit counts", "", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("visit counts", "", err)
	}
	return visits, nil
}

// TotalReviewCount returns how many reviews accountID has written.
func (r *PostgresStatsRepository) TotalReviewCount(ctx context.Context, accountID int64) (int64, error) {
	var total int64
	err := conn(ctx, r.DB).QueryRowContext(ctx, `
		SELECT count(*) FROM reviews WHERE account_id = $1
	`, accountID).Scan(&total)
	if err != nil {
		return 0, storageErr("total reviews", "", err)
	}
	return total, nil
}
