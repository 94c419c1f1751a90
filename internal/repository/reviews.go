package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// reviewColumns selects a review row from the table aliased as r. The
// daterange is returned as its inclusive bounds.
const reviewColumns = `r.review_id, r.account_id, r.park_code, r.rating,
	lower(r.dates_visited), upper(r.dates_visited) - 1,
	r.recommended_activities, r.recommended_visitors,
	r.tips, r.general_thoughts, r.image_url, r.created_at`

const duplicateReviewMsg = "a review for this park already exists for this account"

// PostgresReviewRepository stores reviews. Every mutating query is scoped by account.
type PostgresReviewRepository struct {
	// DB is the database handle used outside transactions.
	DB *sql.DB
}

// NewPostgresReviewRepository creates a PostgresReviewRepository using db.
func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReview reads reviewColumns followed by any extra destinations.
func scanReview(row rowScanner, extra ...any) (models.Review, error) {
	var (
		rev                  models.Review
		activities, visitors string
		thoughts, imageURL   sql.NullString
	)
	dest := []any{
		&rev.ID, &rev.AccountID, &rev.ParkCode, &rev.Rating,
		&rev.DatesVisited.Start, &rev.DatesVisited.End,
		&activities, &visitors,
		&rev.Tips, &thoughts, &imageURL, &rev.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Review{}, err
	}
	rev.RecommendedActivities = models.SplitSet(activities)
	rev.RecommendedVisitors = models.SplitSet(visitors)
	if thoughts.Valid {
		rev.GeneralThoughts = &thoughts.String
	}
	if imageURL.Valid {
		rev.ImageURL = &imageURL.String
	}
	return rev, nil
}

// Create inserts review and returns the stored row. A second review for the
// same account and park is rejected with a Conflict error.
func (r *PostgresReviewRepository) Create(ctx context.Context, review models.Review) (*models.Review, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `
		INSERT INTO reviews AS r (account_id, park_code, rating, dates_visited,
			recommended_activities, recommended_visitors, tips, general_thoughts, image_url)
		VALUES ($1, $2, $3, daterange($4::date, $5::date, '[]'), $6, $7, $8, $9, $10)
		RETURNING `+reviewColumns,
		review.AccountID, review.ParkCode, review.Rating,
		review.DatesVisited.Start, review.DatesVisited.End,
		models.JoinSet(review.RecommendedActivities), models.JoinSet(review.RecommendedVisitors),
		review.Tips, review.GeneralThoughts, review.ImageURL,
	)
	created, err := scanReview(row)
	if err != nil {
		return nil, storageErr("create review", duplicateReviewMsg, err)
	}
	return &created, nil
}

// FindByAccountAndPark returns every review accountID wrote for parkCode.
// The slice is empty, not nil, when there are none.
func (r *PostgresReviewRepository) FindByAccountAndPark(ctx context.Context, accountID int64, parkCode string) ([]models.Review, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		WHERE r.account_id = $1 AND r.park_code = $2
		ORDER BY r.review_id
	`, accountID, parkCode)
	if err != nil {
		return nil, storageErr("find review", "", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, storageErr("scan review", "", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find review", "", err)
	}
	return reviews, nil
}

// UpdateByAccountAndPark overwrites the mutable fields of accountID's review of
// parkCode. A nil patch.ImageURL keeps the stored image URL. Returns NotFound
// when the account owns no such review.
func (r *PostgresReviewRepository) UpdateByAccountAndPark(ctx context.Context, accountID int64, parkCode string, patch models.ReviewPatch) (*models.Review, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `
		UPDATE reviews AS r
		SET rating = $3,
			dates_visited = daterange($4::date, $5::date, '[]'),
			recommended_activities = $6,
			recommended_visitors = $7,
			tips = $8,
			general_thoughts = $9,
			image_url = COALESCE($10, r.image_url)
		WHERE r.account_id = $1 AND r.park_code = $2
		RETURNING `+reviewColumns,
		accountID, parkCode, patch.Rating,
		patch.DatesVisited.Start, patch.DatesVisited.End,
		models.JoinSet(patch.RecommendedActivities), models.JoinSet(patch.RecommendedVisitors),
		patch.Tips, patch.GeneralThoughts, patch.ImageURL,
	)
	updated, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("no existing review to update for park %q", parkCode))
	}
	if err != nil {
		return nil, storageErr("update review", "", err)
	}
	return &updated, nil
}

// DeleteByAccountAndPark removes accountID's review of parkCode and returns it.
// Returns NotFound when the account owns no such review.
func (r *PostgresReviewRepository) DeleteByAccountAndPark(ctx context.Context, accountID int64, parkCode string) (*models.Review, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `
		DELETE FROM reviews AS r
		WHERE r.account_id = $1 AND r.park_code = $2
		RETURNING `+reviewColumns,
		accountID, parkCode,
	)
	deleted, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("no existing review to delete for park %q", parkCode))
	}
	if err != nil {
		return nil, storageErr("delete review", "", err)
	}
	return &deleted, nil
}

// ListByStateForAccount returns accountID's reviews of parks in stateCode,
// joined with the cached park details, newest first.
func (r *PostgresReviewRepository) ListByStateForAccount(ctx context.Context, accountID int64, stateCode string) ([]models.ReviewWithPark, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `
		SELECT `+reviewColumns+`, p.details, p.state_code
		FROM reviews r
		JOIN parks_cache p ON p.park_code = r.park_code
		WHERE r.account_id = $1 AND p.state_code = $2
		ORDER BY r.created_at DESC, r.review_id DESC
	`, accountID, stateCode)
	if err != nil {
		return nil, storageErr("list reviews", "", err)
	}
	defer rows.Close()

	out := []models.ReviewWithPark{}
	for rows.Next() {
		var item models.ReviewWithPark
		var details []byte
		rev, err := scanReview(rows, &details, &item.StateCode)
		if err != nil {
			return nil, storageErr("scan review", "", err)
		}
		item.Review = rev
		item.Details = details
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list reviews", "", err)
	}
	return out, nil
}
