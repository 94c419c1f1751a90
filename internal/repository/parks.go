package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// PostgresParkCacheRepository stores cached park metadata. Entries are
// written once and never refreshed.
type PostgresParkCacheRepository struct {
	// DB is the database handle used outside transactions.
	DB *sql.DB
}

// NewPostgresParkCacheRepository creates a PostgresParkCacheRepository using db.
func NewPostgresParkCacheRepository(db *sql.DB) *PostgresParkCacheRepository {
	return &PostgresParkCacheRepository{DB: db}
}

// Get returns the cache entry for parkCode, or a NotFound error.
func (r *PostgresParkCacheRepository) Get(ctx context.Context, parkCode string) (*models.ParkCache, error) {
	var (
		park    models.ParkCache
		details []byte
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx, `
		SELECT park_code, details, state_code FROM parks_cache WHERE park_code = $1
	`, parkCode).Scan(&park.ParkCode, &details, &park.StateCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("cannot find park with code %q", parkCode))
	}
	if err != nil {
		return nil, storageErr("get park", "", err)
	}
	park.Details = details
	return &park, nil
}

// EnsureCached inserts park unless an entry for its code already exists.
// The existing entry is left untouched (first writer wins). It reports
// whether a row was inserted.
func (r *PostgresParkCacheRepository) EnsureCached(ctx context.Context, park models.ParkCache) (bool, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `
		INSERT INTO parks_cache (park_code, details, state_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (park_code) DO NOTHING
	`, park.ParkCode, string(park.Details), park.StateCode)
	if err != nil {
		return false, storageErr("cache park", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("cache park", "", err)
	}
	return n > 0, nil
}
