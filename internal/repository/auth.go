package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

// PostgresAuthRepository implements account persistence using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// RegisterUser inserts a new account. The ON CONFLICT DO NOTHING clause turns
// a taken username into an empty result, reported as a Conflict error.
func (s *PostgresAuthRepository) RegisterUser(ctx context.Context, username string, passwordHash []byte) (*models.Account, error) {
	var acc models.Account
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
		INSERT INTO accounts (username, hashed_password)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
		RETURNING account_id, username, joined_at
	`, username, string(passwordHash)).Scan(&acc.ID, &acc.Username, &acc.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Conflict("username is already in use", nil)
	}
	if err != nil {
		return nil, storageErr("register user", "username is already in use", err)
	}
	return &acc, nil
}

// FindByUsername returns the account registered under username, or NotFound.
func (s *PostgresAuthRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
		SELECT account_id, username, hashed_password, joined_at FROM accounts WHERE username = $1
	`, username).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("account not found")
	}
	if err != nil {
		return nil, storageErr("find user", "", err)
	}
	return &acc, nil
}
