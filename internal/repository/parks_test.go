package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
)

func setupParks(t *testing.T) (*PostgresParkCacheRepository, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newMock(t)
	return NewPostgresParkCacheRepository(db), mock, cleanup
}

func TestParkGet_Success(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT park_code, details, state_code FROM parks_cache WHERE park_code = $1`)).
		WithArgs("yose").
		WillReturnRows(sqlmock.NewRows([]string{"park_code", "details", "state_code"}).
			AddRow("yose", []byte(`{"name":"Yosemite"}`), "CA"))

	park, err := repo.Get(context.Background(), "yose")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if park.StateCode != "CA" || string(park.Details) != `{"name":"Yosemite"}` {
		t.Errorf("unexpected park: %+v", park)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestParkGet_NotFound(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM parks_cache WHERE park_code = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"park_code", "details", "state_code"}))

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestParkGet_StorageError(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM parks_cache`)).
		WithArgs("yose").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Get(context.Background(), "yose")
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestEnsureCached_Inserts(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	park := models.ParkCache{ParkCode: "yose", Details: json.RawMessage(`{"name":"Yosemite"}`), StateCode: "CA"}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO parks_cache (park_code, details, state_code) VALUES ($1, $2, $3) ON CONFLICT (park_code) DO NOTHING`)).
		WithArgs("yose", `{"name":"Yosemite"}`, "CA").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.EnsureCached(context.Background(), park)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected first call to insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsureCached_ExistingEntryIsNoop(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	park := models.ParkCache{ParkCode: "yose", Details: json.RawMessage(`{"name":"Other"}`), StateCode: "CA"}
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (park_code) DO NOTHING`)).
		WithArgs("yose", `{"name":"Other"}`, "CA").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.EnsureCached(context.Background(), park)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Error("expected existing entry to be left untouched")
	}
}

func TestEnsureCached_Error(t *testing.T) {
	repo, mock, cleanup := setupParks(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO parks_cache`)).
		WillReturnError(errors.New("disk full"))

	_, err := repo.EnsureCached(context.Background(), models.ParkCache{ParkCode: "yose", Details: json.RawMessage(`{}`), StateCode: "CA"})
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}
