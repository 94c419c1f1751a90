package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var reviewCols = []string{
	"review_id", "account_id", "park_code", "rating", "lower", "upper",
	"recommended_activities", "recommended_visitors", "tips", "general_thoughts", "image_url", "created_at",
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func reviewRow(id, accountID int64, parkCode string, rating int64, image any) []driver.Value {
	return []driver.Value{
		id, accountID, parkCode, rating, day("2024-06-01"), day("2024-06-03"),
		"Hiking,Camping", "Families", "Arrive early", nil, image, day("2024-06-10"),
	}
}
