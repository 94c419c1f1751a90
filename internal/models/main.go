// Package models defines the core data structures for accounts, cached parks and reviews.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Account represents a registered user.
type Account struct {
	// ID is the unique identifier for the account.
	ID int64 `json:"accountId"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// JoinedAt is the time the account was created.
	JoinedAt time.Time `json:"joinedAt"`
}

// ParkCache is a locally stored snapshot of one park's descriptive metadata.
type ParkCache struct {
	// ParkCode is the stable external identifier of the park.
	ParkCode string `json:"parkCode"`
	// Details is the opaque JSON document describing the park (name, image, ...).
	Details json.RawMessage `json:"details"`
	// StateCode is the two-letter code of the state the park belongs to.
	StateCode string `json:"stateCode"`
}

// DateRange is an inclusive interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both bounds are set and the end is not before the start.
func (d DateRange) Valid() bool {
	return !d.Start.IsZero() && !d.End.IsZero() && !d.End.Before(d.Start)
}

// MarshalJSON renders the range as ["YYYY-MM-DD","YYYY-MM-DD"].
func (d DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{d.Start.Format(DateLayout), d.End.Format(DateLayout)})
}

// UnmarshalJSON parses the two-element form produced by MarshalJSON.
func (d *DateRange) UnmarshalJSON(b []byte) error {
	var raw [2]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := time.Parse(DateLayout, raw[0])
	if err != nil {
		return err
	}
	end, err := time.Parse(DateLayout, raw[1])
	if err != nil {
		return err
	}
	d.Start, d.End = start, end
	return nil
}

// Review is one account's visit record and opinion for one park.
type Review struct {
	ID                    int64     `json:"reviewId"`
	AccountID             int64     `json:"accountId"`
	ParkCode              string    `json:"parkCode"`
	Rating                int       `json:"rating"`
	DatesVisited          DateRange `json:"datesVisited"`
	RecommendedActivities []string  `json:"recommendedActivities"`
	RecommendedVisitors   []string  `json:"recommendedVisitors"`
	Tips                  string    `json:"tips"`
	// GeneralThoughts is optional free text.
	GeneralThoughts *string `json:"generalThoughts"`
	// ImageURL is set only when an image was uploaded.
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewWithPark is a review joined with its cached park entry.
type ReviewWithPark struct {
	Review
	Details   json.RawMessage `json:"details"`
	StateCode string          `json:"stateCode"`
}

// ReviewPatch carries the mutable fields of a review.
// A nil ImageURL keeps the stored image.
type ReviewPatch struct {
	Rating                int
	DatesVisited          DateRange
	RecommendedActivities []string
	RecommendedVisitors   []string
	Tips                  string
	GeneralThoughts       *string
	ImageURL              *string
}

// StateVisits is the number of reviewed parks of one account in one state.
type StateVisits struct {
	StateCode string `json:"stateCode"`
	Visits    int64  `json:"visits"`
}

// ReviewTotal is the total number of reviews written by one account.
type ReviewTotal struct {
	Reviews int64 `json:"reviews"`
}

// VisitSummary groups the per-state counts with the account's review total.
type VisitSummary struct {
	States []StateVisits
	Total  int64
}

// ReviewForm is a review reshaped for an edit form.
type ReviewForm struct {
	ParkCode              string   `json:"parkCode"`
	Rating                int      `json:"rating"`
	StartDate             string   `json:"startDate"`
	EndDate               string   `json:"endDate"`
	RecommendedActivities []string `json:"recommendedActivities"`
	RecommendedVisitors   []string `json:"recommendedVisitors"`
	Tips                  string   `json:"tips"`
	GeneralThoughts       *string  `json:"generalThoughts"`
	ImageURL              *string  `json:"imageUrl"`
}

// ToForm converts the review into its edit form shape.
func (r Review) ToForm() ReviewForm {
	return ReviewForm{
		ParkCode:              r.ParkCode,
		Rating:                r.Rating,
		StartDate:             r.DatesVisited.Start.Format(DateLayout),
		EndDate:               r.DatesVisited.End.Format(DateLayout),
		RecommendedActivities: r.RecommendedActivities,
		RecommendedVisitors:   r.RecommendedVisitors,
		Tips:                  r.Tips,
		GeneralThoughts:       r.GeneralThoughts,
		ImageURL:              r.ImageURL,
	}
}

// JoinSet serializes a set of names into comma-joined text, dropping blanks.
func JoinSet(items []string) string {
	return strings.Join(SplitSet(strings.Join(items, ",")), ",")
}

// SplitSet parses comma-joined text into trimmed, non-empty names.
func SplitSet(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
