package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ParkCacheRepository is the park cache persistence used by the services.
type ParkCacheRepository interface {
	Get(ctx context.Context, parkCode string) (*models.ParkCache, error)
	// EnsureCached inserts the entry unless one exists and reports whether it inserted.
	EnsureCached(ctx context.Context, park models.ParkCache) (bool, error)
}

// ReviewRepository is the review persistence used by the workflow.
type ReviewRepository interface {
	Create(ctx context.Context, review models.Review) (*models.Review, error)
	FindByAccountAndPark(ctx context.Context, accountID int64, parkCode string) ([]models.Review, error)
	UpdateByAccountAndPark(ctx context.Context, accountID int64, parkCode string, patch models.ReviewPatch) (*models.Review, error)
	DeleteByAccountAndPark(ctx context.Context, accountID int64, parkCode string) (*models.Review, error)
	ListByStateForAccount(ctx context.Context, accountID int64, stateCode string) ([]models.ReviewWithPark, error)
}

// Transactor runs fn with a transaction bound to the context it receives.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BlobStore persists uploaded images and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// Recorder counts workflow outcomes.
type Recorder interface {
	ReviewWritten(op string)
	ParkCached()
}

type nopRecorder struct{}

func (nopRecorder) ReviewWritten(string) {}
func (nopRecorder) ParkCached()          {}

// SubmitKind selects whether a submission creates a review or updates the existing one.
type SubmitKind int

const (
	// SubmitCreate stores a first review for the park.
	SubmitCreate SubmitKind = iota
	// SubmitUpdate replaces the caller's existing review for the park.
	SubmitUpdate
)

func (k SubmitKind) String() string {
	if k == SubmitUpdate {
		return "update"
	}
	return "create"
}

// Upload is an image attached to a submission.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Submission is a review write request.
// StateCode and ParkDetails are only used, and required, when creating.
type Submission struct {
	Kind      SubmitKind `json:"-" validate:"-"`
	AccountID int64      `json:"-" validate:"-"`

	ParkCode              string          `json:"parkCode" validate:"required"`
	Rating                *int            `json:"rating" validate:"required,min=1,max=5"`
	StartDate             time.Time       `json:"startDate" validate:"-"`
	EndDate               time.Time       `json:"endDate" validate:"-"`
	RecommendedActivities []string        `json:"recommendedActivities" validate:"required,min=1"`
	RecommendedVisitors   []string        `json:"recommendedVisitors" validate:"required,min=1"`
	Tips                  string          `json:"tips" validate:"required"`
	GeneralThoughts       *string         `json:"generalThoughts" validate:"-"`
	StateCode             string          `json:"stateCode" validate:"-"`
	ParkDetails           json.RawMessage `json:"parkDetails" validate:"-"`
	Image                 *Upload         `json:"-" validate:"-"`
}

// ReviewService runs the review ingestion workflow.
type ReviewService struct {
	parks    ParkCacheRepository
	reviews  ReviewRepository
	tx       Transactor
	blobs    BlobStore
	recorder Recorder
	log      *zap.Logger
	validate *validator.Validate
}

// NewReviewService creates a ReviewService. A nil recorder or logger disables that concern.
func NewReviewService(parks ParkCacheRepository, reviews ReviewRepository, tx Transactor, blobs BlobStore, recorder Recorder, log *zap.Logger) *ReviewService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{
		parks:    parks,
		reviews:  reviews,
		tx:       tx,
		blobs:    blobs,
		recorder: recorder,
		log:      log,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Submit validates sub and stores it as a new review or as an update of the
// caller's existing one, depending on sub.Kind.
func (s *ReviewService) Submit(ctx context.Context, sub Submission) (*models.Review, error) {
	if sub.AccountID <= 0 {
		return nil, apperrors.Unauthorized("missing account identity")
	}
	normalize(&sub)
	if err := s.check(sub); err != nil {
		return nil, err
	}

	// Writes that already started finish even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	var imageURL *string
	if sub.Image != nil {
		url, err := s.blobs.Put(ctx, sub.Image.Filename, sub.Image.ContentType, sub.Image.Body)
		if err != nil {
			if !errors.Is(err, apperrors.ErrValidation) {
				err = apperrors.Storage("store image", err)
			}
			s.log.Error("image upload failed", zap.Int64("account_id", sub.AccountID), zap.String("park_code", sub.ParkCode), zap.Error(err))
			return nil, err
		}
		imageURL = &url
	}

	var (
		review *models.Review
		err    error
	)
	switch sub.Kind {
	case SubmitUpdate:
		review, err = s.update(ctx, sub, imageURL)
	default:
		review, err = s.create(ctx, sub, imageURL)
	}
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindStorage {
			s.log.Error("review write failed", zap.Stringer("op", sub.Kind), zap.Int64("account_id", sub.AccountID), zap.String("park_code", sub.ParkCode), zap.Error(err))
		}
		return nil, err
	}

	s.recorder.ReviewWritten(sub.Kind.String())
	s.log.Info("review stored", zap.Stringer("op", sub.Kind), zap.Int64("account_id", sub.AccountID), zap.String("park_code", sub.ParkCode), zap.Int64("review_id", review.ID))
	return review, nil
}

func normalize(sub *Submission) {
	sub.ParkCode = strings.TrimSpace(sub.ParkCode)
	sub.StateCode = strings.TrimSpace(sub.StateCode)
	sub.Tips = strings.TrimSpace(sub.Tips)
	if sub.GeneralThoughts != nil && strings.TrimSpace(*sub.GeneralThoughts) == "" {
		sub.GeneralThoughts = nil
	}
	if sub.RecommendedActivities != nil {
		sub.RecommendedActivities = models.SplitSet(strings.Join(sub.RecommendedActivities, ","))
	}
	if sub.RecommendedVisitors != nil {
		sub.RecommendedVisitors = models.SplitSet(strings.Join(sub.RecommendedVisitors, ","))
	}
}

// check reports every missing or malformed field in one validation error,
// then the ordering of the visit dates.
func (s *ReviewService) check(sub Submission) error {
	fields := map[string]string{}

	if err := s.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.Invalid("review", err.Error())
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	if sub.StartDate.IsZero() || sub.EndDate.IsZero() {
		fields["datesVisited"] = "datesVisited is required"
	}

	if sub.Kind == SubmitCreate {
		if sub.StateCode == "" {
			fields["stateCode"] = "stateCode is required"
		}
		if len(sub.ParkDetails) == 0 {
			fields["parkDetails"] = "parkDetails is required"
		} else if !json.Valid(sub.ParkDetails) {
			fields["parkDetails"] = "parkDetails must be a JSON document"
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}

	if sub.EndDate.Before(sub.StartDate) {
		return apperrors.Invalid("datesVisited", "end date before start date")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "required":
		return fe.Field() + " is required"
	case fe.Kind() == reflect.Slice:
		return fe.Field() + " must name at least one entry"
	case fe.Field() == "rating":
		return "rating must be between 1 and 5"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func (s *ReviewService) create(ctx context.Context, sub Submission, imageURL *string) (*models.Review, error) {
	park := models.ParkCache{ParkCode: sub.ParkCode, Details: sub.ParkDetails, StateCode: sub.StateCode}
	review := models.Review{
		AccountID:             sub.AccountID,
		ParkCode:              sub.ParkCode,
		Rating:                *sub.Rating,
		DatesVisited:          models.DateRange{Start: sub.StartDate, End: sub.EndDate},
		RecommendedActivities: sub.RecommendedActivities,
		RecommendedVisitors:   sub.RecommendedVisitors,
		Tips:                  sub.Tips,
		GeneralThoughts:       sub.GeneralThoughts,
		ImageURL:              imageURL,
	}

	var (
		created  *models.Review
		inserted bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if inserted, err = s.parks.EnsureCached(ctx, park); err != nil {
			return err
		}
		created, err = s.reviews.Create(ctx, review)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		s.recorder.ParkCached()
	}
	return created, nil
}

func (s *ReviewService) update(ctx context.Context, sub Submission, imageURL *string) (*models.Review, error) {
	patch := models.ReviewPatch{
		Rating:                *sub.Rating,
		DatesVisited:          models.DateRange{Start: sub.StartDate, End: sub.EndDate},
		RecommendedActivities: sub.RecommendedActivities,
		RecommendedVisitors:   sub.RecommendedVisitors,
		Tips:                  sub.Tips,
		GeneralThoughts:       sub.GeneralThoughts,
		ImageURL:              imageURL,
	}
	return s.reviews.UpdateByAccountAndPark(ctx, sub.AccountID, sub.ParkCode, patch)
}

// ForEdit returns the caller's review of parkCode in edit form shape,
// or nil when the caller has not reviewed the park.
func (s *ReviewService) ForEdit(ctx context.Context, accountID int64, parkCode string) (*models.ReviewForm, error) {
	found, err := s.reviews.FindByAccountAndPark(ctx, accountID, parkCode)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	form := found[0].ToForm()
	return &form, nil
}

// ListByState returns the caller's reviews of parks in stateCode, newest first.
func (s *ReviewService) ListByState(ctx context.Context, accountID int64, stateCode string) ([]models.ReviewWithPark, error) {
	return s.reviews.ListByStateForAccount(ctx, accountID, strings.TrimSpace(stateCode))
}

// Delete removes the caller's review of parkCode. It returns nil when there was none.
func (s *ReviewService) Delete(ctx context.Context, accountID int64, parkCode string) (*models.Review, error) {
	deleted, err := s.reviews.DeleteByAccountAndPark(context.WithoutCancel(ctx), accountID, parkCode)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.recorder.ReviewWritten("delete")
	return deleted, nil
}
