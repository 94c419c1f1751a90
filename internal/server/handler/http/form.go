package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/middleware"
	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/atinyakov/ParkPassport/internal/service"
)

// multipartMemory is the part of a submission kept in memory; larger files spill to disk.
const multipartMemory = 1 << 20

// parseSubmission reads a multipart or urlencoded review form.
// The returned cleanup func must be called once the submission is no longer used.
func parseSubmission(r *http.Request, kind service.SubmitKind) (service.Submission, func(), error) {
	cleanup := func() {}
	sub := service.Submission{
		Kind:      kind,
		AccountID: middleware.GetAccountIDFromContext(r.Context()),
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return sub, cleanup, apperrors.Invalid("image", fmt.Sprintf("submission exceeds %d bytes", tooBig.Limit))
		}
		return sub, cleanup, apperrors.Invalid("form", "malformed form data")
	}
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { form.RemoveAll() }
	}

	sub.ParkCode = r.FormValue("parkCode")
	sub.StateCode = r.FormValue("stateCode")
	sub.Tips = r.FormValue("tips")
	sub.RecommendedActivities = models.SplitSet(r.FormValue("recommendedActivities"))
	sub.RecommendedVisitors = models.SplitSet(r.FormValue("recommendedVisitors"))

	if v := r.FormValue("generalThoughts"); v != "" && v != "null" {
		sub.GeneralThoughts = &v
	}
	if v := r.FormValue("parkDetails"); v != "" {
		sub.ParkDetails = []byte(v)
	}

	if v := strings.TrimSpace(r.FormValue("rating")); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			return sub, cleanup, apperrors.Invalid("rating", "rating must be a whole number")
		}
		sub.Rating = &rating
	}

	start, end, err := parseDates(r)
	if err != nil {
		return sub, cleanup, err
	}
	sub.StartDate, sub.EndDate = start, end

	if file, hdr, err := r.FormFile("image"); err == nil {
		sub.Image = &service.Upload{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Body:        file,
		}
		removeAll := cleanup
		cleanup = func() {
			file.Close()
			removeAll()
		}
	}

	return sub, cleanup, nil
}

// parseDates accepts either datesVisited ("YYYY-MM-DD,YYYY-MM-DD", optionally
// bracketed like a range literal) or the startDate and endDate pair.
func parseDates(r *http.Request) (time.Time, time.Time, error) {
	startRaw, endRaw := r.FormValue("startDate"), r.FormValue("endDate")
	if v := strings.Trim(strings.TrimSpace(r.FormValue("datesVisited")), "[]()"); v != "" {
		var ok bool
		startRaw, endRaw, ok = strings.Cut(v, ",")
		if !ok {
			return time.Time{}, time.Time{}, apperrors.Invalid("datesVisited", "datesVisited must hold a start and an end date")
		}
	}

	var dates [2]time.Time
	for i, raw := range []string{startRaw, endRaw} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.Invalid("datesVisited", "dates must use the YYYY-MM-DD format")
		}
		dates[i] = d
	}
	return dates[0], dates[1], nil
}
