package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/response"
	"go.uber.org/zap"
)

const rateWindow = time.Minute

// Counter increments a windowed counter.
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// RateLimit limits each authenticated account to perMinute requests per
// minute. It must run after TokenAuth. Counter failures let the request through.
func RateLimit(counter Counter, perMinute int, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := GetAccountIDFromContext(r.Context())
			if accountID == 0 || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			count, err := counter.IncrWithExpire(r.Context(), fmt.Sprintf("ratelimit:reviews:%d", accountID), rateWindow)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Int64("account_id", accountID), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			remaining := max(perMinute-int(count), 0)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if int(count) > perMinute {
				w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
				response.Error(w, apperrors.RateLimited("too many review writes, retry later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
