package http

import (
	"net/http"
	"os"
	"strings"

	"github.com/atinyakov/ParkPassport/internal/metrics"
	"github.com/atinyakov/ParkPassport/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Reviews  *ReviewHandler
	Parks    *ParkHandler
	Accounts *AccountHandler
	Health   *HealthHandler
}

// RouterOptions configures the middleware chain of NewRouter.
type RouterOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Tokens  middleware.TokenVerifier

	// Limiter enables per-account rate limiting of review writes when set.
	Limiter         middleware.Counter
	WritesPerMinute int

	CORSOrigins []string

	// ImageDir is served under ImageURL when ImageURL is a local path.
	ImageDir string
	ImageURL string
}

// NewRouter constructs and returns an HTTP handler that serves
// the ParkPassport API.
//
// Routes:
//
//	GET    /healthz                        → Health.Health
//	GET    /metrics                        → Prometheus exposition
//	GET    /images/*                       → uploaded review images
//	GET    /api/parks-cache/{parkCode}     → Parks.Rating
//	POST   /api/auth/sign-up               → Auth.SignUp
//	POST   /api/auth/sign-in               → Auth.SignIn
//	GET    /api/accounts/me/visit-summary  → Accounts.VisitSummary (token)
//	POST   /api/reviews                    → Reviews.Create (token, rate limited)
//	PUT    /api/reviews                    → Reviews.Update (token, rate limited)
//	GET    /api/reviews/{stateCode}        → Reviews.ListByState (token)
//	GET    /api/reviews/edit/{parkCode}    → Reviews.ForEdit (token)
//	DELETE /api/reviews/{parkCode}         → Reviews.Delete (token, rate limited)
func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", h.Health.Health)

	if opts.ImageDir != "" && strings.HasPrefix(opts.ImageURL, "/") {
		prefix := strings.TrimSuffix(opts.ImageURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(opts.ImageDir)})))
	}

	writeLimit := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		writeLimit = middleware.RateLimit(opts.Limiter, opts.WritesPerMinute, logger)
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/parks-cache/{parkCode}", h.Parks.Rating)
		r.Route("/auth", func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/sign-up", h.Auth.SignUp)
			r.Post("/sign-in", h.Auth.SignIn)
		})

		// Protected group: requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(opts.Tokens))

			r.Get("/accounts/me/visit-summary", h.Accounts.VisitSummary)

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/edit/{parkCode}", h.Reviews.ForEdit)
				r.Get("/{stateCode}", h.Reviews.ListByState)

				r.Group(func(r chi.Router) {
					r.Use(writeLimit)
					r.Post("/", h.Reviews.Create)
					r.Put("/", h.Reviews.Update)
					r.Delete("/{parkCode}", h.Reviews.Delete)
				})
			})
		})
	})

	return r
}

// filesOnly hides directories so the image tree cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
