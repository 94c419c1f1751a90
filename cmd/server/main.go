// Package main initializes and starts the ParkPassport API server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/ParkPassport/internal/blobstore"
	"github.com/atinyakov/ParkPassport/internal/config"
	"github.com/atinyakov/ParkPassport/internal/db"
	"github.com/atinyakov/ParkPassport/internal/logger"
	"github.com/atinyakov/ParkPassport/internal/metrics"
	"github.com/atinyakov/ParkPassport/internal/middleware"
	"github.com/atinyakov/ParkPassport/internal/repository"
	"github.com/atinyakov/ParkPassport/internal/server/handler/http"
	"github.com/atinyakov/ParkPassport/internal/service"
	"github.com/atinyakov/ParkPassport/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	blobs, err := blobstore.NewLocalStore(options.UploadDir, options.PublicImageURL, blobstore.DefaultMaxEdge)
	if err != nil {
		zapLogger.Fatal("cannot init upload dir", zap.Error(err))
	}

	var limiter middleware.Counter
	if options.RedisAddr != "" {
		redisClient, err := db.NewRedis(options.RedisAddr)
		if err != nil {
			zapLogger.Fatal("cannot init redis", zap.Error(err))
		}
		defer redisClient.Close()
		limiter = redisClient
	}

	m := metrics.New()
	tokens := token.NewManager(options.TokenSecret, options.TokenTTL)

	// Initialize repositories.
	tx := repository.NewTransactor(postgresDB)
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	parkRepo := repository.NewPostgresParkCacheRepository(postgresDB)
	reviewRepo := repository.NewPostgresReviewRepository(postgresDB)
	statsRepo := repository.NewPostgresStatsRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, tokens)
	reviewService := service.NewReviewService(parkRepo, reviewRepo, tx, blobs, m, zapLogger)
	statsService := service.NewStatsService(parkRepo, statsRepo, tx)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:     &http.AuthHandler{AuthService: authService},
		Reviews:  &http.ReviewHandler{ReviewService: reviewService, MaxUploadBytes: options.MaxUploadBytes},
		Parks:    &http.ParkHandler{RatingService: statsService},
		Accounts: &http.AccountHandler{SummaryService: statsService},
		Health:   &http.HealthHandler{DB: postgresDB},
	}, http.RouterOptions{
		Logger:          zapLogger,
		Metrics:         m,
		Tokens:          tokens,
		Limiter:         limiter,
		WritesPerMinute: options.WritesPerMinute,
		CORSOrigins:     options.CORSOrigins,
		ImageDir:        blobs.Dir(),
		ImageURL:        options.PublicImageURL,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSCert != "" && options.TLSKey != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
