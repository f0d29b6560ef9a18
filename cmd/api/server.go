package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/5w1tchy/shelf-api/internal/api/router"
	"github.com/5w1tchy/shelf-api/internal/auth"
	"github.com/5w1tchy/shelf-api/internal/db"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/maintenance"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
	storage "github.com/5w1tchy/shelf-api/internal/storage/s3"
	"github.com/5w1tchy/shelf-api/internal/store/criteria"
	"github.com/5w1tchy/shelf-api/internal/store/shelfcache"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

func main() {
	_ = godotenv.Load()
	logging.Init(os.Stderr)

	if err := validate.Env(); err != nil {
		logging.Fatal("invalid configuration", "err", err)
	}
	appEnv := os.Getenv("APP_ENV")
	for _, w := range validate.HardeningWarnings(appEnv) {
		logging.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := sqlconnect.ConnectDB(ctx)
	if err != nil {
		logging.Fatal("database connection failed", "err", err)
	}
	defer sqlDB.Close()

	if os.Getenv("AUTO_MIGRATE") == "1" {
		if err := db.Up(ctx, sqlDB); err != nil {
			logging.Fatal("migrations failed", "err", err)
		}
		logging.Info("migrations applied")
	}

	rdb, err := newRedis()
	if err != nil {
		logging.Fatal("redis config", "err", err)
	}
	defer rdb.Close()
	// Fail fast if Redis isn't reachable
	if err := validate.PingRedis(ctx, rdb, 3*time.Second); err != nil {
		logging.Fatal("redis connection failed", "err", err)
	}
	logging.Info("connected to redis")

	jwt := jwtutil.NewManager(jwtutil.LoadConfig())
	users := auth.NewSQLStore(sqlDB)
	shelf := shelfcache.Wrap(userbooks.New(sqlDB), shelfcache.New(rdb))

	events := activity.Start(sqlDB, 10000, 2)

	deps := router.Deps{
		DB:       sqlDB,
		RDB:      rdb,
		JWT:      jwt,
		Auth:     auth.New(users, auth.NewRedisRefresh(rdb), jwt),
		Versions: users,
		Books:    shelf,
		Criteria: criteria.New(rdb, library.DefaultCriteria()),
		Events:   events,
	}
	covers, err := storage.NewFromEnv(ctx)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logging.Info("cover uploads disabled (AWS_BUCKET not set)")
	case err != nil:
		logging.Fatal("object storage", "err", err)
	default:
		deps.Covers = covers
	}

	keepDays, _ := strconv.Atoi(os.Getenv("ACTIVITY_RETENTION_DAYS"))
	maintenance.StartActivityRetention(ctx, sqlDB, keepDays, "03:00", "UTC")

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router.Handler(deps),
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
		logging.Info("server listening", "port", port, "tls", cert != "" && key != "")
		if cert != "" && key != "" {
			errCh <- server.ListenAndServeTLS(cert, key)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server stopped", "err", err)
		}
	case <-ctx.Done():
		logging.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("graceful shutdown failed", "err", err)
	}
	events.Shutdown()
	logging.Info("bye")
}
