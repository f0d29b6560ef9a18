package sqlconnect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/5w1tchy/shelf-api/internal/logging"
)

var ErrNoDSN = errors.New("DATABASE_URL not set")

// Pool holds database/sql pool limits.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// PoolFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_IDLE_TIME
// and DB_CONN_MAX_LIFETIME. Missing or malformed values keep the defaults.
func PoolFromEnv() Pool {
	return Pool{
		MaxOpen:     envInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdle:     envInt("DB_MAX_IDLE_CONNS", 10),
		MaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		MaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func ConnectDB(ctx context.Context) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := PoolFromEnv()
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
	db.SetConnMaxLifetime(p.MaxLifetime)
	logging.Info("[db] connected", "max_open", p.MaxOpen, "max_idle", p.MaxIdle)
	return db, nil
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && d > 0 {
		return d
	}
	return def
}
