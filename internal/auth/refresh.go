package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidRefresh = errors.New("invalid refresh token")

// RefreshStore is the refresh-token allowlist.
type RefreshStore interface {
	Issue(ctx context.Context, userID string, tokenVersion int) (string, error)
	// Consume removes token and returns what it was issued for.
	Consume(ctx context.Context, token string) (userID string, tokenVersion int, err error)
	Revoke(ctx context.Context, token string) error
}

// RedisRefresh keeps "rt:{token}" -> "userID|tokenVersion" with a TTL.
type RedisRefresh struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewRedisRefresh(rdb *redis.Client) *RedisRefresh {
	return &RedisRefresh{RDB: rdb, TTL: refreshTTL()}
}

func refreshKey(token string) string { return "rt:" + token }

func (s *RedisRefresh) Issue(ctx context.Context, userID string, tokenVersion int) (string, error) {
	if s.RDB == nil {
		return "", errors.New("redis not configured")
	}
	token, err := randToken()
	if err != nil {
		return "", err
	}
	val := userID + "|" + strconv.Itoa(tokenVersion)
	if err := s.RDB.Set(ctx, refreshKey(token), val, s.TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Consume uses GETDEL so a token can be rotated exactly once.
func (s *RedisRefresh) Consume(ctx context.Context, token string) (string, int, error) {
	if s.RDB == nil || token == "" {
		return "", 0, ErrInvalidRefresh
	}
	val, err := s.RDB.GetDel(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, ErrInvalidRefresh
	}
	if err != nil {
		return "", 0, err
	}
	return parseRefreshValue(val)
}

func (s *RedisRefresh) Revoke(ctx context.Context, token string) error {
	if s.RDB == nil || token == "" {
		return nil
	}
	return s.RDB.Del(ctx, refreshKey(token)).Err()
}

func parseRefreshValue(val string) (string, int, error) {
	userID, ver, ok := strings.Cut(val, "|")
	if !ok || userID == "" {
		return "", 0, ErrInvalidRefresh
	}
	tv, err := strconv.Atoi(ver)
	if err != nil {
		return "", 0, ErrInvalidRefresh
	}
	return userID, tv, nil
}

// refreshTTL returns the refresh token TTL from environment or default 30 days
func refreshTTL() time.Duration {
	if s := os.Getenv("AUTH_REFRESH_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return 30 * 24 * time.Hour
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
