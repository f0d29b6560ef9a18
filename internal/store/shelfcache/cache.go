package shelfcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

const (
	defaultTTL     = 2 * time.Hour
	defaultTimeout = 150 * time.Millisecond
)

// Cache keeps each owner's record list in Redis under a per-owner version:
//
//	shelf:{owner}:ver           -> n
//	shelf:{owner}:v{n}:books    -> JSON []models.Book
//
// Writes bump the version so stale lists are never read again and expire on
// their own. Every Redis failure falls back to the database.
type Cache struct {
	rdb     *redis.Client
	enabled bool
	ttl     time.Duration
	shortTO time.Duration
	warned  atomic.Bool
}

// New reads SHELF_DISABLE_CACHE, SHELF_CACHE_TTL (seconds) and
// SHELF_CACHE_TIMEOUT_MS. A nil client yields a disabled cache.
func New(rdb *redis.Client) *Cache {
	if rdb == nil || os.Getenv("SHELF_DISABLE_CACHE") == "1" {
		return &Cache{}
	}
	ttl := defaultTTL
	if v := os.Getenv("SHELF_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}
	return &Cache{rdb: rdb, enabled: true, ttl: ttl, shortTO: opTimeout()}
}

func opTimeout() time.Duration {
	if v := os.Getenv("SHELF_CACHE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultTimeout
}

func (c *Cache) Enabled() bool { return c.enabled }

func versionKey(owner string) string { return "shelf:" + owner + ":ver" }

func listKey(owner string, ver int64) string {
	return fmt.Sprintf("shelf:%s:v%d:books", owner, ver)
}

// version reads the owner's list version. A missing key is version 0, so
// the first INCR moves readers off it.
func (c *Cache) version(ctx context.Context, owner string) (int64, error) {
	ver, err := c.rdb.Get(ctx, versionKey(owner)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// Get returns the cached list for owner. On a miss, ver is the version the
// caller must hand to Set; ok is false on miss or failure and ver is -1 when
// the version itself could not be read.
func (c *Cache) Get(ctx context.Context, owner string) (books []models.Book, ver int64, ok bool) {
	if !c.enabled {
		return nil, -1, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	ver, err := c.version(ctx, owner)
	if err != nil {
		c.warnOnce("cache version read failed", err)
		return nil, -1, false
	}
	raw, err := c.rdb.Get(ctx, listKey(owner, ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ver, false
	}
	if err != nil {
		c.warnOnce("cache get failed", err)
		return nil, ver, false
	}
	if err := json.Unmarshal(raw, &books); err != nil {
		c.warnOnce("cache payload corrupt", err)
		return nil, ver, false
	}
	c.warned.Store(false)
	if books == nil {
		books = []models.Book{}
	}
	return books, ver, true
}

// Set stores books under ver, the version seen by the Get that missed. A
// write that bumped the version in between leaves the list orphaned under
// the old key, where it expires unread.
func (c *Cache) Set(ctx context.Context, owner string, ver int64, books []models.Book) {
	if !c.enabled || ver < 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	b, err := json.Marshal(books)
	if err != nil {
		return
	}
	if err := c.rdb.SetEx(ctx, listKey(owner, ver), b, c.ttl).Err(); err != nil {
		c.warnOnce("cache set failed", err)
	}
}

// Bump invalidates the owner's cached list. Call after a committed write.
// When INCR fails (e.g. a corrupt version value) the version is reset to a
// fresh, never used number instead.
func (c *Cache) Bump(ctx context.Context, owner string) error {
	if !c.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.shortTO)
	defer cancel()
	err := c.rdb.Incr(ctx, versionKey(owner)).Err()
	if err == nil {
		return nil
	}
	if rerr := c.rdb.Set(ctx, versionKey(owner), time.Now().UnixNano(), 0).Err(); rerr != nil {
		return fmt.Errorf("bump shelf version: %w", errors.Join(err, rerr))
	}
	logging.Warn("[shelfcache] version reset after failed bump", "owner", owner, "err", err)
	return nil
}

// warnOnce logs the first failure of a streak; a successful read re-arms it.
func (c *Cache) warnOnce(msg string, err error) {
	if c.warned.Swap(true) {
		return
	}
	logging.Warn("[shelfcache] "+msg+"; bypassing cache", "err", err)
}

// Store puts the cache in front of a userbooks.Store.
type Store struct {
	userbooks.Store
	cache *Cache
}

func Wrap(inner userbooks.Store, c *Cache) *Store {
	return &Store{Store: inner, cache: c}
}

func (s *Store) FetchForOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	books, ver, ok := s.cache.Get(ctx, ownerID)
	if ok {
		return books, nil
	}
	books, err := s.Store.FetchForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ownerID, ver, books)
	return books, nil
}

func (s *Store) Create(ctx context.Context, b models.Book) (string, error) {
	id, err := s.Store.Create(ctx, b)
	if err == nil {
		s.bump(ctx, b.OwnerID)
	}
	return id, err
}

func (s *Store) Update(ctx context.Context, ownerID, id string, p userbooks.Patch) (models.Book, error) {
	b, err := s.Store.Update(ctx, ownerID, id, p)
	if err == nil {
		s.bump(ctx, ownerID)
	}
	return b, err
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	err := s.Store.Delete(ctx, ownerID, id)
	if err == nil {
		s.bump(ctx, ownerID)
	}
	return err
}

func (s *Store) bump(ctx context.Context, owner string) {
	if err := s.cache.Bump(ctx, owner); err != nil {
		logging.Warn("[shelfcache] invalidate failed", "owner", owner, "err", err)
	}
}
