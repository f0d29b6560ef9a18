package criteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/logging"
)

const shortTO = 200 * time.Millisecond

// Store persists each owner's filter/sort criteria as one JSON value at
// criteria:{owner}. Without Redis it keeps them in process memory.
type Store struct {
	rdb      *redis.Client
	defaults library.Criteria

	mu  sync.Mutex
	mem map[string]library.Criteria
}

func New(rdb *redis.Client, defaults library.Criteria) *Store {
	if err := defaults.Validate(); err != nil {
		defaults = library.DefaultCriteria()
	}
	return &Store{rdb: rdb, defaults: defaults, mem: map[string]library.Criteria{}}
}

func key(owner string) string { return "criteria:" + owner }

// Load returns the owner's state. Missing or unreadable values start from
// the defaults; a Redis outage is logged and also yields the defaults.
func (s *Store) Load(ctx context.Context, owner string) *library.State {
	saved, ok, err := s.read(ctx, owner)
	if err != nil {
		logging.Warn("[criteria] load failed; using defaults", "owner", owner, "err", err)
		return library.NewState(s.defaults)
	}
	if !ok {
		return library.NewState(s.defaults)
	}
	st, err := library.Restore(s.defaults, saved)
	if err != nil {
		logging.Warn("[criteria] stored criteria invalid; using defaults", "owner", owner, "err", err)
		return library.NewState(s.defaults)
	}
	return st
}

func (s *Store) read(ctx context.Context, owner string) (library.Criteria, bool, error) {
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		c, ok := s.mem[owner]
		return c, ok, nil
	}
	ctx, cancel := context.WithTimeout(ctx, shortTO)
	defer cancel()
	raw, err := s.rdb.Get(ctx, key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return library.Criteria{}, false, nil
	}
	if err != nil {
		return library.Criteria{}, false, err
	}
	var c library.Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return library.Criteria{}, false, fmt.Errorf("decode criteria: %w", err)
	}
	return c, true, nil
}

// Save overwrites the owner's stored criteria with st's current value.
func (s *Store) Save(ctx context.Context, owner string, st *library.State) error {
	c := st.Criteria()
	if s.rdb == nil {
		s.mu.Lock()
		s.mem[owner] = c
		s.mu.Unlock()
		return nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, shortTO)
	defer cancel()
	if err := s.rdb.Set(ctx, key(owner), b, 0).Err(); err != nil {
		return fmt.Errorf("save criteria: %w", err)
	}
	return nil
}

// Defaults returns the call-site defaults every new state starts from.
func (s *Store) Defaults() library.Criteria { return s.defaults }
