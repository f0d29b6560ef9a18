// Package userbookstest provides an in-memory userbooks.Store for tests.
package userbookstest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

type Memory struct {
	mu    sync.Mutex
	books map[string]models.Book
	now   func() time.Time

	// Fetches counts FetchForOwner calls.
	Fetches int
}

func NewMemory(seed ...models.Book) *Memory {
	m := &Memory{books: map[string]models.Book{}, now: time.Now}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		m.books[b.ID] = b
	}
	return m
}

func (m *Memory) FetchForOwner(_ context.Context, ownerID string) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fetches++
	out := []models.Book{}
	for _, b := range m.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.Book) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) Get(_ context.Context, ownerID, id string) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.OwnerID != ownerID {
		return models.Book{}, userbooks.ErrNotFound
	}
	return b, nil
}

func (m *Memory) Create(_ context.Context, b models.Book) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.NewString()
	b.CreatedAt = m.now().UTC()
	m.books[b.ID] = b
	return b.ID, nil
}

func (m *Memory) Update(_ context.Context, ownerID, id string, p userbooks.Patch) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.OwnerID != ownerID {
		return models.Book{}, userbooks.ErrNotFound
	}
	b = p.Apply(b)
	m.books[id] = b
	return b, nil
}

func (m *Memory) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.OwnerID != ownerID {
		return userbooks.ErrNotFound
	}
	delete(m.books, id)
	return nil
}
