package activity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

type Kind string

const (
	Created       Kind = "created"
	Updated       Kind = "updated"
	StatusChanged Kind = "status_changed"
	Rated         Kind = "rated"
	Favorited     Kind = "favorited"
	Unfavorited   Kind = "unfavorited"
	CoverChanged  Kind = "cover_changed"
	Deleted       Kind = "deleted"
)

// Event is one change to a user's shelf. Detail is a short free-form value
// (new status, new rating) and may be empty.
type Event struct {
	OwnerID   string    `json:"-"`
	BookID    string    `json:"book_id"`
	Kind      Kind      `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KindsFor maps a patch onto the events it produces. Edits that touch none
// of the tracked fields yield a single Updated.
func KindsFor(p userbooks.Patch) []Event {
	var out []Event
	if p.Status != nil {
		out = append(out, Event{Kind: StatusChanged, Detail: string(*p.Status)})
	}
	if p.Rating != nil {
		out = append(out, Event{Kind: Rated, Detail: fmt.Sprintf("%.1f", *p.Rating)})
	}
	if p.Favorite != nil {
		k := Unfavorited
		if *p.Favorite {
			k = Favorited
		}
		out = append(out, Event{Kind: k})
	}
	if p.CoverURL != nil {
		out = append(out, Event{Kind: CoverChanged})
	}
	if len(out) == 0 {
		out = append(out, Event{Kind: Updated})
	}
	return out
}

const (
	batchSize  = 100
	flushEvery = 250 * time.Millisecond
	writeTO    = 500 * time.Millisecond
	insertTmpl = `INSERT INTO book_events (owner_id, book_id, kind, detail, created_at) VALUES %s`
)

// Queue batches events into book_events from a buffered channel. Enqueue
// never blocks; when the buffer is full the event is dropped.
type Queue struct {
	db         *sql.DB
	ch         chan Event
	done       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
	flushEvery time.Duration
}

// Start spins up workers draining a buffer of size buf.
// Suggested: buf=10000, workers=2.
func Start(db *sql.DB, buf, workers int) *Queue {
	return start(db, buf, workers, flushEvery)
}

func start(db *sql.DB, buf, workers int, every time.Duration) *Queue {
	q := &Queue{
		db:         db,
		ch:         make(chan Event, buf),
		done:       make(chan struct{}),
		flushEvery: every,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue reports whether ev was accepted. A nil queue accepts nothing.
func (q *Queue) Enqueue(ev Event) bool {
	if q == nil || ev.OwnerID == "" || ev.BookID == "" || ev.Kind == "" {
		return false
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	select {
	case q.ch <- ev:
		return true
	default:
		return false
	}
}

// Shutdown stops the workers after they flush what is buffered.
func (q *Queue) Shutdown() {
	if q == nil {
		return
	}
	q.stopOnce.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	tk := time.NewTicker(q.flushEvery)
	defer tk.Stop()

	batch := make([]Event, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := q.insertBatch(batch); err != nil {
			logging.Warn("[activity] batch insert failed; dropping", "events", len(batch), "err", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-q.done:
			for {
				select {
				case ev := <-q.ch:
					batch = append(batch, ev)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case ev := <-q.ch:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-tk.C:
			flush()
		}
	}
}

func (q *Queue) insertBatch(batch []Event) error {
	args := make([]any, 0, len(batch)*5)
	vals := make([]string, 0, len(batch))
	for i, ev := range batch {
		n := 5 * i
		vals = append(vals, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5))
		args = append(args, ev.OwnerID, ev.BookID, string(ev.Kind), ev.Detail, ev.CreatedAt)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTO)
	defer cancel()
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(insertTmpl, strings.Join(vals, ",")), args...)
	return err
}

const (
	DefaultRecent = 50
	MaxRecent     = 200
)

// Recent lists the owner's latest events, newest first.
func Recent(ctx context.Context, db *sql.DB, ownerID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}
	rows, err := db.QueryContext(ctx, `
        SELECT book_id::text, kind, detail, created_at
        FROM book_events
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		ev := Event{OwnerID: ownerID}
		var kind string
		if err := rows.Scan(&ev.BookID, &kind, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Kind = Kind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}
