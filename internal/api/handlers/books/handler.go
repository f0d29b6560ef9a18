package books

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/store/criteria"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

// Recorder accepts shelf events; *activity.Queue satisfies it.
type Recorder interface {
	Enqueue(ev activity.Event) bool
}

// CoverStorage is the object store behind cover uploads.
type CoverStorage interface {
	PutCover(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
	KeyFromURL(url string) (string, bool)
}

type Handler struct {
	Store    userbooks.Store
	Criteria *criteria.Store
	Events   Recorder
	Covers   CoverStorage // nil when uploads are not configured
}

func New(store userbooks.Store, crit *criteria.Store, events Recorder, covers CoverStorage) *Handler {
	return &Handler{Store: store, Criteria: crit, Events: events, Covers: covers}
}

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	}
	return id, ok
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apperr.WriteStatus(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "request body too large")
			return false
		}
		apperr.BadRequest(w, r, "invalid JSON")
		return false
	}
	return true
}

// invalid writes validator failures as a problem. It returns false when errs is empty.
func invalid(w http.ResponseWriter, r *http.Request, errs []validate.FieldError) bool {
	if len(errs) == 0 {
		return false
	}
	out := make([]apperr.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, apperr.FieldError{Field: e.Field, Code: e.Code, Message: e.Message})
	}
	apperr.Invalid(w, r, out)
	return true
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, title string) {
	if errors.Is(err, userbooks.ErrNotFound) {
		apperr.NotFound(w, r, "book not found")
		return
	}
	logging.Error("[books] store call failed", "path", r.URL.Path, "request_id", middlewares.GetRequestID(r), "err", err)
	apperr.HandleDBError(w, r, err, title)
}

func (h *Handler) record(ownerID, bookID string, evs ...activity.Event) {
	if h.Events == nil {
		return
	}
	for _, ev := range evs {
		ev.OwnerID = ownerID
		ev.BookID = bookID
		if !h.Events.Enqueue(ev) {
			logging.Debug("[activity] event dropped", "kind", ev.Kind, "book_id", bookID)
		}
	}
}
