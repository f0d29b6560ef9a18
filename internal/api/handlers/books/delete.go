package books

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
)

// DELETE /books/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	b, err := h.Store.Get(r.Context(), ownerID, id)
	if err != nil {
		h.storeError(w, r, err, "Failed to delete book")
		return
	}
	if err := h.Store.Delete(r.Context(), ownerID, id); err != nil {
		h.storeError(w, r, err, "Failed to delete book")
		return
	}
	h.record(ownerID, id, activity.Event{Kind: activity.Deleted, Detail: b.Title})

	if b.CoverURL != nil {
		h.dropCover(r.Context(), *b.CoverURL)
	}

	w.WriteHeader(http.StatusNoContent)
}

// dropCover removes an uploaded cover object. URLs that point elsewhere are left alone.
func (h *Handler) dropCover(ctx context.Context, coverURL string) {
	if h.Covers == nil {
		return
	}
	key, ok := h.Covers.KeyFromURL(coverURL)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Covers.DeleteObject(ctx, key); err != nil {
		logging.Warn("[covers] delete object failed", "key", key, "err", err)
	}
}
