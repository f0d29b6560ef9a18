package books

import (
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

// POST /books
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var in validate.BookInput
	if !decode(w, r, &in) {
		return
	}
	in.Normalize()
	if invalid(w, r, validate.Struct(in)) {
		return
	}

	id, err := h.Store.Create(r.Context(), in.Book(ownerID))
	if err != nil {
		h.storeError(w, r, err, "Failed to create book")
		return
	}
	b, err := h.Store.Get(r.Context(), ownerID, id)
	if err != nil {
		h.storeError(w, r, err, "Failed to load book")
		return
	}
	h.record(ownerID, id, activity.Event{Kind: activity.Created, Detail: b.Title})

	httpx.Created(w, "/books/"+id, b)
}
