package books

import (
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
)

// GET /books/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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
		h.storeError(w, r, err, "Failed to load book")
		return
	}
	httpx.OK(w, b)
}
