package books

import (
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/library"
)

// GET /books/stats summarizes every record of the caller. Saved filters do
// not apply.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	records, err := h.Store.FetchForOwner(r.Context(), ownerID)
	if err != nil {
		h.storeError(w, r, err, "Failed to compute stats")
		return
	}
	httpx.OK(w, library.ComputeStats(records))
}
