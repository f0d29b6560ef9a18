package books

import (
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

// PATCH /books/{id} changes only the fields present in the body.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	var p userbooks.Patch
	if !decode(w, r, &p) {
		return
	}
	validate.NormalizePatch(&p)
	if invalid(w, r, validate.Struct(p)) {
		return
	}
	h.update(w, r, ownerID, id, p)
}

// PUT /books/{id} replaces every mutable field.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
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
	h.update(w, r, ownerID, id, in.Patch())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, ownerID, id string, p userbooks.Patch) {
	cur, err := h.Store.Get(r.Context(), ownerID, id)
	if err != nil {
		h.storeError(w, r, err, "Failed to update book")
		return
	}
	b, err := h.Store.Update(r.Context(), ownerID, id, p)
	if err != nil {
		h.storeError(w, r, err, "Failed to update book")
		return
	}
	if diff := changed(cur, p); !diff.Empty() {
		h.record(ownerID, id, activity.KindsFor(diff)...)
		if diff.CoverURL != nil && cur.CoverURL != nil {
			h.dropCover(r.Context(), *cur.CoverURL)
		}
	}
	httpx.OK(w, b)
}

// changed drops the fields of p that already hold their current value.
func changed(cur models.Book, p userbooks.Patch) userbooks.Patch {
	if p.Title != nil && *p.Title == cur.Title {
		p.Title = nil
	}
	if p.Author != nil && *p.Author == cur.Author {
		p.Author = nil
	}
	if p.Genre != nil && *p.Genre == cur.Genre {
		p.Genre = nil
	}
	if p.OverallPages != nil && *p.OverallPages == cur.OverallPages {
		p.OverallPages = nil
	}
	if p.ReadPages != nil && *p.ReadPages == cur.ReadPages {
		p.ReadPages = nil
	}
	if p.Status != nil && *p.Status == cur.Status {
		p.Status = nil
	}
	if p.Rating != nil && *p.Rating == cur.Rating {
		p.Rating = nil
	}
	if p.Favorite != nil && *p.Favorite == cur.Favorite {
		p.Favorite = nil
	}
	if p.CoverURL != nil {
		old := ""
		if cur.CoverURL != nil {
			old = *cur.CoverURL
		}
		if *p.CoverURL == old {
			p.CoverURL = nil
		}
	}
	return p
}
