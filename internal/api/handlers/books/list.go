package books

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

const maxListLimit = 500

type listResponse struct {
	Status        string           `json:"status"`
	Data          []models.Book    `json:"data"`
	Total         int              `json:"total"`
	Count         int              `json:"count"`
	ActiveFilters int              `json:"active_filters"`
	Criteria      library.Criteria `json:"criteria"`
}

func (h *Handler) state(ctx context.Context, ownerID string) *library.State {
	if h.Criteria == nil {
		return library.NewState(library.DefaultCriteria())
	}
	return h.Criteria.Load(ctx, ownerID)
}

// GET /books
//
// Criteria start from the caller's saved filters; query parameters override
// them for this request only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	st := h.state(r.Context(), ownerID)
	if err := applyQuery(st, r.URL.Query()); err != nil {
		apperr.BadRequest(w, r, err.Error())
		return
	}

	records, err := h.Store.FetchForOwner(r.Context(), ownerID)
	if err != nil {
		h.storeError(w, r, err, "Failed to list books")
		return
	}

	view := st.View(records)
	count := len(view)
	if limit := validate.ClampLimit(r.URL.Query().Get("limit"), 0, maxListLimit); limit > 0 && limit < count {
		view = view[:limit]
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse{
		Status:        "success",
		Data:          view,
		Total:         len(records),
		Count:         count,
		ActiveFilters: st.ActiveFilterCount(),
		Criteria:      st.Criteria(),
	})
}

// applyQuery runs the setters for every override present in q. The first
// rejected value aborts with an error naming the parameter.
func applyQuery(st *library.State, q url.Values) error {
	has := func(k string) bool { return strings.TrimSpace(q.Get(k)) != "" }
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	cur := st.Criteria()

	if has("status") {
		if err := st.SetStatus(get("status")); err != nil {
			return err
		}
	}
	if has("genre") {
		if err := st.SetGenre(get("genre")); err != nil {
			return err
		}
	}
	if has("rating_min") || has("rating_max") {
		lo, hi := cur.Rating.Min, cur.Rating.Max
		var err error
		if has("rating_min") {
			if lo, err = strconv.ParseFloat(get("rating_min"), 64); err != nil {
				return fmt.Errorf("%w: rating_min %q", library.ErrInvalidCriteria, get("rating_min"))
			}
		}
		if has("rating_max") {
			if hi, err = strconv.ParseFloat(get("rating_max"), 64); err != nil {
				return fmt.Errorf("%w: rating_max %q", library.ErrInvalidCriteria, get("rating_max"))
			}
		}
		if err := st.SetRatingRange(lo, hi); err != nil {
			return err
		}
	}
	if has("pages_min") || has("pages_max") {
		lo, hi := cur.Pages.Min, cur.Pages.Max
		var err error
		if has("pages_min") {
			if lo, err = strconv.Atoi(get("pages_min")); err != nil {
				return fmt.Errorf("%w: pages_min %q", library.ErrInvalidCriteria, get("pages_min"))
			}
		}
		if has("pages_max") {
			if hi, err = strconv.Atoi(get("pages_max")); err != nil {
				return fmt.Errorf("%w: pages_max %q", library.ErrInvalidCriteria, get("pages_max"))
			}
		}
		if err := st.SetPageRange(lo, hi); err != nil {
			return err
		}
	}
	if has("favorites") {
		on, err := strconv.ParseBool(get("favorites"))
		if err != nil {
			return fmt.Errorf("%w: favorites %q", library.ErrInvalidCriteria, get("favorites"))
		}
		if err := st.SetFavoritesOnly(on); err != nil {
			return err
		}
	}
	if q.Has("author") {
		if err := st.SetAuthor(get("author")); err != nil {
			return err
		}
	}
	if q.Has("q") {
		if err := st.SetSearch(get("q")); err != nil {
			return err
		}
	}
	if has("sort") || has("order") {
		field, dir := cur.SortBy, cur.SortOrder
		if has("sort") {
			field = library.SortField(strings.ToLower(get("sort")))
		}
		if has("order") {
			dir = library.Direction(strings.ToLower(get("order")))
		}
		if err := st.SetSort(field, dir); err != nil {
			return err
		}
	}
	if has("status_first") {
		on, err := strconv.ParseBool(get("status_first"))
		if err != nil {
			return fmt.Errorf("%w: status_first %q", library.ErrInvalidCriteria, get("status_first"))
		}
		if err := st.SetStatusFirst(on); err != nil {
			return err
		}
	}
	return nil
}
