package filters

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/store/criteria"
)

type Handler struct {
	Store *criteria.Store
}

func New(store *criteria.Store) *Handler { return &Handler{Store: store} }

type view struct {
	Criteria      library.Criteria `json:"criteria"`
	Defaults      library.Criteria `json:"defaults"`
	ActiveFilters int              `json:"active_filters"`
}

func viewOf(st *library.State) view {
	return view{Criteria: st.Criteria(), Defaults: st.Defaults(), ActiveFilters: st.ActiveFilterCount()}
}

// Update is the body of PATCH /me/filters. Absent fields keep their value.
type Update struct {
	Status        *string              `json:"status,omitempty"`
	Genre         *string              `json:"genre,omitempty"`
	Rating        *library.RatingRange `json:"rating,omitempty"`
	Pages         *library.PageRange   `json:"pages,omitempty"`
	SortBy        *library.SortField   `json:"sort_by,omitempty"`
	SortOrder     *library.Direction   `json:"sort_order,omitempty"`
	FavoritesOnly *bool                `json:"favorites_only,omitempty"`
	Author        *string              `json:"author,omitempty"`
	Search        *string              `json:"search,omitempty"`
	StatusFirst   *bool                `json:"status_first,omitempty"`
}

// Apply runs the matching setter for each present field. It stops at the
// first rejected value; the caller discards st in that case.
func (u Update) Apply(st *library.State) error {
	cur := st.Criteria()
	steps := []func() error{
		func() error {
			if u.Status == nil {
				return nil
			}
			return st.SetStatus(*u.Status)
		},
		func() error {
			if u.Genre == nil {
				return nil
			}
			return st.SetGenre(*u.Genre)
		},
		func() error {
			if u.Rating == nil {
				return nil
			}
			return st.SetRatingRange(u.Rating.Min, u.Rating.Max)
		},
		func() error {
			if u.Pages == nil {
				return nil
			}
			return st.SetPageRange(u.Pages.Min, u.Pages.Max)
		},
		func() error {
			if u.SortBy == nil && u.SortOrder == nil {
				return nil
			}
			field, dir := cur.SortBy, cur.SortOrder
			if u.SortBy != nil {
				field = *u.SortBy
			}
			if u.SortOrder != nil {
				dir = *u.SortOrder
			}
			return st.SetSort(field, dir)
		},
		func() error {
			if u.FavoritesOnly == nil {
				return nil
			}
			return st.SetFavoritesOnly(*u.FavoritesOnly)
		},
		func() error {
			if u.Author == nil {
				return nil
			}
			return st.SetAuthor(*u.Author)
		},
		func() error {
			if u.Search == nil {
				return nil
			}
			return st.SetSearch(*u.Search)
		},
		func() error {
			if u.StatusFirst == nil {
				return nil
			}
			return st.SetStatusFirst(*u.StatusFirst)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// GET /me/filters
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	httpx.OK(w, viewOf(h.Store.Load(r.Context(), ownerID)))
}

// PATCH /me/filters
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	var u Update
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		apperr.BadRequest(w, r, "invalid JSON")
		return
	}

	st := h.Store.Load(r.Context(), ownerID)
	if err := u.Apply(st); err != nil {
		if errors.Is(err, library.ErrInvalidCriteria) {
			apperr.BadRequest(w, r, err.Error())
			return
		}
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	h.save(w, r, ownerID, st)
}

// POST /me/filters/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	st := h.Store.Load(r.Context(), ownerID)
	st.Reset()
	h.save(w, r, ownerID, st)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, ownerID string, st *library.State) {
	if err := h.Store.Save(r.Context(), ownerID, st); err != nil {
		logging.Error("[criteria] save failed", "owner", ownerID, "err", err)
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "could not save filters")
		return
	}
	httpx.OK(w, viewOf(st))
}
