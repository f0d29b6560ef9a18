package search

import (
	"net/http"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

const (
	defaultLimit = 10
	maxLimit     = 20
)

// Suggest serves GET /books/suggest?q=: title and author completions drawn
// from the caller's own shelf.
func Suggest(store userbooks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middlewares.UserIDFrom(r.Context())
		if !ok {
			httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if len([]rune(q)) < library.MinSuggestQuery {
			httpx.List(w, []library.Suggestion{})
			return
		}
		limit := validate.ClampLimit(r.URL.Query().Get("limit"), defaultLimit, maxLimit)

		books, err := store.FetchForOwner(r.Context(), ownerID)
		if err != nil {
			logging.Error("[search] fetch failed", "request_id", middlewares.GetRequestID(r), "err", err)
			apperr.HandleDBError(w, r, err, "Failed to search books")
			return
		}

		httpx.List(w, library.Suggest(books, q, limit))
	}
}
