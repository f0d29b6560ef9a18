package activity

import (
	"database/sql"
	"net/http"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/logging"
	events "github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

// Recent: GET /me/activity?limit=N
func Recent(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.UserIDFrom(r.Context())
		if !ok {
			httpx.ErrorJSON(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		limit := validate.ClampLimit(r.URL.Query().Get("limit"), events.DefaultRecent, events.MaxRecent)

		items, err := events.Recent(r.Context(), db, userID, limit)
		if err != nil {
			logging.Error("[activity] recent failed", "user_id", userID, "err", err)
			apperr.HandleDBError(w, r, err, "Failed to load activity")
			return
		}
		httpx.List(w, items)
	})
}
