package books

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
)

// bookID reads {id} from the path. Anything that is not a uuid cannot name a
// book, so it is a 404 rather than a database round trip.
func bookID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		apperr.NotFound(w, r, "book not found")
		return "", false
	}
	return id.String(), true
}
