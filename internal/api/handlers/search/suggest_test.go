package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks/userbookstest"
)

type response struct {
	Count int                  `json:"count"`
	Data  []library.Suggestion `json:"data"`
}

func serve(t *testing.T, target, owner string) (int, response) {
	t.Helper()
	store := userbookstest.NewMemory(
		models.Book{ID: "a", OwnerID: "me", Title: "Dune Messiah", Author: "Frank Herbert", Status: models.StatusRead},
		models.Book{ID: "b", OwnerID: "me", Title: "Dune", Author: "Frank Herbert", Status: models.StatusRead},
		models.Book{ID: "c", OwnerID: "them", Title: "Dune Road", Author: "Someone Else", Status: models.StatusRead},
	)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if owner != "" {
		req = req.WithContext(middlewares.WithUserID(req.Context(), owner))
	}
	rr := httptest.NewRecorder()
	Suggest(store)(rr, req)

	var out response
	if rr.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	}
	return rr.Code, out
}

func TestSuggestOwnShelfOnly(t *testing.T) {
	code, out := serve(t, "/books/suggest?q=dune", "me")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "Dune", out.Data[0].Label)
	assert.Equal(t, "Dune Messiah", out.Data[1].Label)
}

func TestSuggestLimitAndShortQuery(t *testing.T) {
	_, out := serve(t, "/books/suggest?q=dune&limit=1", "me")
	assert.Equal(t, 1, out.Count)

	_, out = serve(t, "/books/suggest?q=d", "me")
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Data)
}

func TestSuggestRequiresUser(t *testing.T) {
	code, _ := serve(t, "/books/suggest?q=dune", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}
