package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	mw "github.com/5w1tchy/shelf-api/internal/api/middlewares"
)

func TestCors_AllowedOrigin(t *testing.T) {
	h := mw.Cors([]string{"https://shelf.example"})(okHandler())

	req := httptest.NewRequest("GET", "/books", nil)
	req.Header.Set("Origin", "https://shelf.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shelf.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCors_BlockedOrigin(t *testing.T) {
	h := mw.Cors([]string{"https://shelf.example"})(okHandler())

	req := httptest.NewRequest("GET", "/books", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCors_NoOriginPassesThrough(t *testing.T) {
	h := mw.Cors([]string{"https://shelf.example"})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/books", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_Preflight(t *testing.T) {
	h := mw.Cors([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/books", nil)
	req.Header.Set("Origin", "https://anything.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example/ , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, mw.OriginsFromEnv())

	t.Setenv("CORS_ORIGINS", "")
	assert.NotEmpty(t, mw.OriginsFromEnv())
}
