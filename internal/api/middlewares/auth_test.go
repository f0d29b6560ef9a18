package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/5w1tchy/shelf-api/internal/api/middlewares"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
)

type versions map[string]int

func (v versions) TokenVersion(_ context.Context, id string) (int, error) {
	tv, ok := v[id]
	if !ok {
		return 0, errors.New("not found")
	}
	return tv, nil
}

func TestRequireAuth(t *testing.T) {
	jwt := jwtutil.NewManager(jwtutil.Config{Secret: []byte(strings.Repeat("s", 32)), Issuer: "shelf-api"})
	store := versions{"user-1": 2}

	current, _, err := jwt.SignAccess("user-1", 2)
	require.NoError(t, err)
	stale, _, err := jwt.SignAccess("user-1", 1)
	require.NoError(t, err)
	ghost, _, err := jwt.SignAccess("ghost", 1)
	require.NoError(t, err)

	var seen string
	h := mw.RequireAuth(jwt, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = mw.UserIDFrom(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"revoked", "Bearer " + stale, http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, http.StatusUnauthorized},
		{"ok", "bearer " + current, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("GET", "/books", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "user-1", seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}
