package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
)

func TestMain(m *testing.M) {
	// Cheap argon2 params; the policy is read lazily on first hash.
	os.Setenv("ARGON2_MEMORY", "8192")
	os.Setenv("ARGON2_ITER", "1")
	os.Exit(m.Run())
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]User
	next  int
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]User{}} }

func (s *memUsers) CreateUser(_ context.Context, email, username, hash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return User{}, ErrEmailTaken
		}
	}
	s.next++
	u := User{ID: "u" + string(rune('0'+s.next)), Email: strings.ToLower(email), Username: username,
		PasswordHash: hash, TokenVersion: 1, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u, nil
}

func (s *memUsers) FindUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *memUsers) FindUserByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *memUsers) ReplacePassword(_ context.Context, id, hash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.PasswordHash = hash
	u.TokenVersion++
	s.users[id] = u
	return u.TokenVersion, nil
}

func (s *memUsers) BumpTokenVersion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.TokenVersion++
	s.users[id] = u
	return nil
}

func (s *memUsers) TokenVersion(ctx context.Context, id string) (int, error) {
	u, err := s.FindUserByID(ctx, id)
	return u.TokenVersion, err
}

type memRefresh struct {
	mu     sync.Mutex
	tokens map[string]string
	n      int
}

func (m *memRefresh) Issue(_ context.Context, userID string, tv int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	tok := strings.Repeat("t", m.n)
	m.tokens[tok] = userID + "|" + string(rune('0'+tv))
	return tok, nil
}

func (m *memRefresh) Consume(_ context.Context, tok string) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.tokens[tok]
	if !ok {
		return "", 0, ErrInvalidRefresh
	}
	delete(m.tokens, tok)
	return parseRefreshValue(v)
}

func (m *memRefresh) Revoke(_ context.Context, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tok)
	return nil
}

func newTestHandler() (*Handler, *memUsers) {
	users := newMemUsers()
	jwt := jwtutil.NewManager(jwtutil.Config{Secret: []byte(strings.Repeat("k", 32)), Issuer: "shelf-api"})
	return New(users, &memRefresh{tokens: map[string]string{}}, jwt), users
}

func post(h http.HandlerFunc, body any, userID string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	if userID != "" {
		req = req.WithContext(middlewares.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodePair(t *testing.T, rr *httptest.ResponseRecorder) TokenPair {
	t.Helper()
	var p TokenPair
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestRegisterLoginRefresh(t *testing.T) {
	h, _ := newTestHandler()

	rr := post(h.Register, RegisterRequest{Email: "Reader@Example.com", Username: "reader", Password: "Tr0ub4dor&3-horse"}, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: want 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = post(h.Login, LoginRequest{Email: "reader@example.com", Password: "Tr0ub4dor&3-horse"}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login: want 200, got %d: %s", rr.Code, rr.Body.String())
	}
	pair := decodePair(t, rr)
	claims, err := h.JWT.ParseAccess(pair.AccessToken)
	if err != nil || claims.TokenVersion != 1 {
		t.Fatalf("bad access token: %v %+v", err, claims)
	}

	rr = post(h.Refresh, RefreshRequest{RefreshToken: pair.RefreshToken}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: want 200, got %d", rr.Code)
	}
	rotated := decodePair(t, rr)
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	rr = post(h.Refresh, RefreshRequest{RefreshToken: pair.RefreshToken}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh: want 401, got %d", rr.Code)
	}
}

func TestRegisterRejects(t *testing.T) {
	h, _ := newTestHandler()
	cases := []struct {
		name string
		req  RegisterRequest
		want int
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "long-enough-pw"}, http.StatusBadRequest},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}, http.StatusBadRequest},
		{"short username", RegisterRequest{Email: "a@example.com", Username: "ab", Password: "long-enough-pw"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := post(h.Register, tc.req, ""); rr.Code != tc.want {
				t.Fatalf("want %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}

	ok := RegisterRequest{Email: "dup@example.com", Password: "long-enough-pw"}
	if rr := post(h.Register, ok, ""); rr.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rr.Code)
	}
	if rr := post(h.Register, ok, ""); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: want 409, got %d", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newTestHandler()
	post(h.Register, RegisterRequest{Email: "a@example.com", Password: "long-enough-pw"}, "")

	rr := post(h.Login, LoginRequest{Email: "a@example.com", Password: "not-the-password"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rr.Code)
	}
	rr = post(h.Login, LoginRequest{Email: "ghost@example.com", Password: "whatever-pw"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: want 401, got %d", rr.Code)
	}
}

func TestLogoutAllRevokesRefresh(t *testing.T) {
	h, users := newTestHandler()
	rr := post(h.Register, RegisterRequest{Email: "a@example.com", Password: "long-enough-pw"}, "")
	var reg map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&reg)
	refresh := reg["refresh_token"].(string)

	u, _ := users.FindUserByEmail(context.Background(), "a@example.com")
	if rr := post(h.LogoutAll, nil, u.ID); rr.Code != http.StatusOK {
		t.Fatalf("logout-all: %d", rr.Code)
	}
	if rr := post(h.Refresh, RefreshRequest{RefreshToken: refresh}, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("stale refresh after logout-all: want 401, got %d", rr.Code)
	}
}

func TestChangePassword(t *testing.T) {
	h, users := newTestHandler()
	post(h.Register, RegisterRequest{Email: "a@example.com", Password: "long-enough-pw"}, "")
	u, _ := users.FindUserByEmail(context.Background(), "a@example.com")

	rr := post(h.ChangePassword, ChangePasswordRequest{OldPassword: "wrong-password", NewPassword: "another-long-pw"}, u.ID)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("wrong old: want 403, got %d", rr.Code)
	}

	rr = post(h.ChangePassword, ChangePasswordRequest{OldPassword: "long-enough-pw", NewPassword: "another-long-pw"}, u.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("change: want 200, got %d: %s", rr.Code, rr.Body.String())
	}
	pair := decodePair(t, rr)
	claims, err := h.JWT.ParseAccess(pair.AccessToken)
	if err != nil || claims.TokenVersion != 2 {
		t.Fatalf("want tv=2, got %v %+v", err, claims)
	}

	if rr := post(h.Login, LoginRequest{Email: "a@example.com", Password: "another-long-pw"}, ""); rr.Code != http.StatusOK {
		t.Fatalf("login with new password: %d", rr.Code)
	}
}

func TestMeRequiresUser(t *testing.T) {
	h, _ := newTestHandler()
	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rr.Code)
	}
}

func TestParseRefreshValue(t *testing.T) {
	id, tv, err := parseRefreshValue("user-1|4")
	if err != nil || id != "user-1" || tv != 4 {
		t.Fatalf("got %q %d %v", id, tv, err)
	}
	for _, bad := range []string{"", "user-1", "|3", "user-1|x"} {
		if _, _, err := parseRefreshValue(bad); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
}
