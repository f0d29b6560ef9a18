package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/logging"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
	"github.com/5w1tchy/shelf-api/internal/security/password"
	"github.com/5w1tchy/shelf-api/internal/validate"
)

type Handler struct {
	Store        UserStore
	RefreshStore RefreshStore
	JWT          *jwtutil.Manager
}

func New(store UserStore, refresh RefreshStore, jwt *jwtutil.Manager) *Handler {
	return &Handler{Store: store, RefreshStore: refresh, JWT: jwt}
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if errs := validate.Struct(req); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":        map[string]string{"code": "invalid_input", "message": "Invalid email or username"},
			"field_errors": errs,
		})
		return
	}

	pw, warn, err := password.Validate(req.Password, req.Email, req.Username)
	if err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "weak_password", "Password must be between 8 and 128 characters")
		return
	}

	hash, err := password.Hash(pw)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "hash_error", "Failed to hash password")
		return
	}

	u, err := h.Store.CreateUser(r.Context(), req.Email, req.Username, hash)
	if errors.Is(err, ErrEmailTaken) {
		httpx.ErrorCode(w, http.StatusConflict, "conflict", "Cannot create user")
		return
	}
	if err != nil {
		logging.Error("[auth] create user failed", "err", err)
		httpx.ErrorCode(w, http.StatusInternalServerError, "db_error", "Cannot create user")
		return
	}

	pair, ok := h.issuePair(w, r, u.ID, u.TokenVersion)
	if !ok {
		return
	}
	resp := map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          u,
	}
	if warn != nil {
		resp["password_warning"] = warn
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	u, err := h.Store.FindUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logging.Error("[auth] login lookup failed", "err", err)
		}
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	ok, needsRehash, err := password.Verify(strings.TrimSpace(req.Password), u.PasswordHash)
	if err != nil || !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if needsRehash {
		if phc, err := password.Hash(strings.TrimSpace(req.Password)); err == nil {
			if err := h.Store.UpdatePasswordHash(r.Context(), u.ID, phc); err != nil {
				logging.Warn("[auth] rehash failed", "user_id", u.ID, "err", err)
			}
		}
	}

	pair, ok := h.issuePair(w, r, u.ID, u.TokenVersion)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// POST /auth/refresh rotates the refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	ctx := r.Context()
	userID, tv, err := h.RefreshStore.Consume(ctx, req.RefreshToken)
	if err != nil {
		if !errors.Is(err, ErrInvalidRefresh) {
			logging.Error("[auth] refresh lookup failed", "err", err)
		}
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token")
		return
	}

	dbVer, err := h.Store.TokenVersion(ctx, userID)
	if err != nil || dbVer != tv {
		httpx.ErrorCode(w, http.StatusUnauthorized, "token_revoked", "Token has been revoked")
		return
	}

	pair, ok := h.issuePair(w, r, userID, dbVer)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// POST /auth/logout drops one refresh token. Always 200.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken != "" {
		if err := h.RefreshStore.Revoke(r.Context(), req.RefreshToken); err != nil {
			logging.Warn("[auth] revoke refresh failed", "err", err)
		}
	}
	httpx.OKNoData(w)
}

// POST /auth/logout-all invalidates every token of the caller.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	if err := h.Store.BumpTokenVersion(r.Context(), userID); err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "update_failed", "Failed to update token version")
		return
	}
	httpx.OKNoData(w)
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	u, err := h.Store.FindUserByID(r.Context(), userID)
	if err != nil {
		httpx.ErrorCode(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	httpx.OK(w, u)
}

// POST /auth/change-password revokes every other session.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OldPassword == "" {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid input")
		return
	}

	u, err := h.Store.FindUserByID(r.Context(), userID)
	if err != nil {
		httpx.ErrorCode(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	okPass, _, err := password.Verify(req.OldPassword, u.PasswordHash)
	if err != nil || !okPass {
		httpx.ErrorCode(w, http.StatusForbidden, "forbidden", "Invalid old password")
		return
	}

	np, warn, err := password.Validate(req.NewPassword, u.Email, u.Username)
	if err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "weak_password", "Password must be between 8 and 128 characters")
		return
	}
	if warn != nil {
		w.Header().Set("X-Password-Score", strconv.Itoa(warn.Score))
		msg := warn.Message
		if msg == "" {
			msg = "Password could be stronger"
		}
		w.Header().Set("X-Password-Warning", msg)
	}

	phc, err := password.Hash(np)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "hash_error", "Failed to hash new password")
		return
	}
	tv, err := h.Store.ReplacePassword(r.Context(), userID, phc)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "update_failed", "Failed to update password")
		return
	}

	pair, ok := h.issuePair(w, r, userID, tv)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// issuePair signs an access token and stores a fresh refresh token. On
// failure it has already written the error response.
func (h *Handler) issuePair(w http.ResponseWriter, r *http.Request, userID string, tv int) (TokenPair, bool) {
	access, _, err := h.JWT.SignAccess(userID, tv)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "jwt_error", "Failed to sign access token")
		return TokenPair{}, false
	}
	refresh, err := h.RefreshStore.Issue(r.Context(), userID, tv)
	if err != nil {
		logging.Error("[auth] issue refresh failed", "err", err)
		httpx.ErrorCode(w, http.StatusInternalServerError, "refresh_error", "Failed to issue refresh token")
		return TokenPair{}, false
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(h.JWT.AccessTTL().Seconds()),
	}, true
}
