package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &Manager{cfg: cfg, now: time.Now}
}

func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// SignAccess returns (tokenString, jti).
func (m *Manager) SignAccess(userID string, tokenVersion int) (string, string, error) {
	jti, err := randJTI()
	if err != nil {
		return "", "", err
	}
	claims := NewAccessClaims(m.cfg.Issuer, userID, jti, tokenVersion, m.now(), m.cfg.AccessTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.cfg.Secret)
	return s, jti, err
}

// ParseAccess verifies HS256 signature and leeway, returning claims.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(m.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func randJTI() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
