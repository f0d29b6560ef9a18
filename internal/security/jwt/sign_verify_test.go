package jwtutil

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testManager() *Manager {
	return NewManager(Config{
		Secret:    []byte(strings.Repeat("k", 32)),
		ClockSkew: 5 * time.Second,
		AccessTTL: time.Minute,
		Issuer:    "shelf-api",
	})
}

func TestSignAndParse(t *testing.T) {
	m := testManager()
	tok, jti, err := m.SignAccess("user-1", 3)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.ParseAccess(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.TokenVersion != 3 || claims.ID != jti {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, _, err := m.SignAccess("user-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	m.now = time.Now
	if _, err := m.ParseAccess(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	tok, _, err := testManager().SignAccess("user-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	other := NewManager(Config{Secret: []byte(strings.Repeat("z", 32)), Issuer: "shelf-api"})
	if _, err := other.ParseAccess(tok); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestParseRejectsNoneAlg(t *testing.T) {
	claims := NewAccessClaims("shelf-api", "user-1", "j", 1, time.Now(), time.Minute)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := testManager().ParseAccess(tok); err == nil {
		t.Fatal("alg=none accepted")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_CLOCK_SKEW_SEC", "")
	t.Setenv("AUTH_ACCESS_TTL", "bogus")
	cfg := LoadConfig()
	if cfg.ClockSkew != time.Minute || cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
