package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims carries the user's token version; bumping it in the users
// table revokes every outstanding access token.
type AccessClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

func NewAccessClaims(issuer, userID, jti string, tokenVersion int, now time.Time, ttl time.Duration) AccessClaims {
	return AccessClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
