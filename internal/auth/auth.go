// Package auth verifies the bearer credential presented at connection
// time. Token issuance belongs to the account service; this package
// only needs the shared signing key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated principal extracted from a token.
type Identity struct {
	UserId   string
	Username string
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenAuthenticator struct {
	signingKey []byte
}

func NewTokenAuthenticator(signingKey []byte) *TokenAuthenticator {
	return &TokenAuthenticator{signingKey: signingKey}
}

// Verify parses and validates token, returning the identity it
// carries. Any parse or signature failure reads as ErrInvalidToken;
// callers must not leak more detail than that to the client.
func (a *TokenAuthenticator) Verify(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if c.Subject == "" || c.Username == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserId:   c.Subject,
		Username: c.Username,
	}, nil
}

// Sign issues a token for identity. Used by tests and by local
// deployments that run without a separate account service.
func (a *TokenAuthenticator) Sign(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return token.SignedString(a.signingKey)
}
