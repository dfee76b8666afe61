// Package auth verifies handshake tokens. Token issuance lives in the
// external auth service; this side only checks signatures and expiry.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	ID string `json:"id"`
}

// JWTVerifier validates HMAC-SHA256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(token string) (domain.UserID, error) {
	if token == "" {
		return "", core.ErrInvalidToken
	}
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", core.ErrInvalidToken
	}
	id := claims.ID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", core.ErrInvalidToken
	}
	return domain.UserID(id), nil
}

func (v *JWTVerifier) keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	return v.secret, nil
}
