// Package auth implements the bearer token issuer and verifier.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "guildboard-api"
	audience = "guildboard-client"
)

// Verification failure reasons. Callers use these to produce distinguishing
// 401 messages without inspecting jwt internals.
var (
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("token malformed")
	ErrInvalidToken   = errors.New("token invalid")
	// ErrNoSigningKey indicates the process-wide signing key is absent. This
	// should have been caught by config validation at startup.
	ErrNoSigningKey = errors.New("token signing key not configured")
)

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID uint
	Expiry time.Time
}

// TokenIssuer signs and verifies time-limited bearer tokens for user identities.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer returns a TokenIssuer using the given HMAC secret and token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token embedding the user id and an expiry.
func (t *TokenIssuer) Issue(userID uint) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSigningKey
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a signed token, returning its claims.
// Failures are reported as ErrExpiredToken, ErrMalformedToken, or ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if len(t.secret) == 0 {
		return nil, ErrNoSigningKey
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
			}
			return t.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, ErrInvalidToken
		}
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrMalformedToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return nil, ErrMalformedToken
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	return &Claims{UserID: uint(userID), Expiry: expiry}, nil
}
