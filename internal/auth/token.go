package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier resolves a bearer token to its subject and expiry.
type TokenVerifier interface {
	Verify(token string) (userID int64, expiresAt time.Time, err error)
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, issuer: "campuskit"}
}

// TTL exposes the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Sign issues a token for the user, expiring after the configured TTL.
func (m *TokenManager) Sign(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning its subject and expiry.
// Signature, method and expiry failures all surface as a single error; the
// caller treats any failure as an invalid token.
func (m *TokenManager) Verify(tokenString string) (int64, time.Time, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	if !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("parse subject: %w", err)
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return userID, expiresAt, nil
}

var _ TokenVerifier = (*TokenManager)(nil)
