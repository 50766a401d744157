package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultAccessTokenTTL = 24 * time.Hour

// Claims defines the JWT claims structure
type Claims struct {
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"` // compared with users.token_version to honour logout
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens with a configured secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer builds an issuer. A zero ttl falls back to DefaultAccessTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration, issuer string) (*TokenIssuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// TTL reports how long issued tokens stay valid.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// GenerateAccessToken creates a signed token and returns it with its expiry.
func (ti *TokenIssuer) GenerateAccessToken(userID int64, email, role string, tokenVersion int) (string, time.Time, error) {
	now := ti.now()
	expiresAt := now.Add(ti.ttl)
	claims := &Claims{
		UserID:       userID,
		Email:        email,
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ti.issuer,
			Subject:   Int64ToStr(userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func (ti *TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
