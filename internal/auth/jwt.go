// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by every Vigilo token.
// Permissions are resolved from the role matrix at issuance and frozen
// into the token; permission checks at the checkpoints are exact set
// membership against this snapshot.
type Claims struct {
	Username       string   `json:"username"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	ServiceAccount bool     `json:"service_account,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports exact membership of perm in the claim's
// permission set. No implication between permissions: write does not
// grant read.
func (c *Claims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// JWTManager handles token signing and validation.
//
// Uses HMAC-SHA256. The secret is stored as []byte to prevent string
// interning attacks and must be at least 32 bytes.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// MinSecretLength is the minimum accepted signing secret length.
const MinSecretLength = 32

// NewJWTManager creates a manager with the given signing secret and
// token lifetime.
func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// TTL returns the configured token lifetime.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

// Sign creates a signed token for the given principal. The returned
// Claims carry the expiry actually encoded in the token.
func (m *JWTManager) Sign(username, role string, permissions []string, serviceAccount bool) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Username:       username,
		Role:           role,
		Permissions:    permissions,
		ServiceAccount: serviceAccount,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse validates signature and time claims, returning the decoded
// claims. Errors map onto the authority's taxonomy: ErrTokenExpired
// for out-of-window tokens, ErrTokenMalformed for everything else.
func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrTokenMalformed)
	}

	return claims, nil
}

// ParseAllowExpired validates the signature but skips time-claim
// validation. Used by Revoke so an expired token can still be revoked
// cleanly.
func (m *JWTManager) ParseAllowExpired(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims", ErrTokenMalformed)
	}

	return claims, nil
}

// keyFunc rejects any signing algorithm other than HMAC to prevent
// algorithm confusion attacks.
func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secret, nil
}
