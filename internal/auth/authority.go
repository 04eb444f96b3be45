// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package auth implements the Vigilo token authority: short-lived HS256
// tokens, a TTL-bound revocation store that is authoritative over the
// signature, and permission snapshots resolved from the role matrix at
// issuance.
//
// Trust derives from possession of a currently-valid token, never from
// network position. Every pipeline stage revalidates; nothing is
// trusted because it arrived on an internal queue.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/vigilo/internal/authz"
	"github.com/tomtom215/vigilo/internal/logging"
	"github.com/tomtom215/vigilo/internal/metrics"
)

// Authority is the token authority facade. It issues, validates, and
// revokes tokens, and answers permission checks.
type Authority struct {
	jwt       *JWTManager
	store     GrantStore
	directory Directory
	enforcer  *authz.Enforcer
}

// NewAuthority wires the authority from its parts.
func NewAuthority(jwt *JWTManager, store GrantStore, directory Directory, enforcer *authz.Enforcer) *Authority {
	return &Authority{
		jwt:       jwt,
		store:     store,
		directory: directory,
		enforcer:  enforcer,
	}
}

// IssueUserToken authenticates the user and issues a token carrying
// the role's permission snapshot. The grant is recorded before the
// token is returned; a token the store never heard of validates as
// revoked.
func (a *Authority) IssueUserToken(ctx context.Context, username, password string) (string, *Claims, error) {
	principal, err := a.directory.AuthenticateUser(username, password)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("username", username).Msg("Login rejected")
		return "", nil, err
	}

	token, claims, err := a.issue(ctx, principal)
	if err != nil {
		return "", nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues("user").Inc()
	logging.Ctx(ctx).Info().
		Str("username", principal.Name).
		Str("role", principal.Role).
		Time("expires_at", claims.ExpiresAt.Time).
		Msg("User token issued")
	return token, claims, nil
}

// IssueServiceToken issues a token for a known service principal.
// Caller identity comes from the transport (X-Service-Name); the
// directory decides whether the principal exists.
func (a *Authority) IssueServiceToken(ctx context.Context, serviceName string) (string, *Claims, error) {
	principal, err := a.directory.LookupService(serviceName)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("service", serviceName).Msg("Service token rejected")
		return "", nil, err
	}

	token, claims, err := a.issue(ctx, principal)
	if err != nil {
		return "", nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues("service").Inc()
	logging.Ctx(ctx).Info().
		Str("service", principal.Name).
		Time("expires_at", claims.ExpiresAt.Time).
		Msg("Service token issued")
	return token, claims, nil
}

func (a *Authority) issue(ctx context.Context, principal *Principal) (string, *Claims, error) {
	permissions, err := a.enforcer.PermissionsForRole(principal.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve permissions for role %s: %w", principal.Role, err)
	}

	token, claims, err := a.jwt.Sign(principal.Name, principal.Role, permissions, principal.ServiceAccount)
	if err != nil {
		return "", nil, err
	}

	entry := &GrantEntry{
		Subject:   principal.Name,
		Role:      principal.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := a.store.Grant(ctx, principal.Name, token, entry, a.jwt.TTL()); err != nil {
		return "", nil, fmt.Errorf("failed to record grant: %w", err)
	}

	return token, claims, nil
}

// Validate checks signature and expiry, then requires an active grant
// in the revocation store. Store errors surface as ErrStoreUnavailable
// rather than a revoked verdict: unavailability must read as
// retryable, never as a security decision.
func (a *Authority) Validate(ctx context.Context, rawToken string) (*Claims, error) {
	claims, err := a.jwt.Parse(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			metrics.TokenValidationsTotal.WithLabelValues("expired").Inc()
		default:
			metrics.TokenValidationsTotal.WithLabelValues("malformed").Inc()
		}
		return nil, err
	}

	valid, err := a.store.IsValid(ctx, claims.Username, rawToken)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if !valid {
		metrics.TokenValidationsTotal.WithLabelValues("revoked").Inc()
		logging.Ctx(ctx).Warn().Str("username", claims.Username).Msg("Revoked token presented")
		return nil, ErrTokenRevoked
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return claims, nil
}

// Revoke deletes the token's grant. Idempotent: revoking an already
// revoked or expired token succeeds. Malformed tokens are rejected
// with ErrTokenMalformed.
func (a *Authority) Revoke(ctx context.Context, rawToken string) error {
	// Expired tokens may still be revoked; only the signature must hold.
	claims, err := a.jwt.ParseAllowExpired(rawToken)
	if err != nil {
		return err
	}

	if err := a.store.Revoke(ctx, claims.Username, rawToken); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	metrics.TokenRevocationsTotal.Inc()
	logging.Ctx(ctx).Info().Str("username", claims.Username).Msg("Token revoked")
	return nil
}

// CheckPermission reports whether the claims carry the permission.
// Exact membership; denials are counted.
func (a *Authority) CheckPermission(claims *Claims, permission string) bool {
	if claims.HasPermission(permission) {
		return true
	}
	metrics.PermissionDenialsTotal.WithLabelValues(permission).Inc()
	return false
}
