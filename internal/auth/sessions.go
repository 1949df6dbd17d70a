package auth

import (
	"context"
	"fmt"

	"github.com/mmynk/corepadel/internal/models"
)

// Sessions issues, verifies and revokes session tokens.
type Sessions struct {
	jwt     *JWTManager
	revoker Revoker
}

// NewSessions combines token signing with a revocation list.
func NewSessions(jwt *JWTManager, revoker Revoker) *Sessions {
	return &Sessions{jwt: jwt, revoker: revoker}
}

// Issue creates a session token for user.
func (s *Sessions) Issue(user *models.User) (string, *Claims, error) {
	return s.jwt.Generate(user)
}

// Verify validates the token signature and expiry and rejects signed-out sessions.
func (s *Sessions) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke signs out the session identified by claims.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
