package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/hash"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

// AdminGate is the second factor of the back-office: an administrator who is
// already authenticated must also enter the shared gate password once per
// browser session.
type AdminGate struct {
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
	Now          func() time.Time
}

func NewAdminGate(passwordHash, plaintext string, secret []byte, ttl time.Duration) (*AdminGate, error) {
	if passwordHash == "" {
		if plaintext == "" {
			return nil, fmt.Errorf("admin gate: no password configured")
		}
		h, err := hash.HashPassword(plaintext)
		if err != nil {
			return nil, err
		}
		passwordHash = h
	}
	return &AdminGate{PasswordHash: passwordHash, Secret: secret, TTL: ttl}, nil
}

func (g *AdminGate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

// Unlock checks password and returns a gate token bound to userID.
func (g *AdminGate) Unlock(ctx context.Context, userID uuid.UUID, password string) (string, time.Time, error) {
	l := logging.FromContext(ctx).With("svc", "gate.unlock", "user_id", userID)

	if password == "" {
		return "", time.Time{}, validation("password required")
	}
	if !hash.CheckPassword(g.PasswordHash, password) {
		l.Warn("gate_unlock_failed", "status", 401, "reason", "wrong gate password")
		return "", time.Time{}, ErrInvalidCredentials
	}

	exp := g.now().Add(g.TTL)
	token, err := tokens.SignGate(userID.String(), exp, g.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	l.Info("gate_unlocked", "expires_at", exp)
	return token, exp, nil
}

// Verify returns the expiry of a gate token issued to userID.
func (g *AdminGate) Verify(token string, userID uuid.UUID) (time.Time, error) {
	if token == "" {
		return time.Time{}, ErrForbidden
	}
	claims, err := tokens.GateClaimsFromToken(token, g.Secret)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if claims.Subject != userID.String() {
		return time.Time{}, fmt.Errorf("%w: gate issued to another user", ErrForbidden)
	}
	return claims.ExpiresAt.Time, nil
}
