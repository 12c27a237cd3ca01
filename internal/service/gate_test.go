package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/hash"
)

func TestNewAdminGate(t *testing.T) {
	_, err := NewAdminGate("", "", []byte("s"), time.Hour)
	assert.Error(t, err)

	h, err := hash.HashPassword("sorvete")
	require.NoError(t, err)
	g, err := NewAdminGate(h, "ignored", []byte("s"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, h, g.PasswordHash)
}

func TestAdminGate_UnlockAndVerify(t *testing.T) {
	gate, err := NewAdminGate("", "sorvete", []byte("gate-secret"), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()

	_, _, err = gate.Unlock(ctx, user, "picole")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = gate.Unlock(ctx, user, "")
	assert.ErrorIs(t, err, ErrValidation)

	token, exp, err := gate.Unlock(ctx, user, "sorvete")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := gate.Verify(token, user)
	require.NoError(t, err)
	assert.WithinDuration(t, exp, got, time.Second)

	_, err = gate.Verify(token, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = gate.Verify("", user)
	assert.ErrorIs(t, err, ErrForbidden)

	other := *gate
	other.Secret = []byte("another-secret")
	_, err = other.Verify(token, user)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminGate_Expired(t *testing.T) {
	gate, err := NewAdminGate("", "sorvete", []byte("gate-secret"), time.Hour)
	require.NoError(t, err)
	gate.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	user := uuid.New()
	token, _, err := gate.Unlock(context.Background(), user, "sorvete")
	require.NoError(t, err)

	_, err = gate.Verify(token, user)
	assert.ErrorIs(t, err, ErrForbidden)
}
