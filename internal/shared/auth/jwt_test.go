package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	signer, err := NewSigner("secret", time.Hour, false)
	require.NoError(t, err)

	dept := int64(4)
	token, err := signer.SignSession(Actor{UserID: "owner-1", Role: RoleOwner, DepartmentID: &dept}, "o@example.com")
	require.NoError(t, err)

	claims, err := signer.VerifySession(token)
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, "owner-1", actor.UserID)
	assert.Equal(t, RoleOwner, actor.Role)
	assert.True(t, actor.InDepartment(4))
	assert.False(t, actor.InDepartment(5))
}

func TestVerifySessionRejectsExpiredAndForeignTokens(t *testing.T) {
	signer, err := NewSigner("secret", time.Minute, false)
	require.NoError(t, err)
	token, err := signer.SignSession(Actor{UserID: "s-1", Role: RoleStudent}, "")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.VerifySession(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	other, err := NewSigner("other", time.Minute, false)
	require.NoError(t, err)
	_, err = other.VerifySession(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestStateTokenIsNotASession(t *testing.T) {
	signer, err := NewSigner("secret", time.Hour, false)
	require.NoError(t, err)
	inst := int64(12)
	state, err := signer.SignState(&inst, "nonce", 10*time.Minute)
	require.NoError(t, err)

	claims, err := signer.VerifyState(state)
	require.NoError(t, err)
	require.NotNil(t, claims.InstitutionID)
	assert.Equal(t, int64(12), *claims.InstitutionID)

	_, err = signer.VerifySession(state)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRequiresSecretOutsideDev(t *testing.T) {
	_, err := NewSigner("", time.Hour, false)
	assert.Error(t, err)
	_, err = NewSigner("", time.Hour, true)
	assert.NoError(t, err)
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{"admin": RoleAdmin, "2": RoleOwner, " Student ": RoleStudent}
	for in, want := range cases {
		got, ok := ParseRole(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseRole("9")
	assert.False(t, ok)
}
