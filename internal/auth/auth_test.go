package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken(42, "analyst")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "analyst", claims.Username)
	assert.Equal(t, "marketpulse", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	other := NewService("different-secret", time.Hour)

	token, err := svc.GenerateToken(42, "analyst")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("test-secret", -time.Hour)

	token, err := svc.GenerateToken(42, "analyst")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ng!pass", hash)

	assert.True(t, CheckPassword("Str0ng!pass", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
}
