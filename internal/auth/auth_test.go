package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewService("secret", time.Hour)
	require.NoError(t, err)

	token, err := s.GenerateToken("user-1", "trader@example.com")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "trader@example.com", claims.Email)
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	s, err := NewService("secret", time.Minute)
	require.NoError(t, err)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenFromOtherSecret(t *testing.T) {
	t.Parallel()

	a, err := NewService("one", time.Hour)
	require.NoError(t, err)
	b, err := NewService("two", time.Hour)
	require.NoError(t, err)

	token, err := a.GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewService("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}
