package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoarenas/smarttasks/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour).WithClock(fixedClock(now))

	token, err := issuer.Issue(&model.User{ID: "u-1", Email: "a@b.com", IsAdmin: true})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssuer_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour).WithClock(fixedClock(now))
	token, err := issuer.Issue(&model.User{ID: "u-1", Email: "a@b.com"})
	require.NoError(t, err)

	issuer.WithClock(fixedClock(now.Add(2 * time.Hour)))
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestIssuer_WrongSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).Issue(&model.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIssuer_Malformed(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalid)
}
