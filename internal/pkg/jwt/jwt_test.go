package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", "TECHNICIAN", "s3cret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "s3cret")
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "TECHNICIAN", claims.Role)
	require.Equal(t, "gearguard", claims.Issuer)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "bob", "USER", "one", time.Minute)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "two")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "bob", "USER", "k", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "k")
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(9, "tid-1", "r", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, "r")
	require.NoError(t, err)
	require.Equal(t, uint(9), claims.UserID)
	require.Equal(t, "tid-1", claims.TokenID)

	_, err = ValidateRefreshToken("garbage", "r")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
