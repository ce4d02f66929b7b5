package password

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashWithCost("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, Verify("correct horse", hash))
	require.False(t, Verify("wrong horse", hash))
}

func TestHashToken(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64)
}

func TestValidatePassword(t *testing.T) {
	require.False(t, ValidatePassword("short"))
	require.True(t, ValidatePassword("long enough"))
}
