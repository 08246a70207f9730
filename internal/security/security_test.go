package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buhoeats/api/internal/config"
)

func testHasher() *PasswordHasher {
	return NewPasswordHasher(config.Argon2Config{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
}

func TestPasswordRoundTrip(t *testing.T) {
	hasher := testHasher()

	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	require.Contains(t, string(hash), "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := hasher.Verify("s3cret-pass", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = hasher.Verify("wrong-pass", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	hash, err := testHasher().Hash("s3cret-pass")
	require.NoError(t, err)

	other := NewPasswordHasher(config.Argon2Config{Time: 2, Memory: 16 * 1024, Threads: 2})
	ok, err := other.Verify("s3cret-pass", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	hasher := testHasher()
	for _, encoded := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=19$garbage$aa$bb"} {
		_, err := hasher.Verify("x", []byte(encoded))
		require.ErrorIs(t, err, ErrMalformedHash, encoded)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", 42, "sess-1", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserID)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "42", claims.Subject)

	_, err = ParseAccessToken(token, "other-secret")
	require.Error(t, err)
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	token, err := GenerateAccessToken("secret", 1, "sess-1", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	require.Error(t, err)
}

func TestRefreshTokenHash(t *testing.T) {
	token, hash, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, HashRefreshToken(token), hash)

	other, _, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}
