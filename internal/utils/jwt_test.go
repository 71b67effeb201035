package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseSessionToken(t *testing.T) {
	tok, err := IssueSessionToken("secret", 42, "admin", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseSessionToken_Rejects(t *testing.T) {
	t.Run("WrongSecret", func(t *testing.T) {
		tok, err := IssueSessionToken("secret", 1, "", time.Hour)
		require.NoError(t, err)
		_, err = ParseSessionToken("other", tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		tok, err := IssueSessionToken("secret", 1, "", -time.Minute)
		require.NoError(t, err)
		_, err = ParseSessionToken("secret", tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseSessionToken("secret", "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingExpiry", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = ParseSessionToken("secret", raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("OtherAlgorithm", func(t *testing.T) {
		claims := jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = ParseSessionToken("secret", raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "hunter2")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-bcrypt-hash", "hunter2")
	assert.Error(t, err)
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(8)
	require.NoError(t, err)
	b, err := RandomHex(8)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
