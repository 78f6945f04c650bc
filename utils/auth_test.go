package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestUserTokenRoundTrip(t *testing.T) {
	token, err := GenerateUserToken(42, 3, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)

	userID, ok := ClaimUint(claims, "user_id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)
	assert.EqualValues(t, 3, claims["token_version"])

	_, ok = ClaimUint(claims, "admin_id")
	assert.False(t, ok)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateAdminToken(1, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateAdminToken(1, testSecret, -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"admin_id": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(valid, "")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = ParseToken(valid, "another-secret")
	assert.Error(t, err)

	_, err = ParseToken(expired, testSecret)
	assert.Error(t, err)

	_, err = ParseToken(none, testSecret)
	assert.Error(t, err)

	_, err = ParseToken("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestParseTokenRequiresExpiry(t *testing.T) {
	forever, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := ParseToken(forever, testSecret)
	assert.ErrorIs(t, err, ErrMissingExpiry)
	assert.Nil(t, claims)
}
