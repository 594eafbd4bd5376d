package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", RoleName: RoleHR}

	token, err := GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, RoleHR, parsed.RoleName)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("one", Claims{UserID: "u1", RoleName: RoleStaff}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("two", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", RoleName: RoleStaff}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u1", RoleName: RoleAdmin})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken("secret", signed)
	assert.Error(t, err)
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(RoleAdmin, RoleHR))
	assert.True(t, HasRole("HR", RoleHR))
	assert.True(t, HasRole(RoleHR, RoleStaff))
	assert.False(t, HasRole(RoleStaff, RoleHR))
	assert.False(t, HasRole("manager", RoleStaff))
	assert.False(t, HasRole("", RoleStaff))
}
