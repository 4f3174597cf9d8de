package jwt

import (
	"testing"
	"time"

	"im-delivery/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string, expire time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     secret,
		Issuer:     "im-delivery",
		ExpireTime: expire,
	})
}

func TestGenerateAndCheckToken(t *testing.T) {
	service := newTestService("test-secret", time.Hour)

	token, err := service.GenerateToken(42, "alice", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, username, role, err := service.CheckToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "admin", role)
}

func TestGenerateTokenDefaultRole(t *testing.T) {
	service := newTestService("test-secret", time.Hour)

	token, err := service.GenerateToken(1, "bob", "")
	require.NoError(t, err)

	_, _, role, err := service.CheckToken(token)
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, role)
}

func TestGenerateTokenRequiresUserID(t *testing.T) {
	service := newTestService("test-secret", time.Hour)

	_, err := service.GenerateToken(0, "alice", "")
	assert.Error(t, err)
}

func TestCheckTokenWrongSecret(t *testing.T) {
	token, err := newTestService("secret-a", time.Hour).GenerateToken(1, "alice", "")
	require.NoError(t, err)

	_, _, _, err = newTestService("secret-b", time.Hour).CheckToken(token)
	assert.Error(t, err)
}

func TestCheckTokenExpired(t *testing.T) {
	service := newTestService("test-secret", -time.Minute)

	token, err := service.GenerateToken(1, "alice", "")
	require.NoError(t, err)

	_, _, _, err = service.CheckToken(token)
	assert.Error(t, err)
}

func TestValidateTokenEmpty(t *testing.T) {
	_, err := newTestService("test-secret", time.Hour).ValidateToken("")
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := newTestService("test-secret", time.Hour).ValidateToken("not.a.token")
	assert.Error(t, err)
}
