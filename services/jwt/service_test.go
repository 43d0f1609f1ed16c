package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/librishq/libris/config"
	"github.com/librishq/libris/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	assert.NotNil(t, service)
	assert.Equal(t, cfg, service.config)
	assert.Nil(t, service.logger)
}

func TestService_AccessTTLLabel(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.JWT.AccessTTL = config.TTL(2 * time.Hour)
	service := NewService(cfg, nil)

	assert.Equal(t, "2h", service.AccessTTLLabel())
	assert.Equal(t, 2*time.Hour, service.AccessTTL())
}

func TestService_GenerateAccessToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("valid payload", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(123, "alice", "user")

		require.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
			return []byte(cfg.JWT.AccessSecret), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims, ok := token.Claims.(*Claims)
		require.True(t, ok)
		assert.Equal(t, uint(123), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "user", claims.Role)
		assert.Equal(t, cfg.JWT.Issuer, claims.Issuer)
		assert.NotEmpty(t, claims.ID)
		assert.NotNil(t, claims.ExpiresAt)
	})

	t.Run("generates unique jti", func(t *testing.T) {
		token1, err1 := service.GenerateAccessToken(123, "alice", "user")
		token2, err2 := service.GenerateAccessToken(123, "alice", "user")

		require.NoError(t, err1)
		require.NoError(t, err2)

		claims1, err := service.ValidateAccessToken(token1)
		require.NoError(t, err)
		claims2, err := service.ValidateAccessToken(token2)
		require.NoError(t, err)

		assert.NotEqual(t, claims1.ID, claims2.ID)
	})
}

func TestService_ValidateAccessToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("round trip", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(42, "bob", "admin")
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "bob", claims.Username)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := service.ValidateAccessToken("invalid.token.string")

		require.Error(t, err)
		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrMalformedToken, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortCfg := testutils.GetTestConfig()
		shortCfg.JWT.AccessTTL = config.TTL(-time.Minute)
		shortService := NewService(shortCfg, nil)

		tokenString, err := shortService.GenerateAccessToken(42, "bob", "user")
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		require.Error(t, err)
		assert.Nil(t, claims)
		testutils.AssertErrorType(t, ErrExpiredToken, err)
	})

	t.Run("refresh token rejected by access verifier", func(t *testing.T) {
		refreshToken, err := service.GenerateRefreshToken(42, "bob", "user")
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(refreshToken)

		require.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("token signed with wrong secret", func(t *testing.T) {
		otherCfg := testutils.GetTestConfig()
		otherCfg.JWT.AccessSecret = "a-completely-different-secret!!!"
		otherService := NewService(otherCfg, nil)

		tokenString, err := otherService.GenerateAccessToken(42, "bob", "user")
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		require.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)

		require.Error(t, err)
		assert.Nil(t, claims)
	})
}

func TestService_ValidateRefreshToken(t *testing.T) {
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, nil)

	t.Run("round trip", func(t *testing.T) {
		tokenString, err := service.GenerateRefreshToken(7, "carol", "user")
		require.NoError(t, err)

		claims, err := service.ValidateRefreshToken(tokenString)

		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "carol", claims.Username)
	})

	t.Run("access token rejected by refresh verifier", func(t *testing.T) {
		accessToken, err := service.GenerateAccessToken(7, "carol", "user")
		require.NoError(t, err)

		claims, err := service.ValidateRefreshToken(accessToken)

		require.Error(t, err)
		assert.Nil(t, claims)
	})
}
