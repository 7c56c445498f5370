package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService(testJWTConfig)
	user := &types.User{ID: uuid.New(), Role: types.RoleAdmin}

	token, err := service.GenerateToken(user)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.GetUserID())
	assert.Equal(t, types.RoleAdmin, claims.GetRole())
	assert.Equal(t, testJWTConfig.Issuer, claims.Issuer)

	principal, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.GetUserID())
}

func TestJWTService_Rejects(t *testing.T) {
	user := &types.User{ID: uuid.New(), Role: types.RoleRecruiter}
	service := NewJWTService(testJWTConfig)
	valid, err := service.GenerateToken(user)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := service.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := service.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: "another-secret-another-secret-123", Issuer: testJWTConfig.Issuer, ExpirationHours: 1})
		_, err := other.ValidateToken(valid)
		assert.ErrorContains(t, err, "signature")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: testJWTConfig.Secret, Issuer: "someone-else", ExpirationHours: 1})
		_, err := other.ValidateToken(valid)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTService(testJWTConfig)
		later.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		_, err := later.ValidateToken(valid)
		assert.ErrorContains(t, err, "expired")
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &Claims{UserID: user.ID, Role: types.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: testJWTConfig.Issuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})
}
