package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		hours     string
		issuer    string
		wantHours int
		wantIss   string
		wantErr   bool
	}{
		{name: "defaults", secret: "s3cret", wantHours: 24, wantIss: "talent-pipeline"},
		{name: "custom", secret: "s3cret", hours: "12", issuer: "acme", wantHours: 12, wantIss: "acme"},
		{name: "missing secret", wantErr: true},
		{name: "zero hours", secret: "s3cret", hours: "0", wantErr: true},
		{name: "non-numeric hours", secret: "s3cret", hours: "day", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.hours)
			t.Setenv("JWT_ISSUER", tt.issuer)

			cfg, err := NewJWTConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
			assert.Equal(t, tt.wantIss, cfg.Issuer)
			assert.Equal(t, time.Duration(tt.wantHours)*time.Hour, cfg.TTL())
		})
	}
}

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		wantCost int
		wantErr  bool
	}{
		{name: "default", cost: "", wantCost: DefaultBcryptCost},
		{name: "minimum", cost: "10", wantCost: 10},
		{name: "too low", cost: "9", wantErr: true},
		{name: "too high", cost: "15", wantErr: true},
		{name: "non-numeric", cost: "high", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.cost)
			t.Setenv("PASSWORD_PEPPER", "")

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost}

	hash, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, cfg.VerifyPassword("correct horse", hash))
	assert.False(t, cfg.VerifyPassword("wrong horse", hash))

	again, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salted hashes differ")
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pepper-one"}
	hash, err := peppered.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, peppered.VerifyPassword("correct horse", hash))

	rotated := &PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pepper-two"}
	assert.False(t, rotated.VerifyPassword("correct horse", hash), "a different pepper rejects old hashes")

	plain := &PasswordConfig{BcryptCost: MinBcryptCost}
	assert.False(t, plain.VerifyPassword("correct horse", hash))
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost}
	_, err := cfg.HashPassword(strings.Repeat("a", 80))
	assert.Error(t, err, "bcrypt rejects inputs over 72 bytes")
}
