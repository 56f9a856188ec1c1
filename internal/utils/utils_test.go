package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotsaero/rifa-backend/internal/config"
)

func TestPhoneDigits(t *testing.T) {
	cases := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "formatted", phone: "(31) 99999-8888", want: "31999998888"},
		{name: "with country code", phone: "+55 31 9 9658-1509", want: "5531996581509"},
		{name: "letters ignored", phone: "abc123", want: "123"},
		{name: "empty", phone: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PhoneDigits(tc.phone))
		})
	}
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("31999998888"))
	assert.True(t, ValidPhone("(31) 9999-8888"))
	assert.False(t, ValidPhone("999-8888"))
	assert.False(t, ValidPhone(""))
}

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "eleven digits", phone: "31996581509", want: "(31) 99658-1509"},
		{name: "ten digits", phone: "3196581509", want: "(31) 9658-1509"},
		{name: "truncates beyond eleven", phone: "319965815091234", want: "(31) 99658-1509"},
		{name: "too short passes through", phone: "12345", want: "12345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPhone(tc.phone))
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = 3600

	token, expiresAt, err := GenerateJWT("user-1", "admin@rifa.local", "admin", cfg)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "admin@rifa.local", claims["email"])
	assert.Equal(t, "admin", claims["role"])
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = 3600

	token, _, err := GenerateJWT("user-1", "admin@rifa.local", "admin", cfg)
	require.NoError(t, err)

	other := &config.Config{}
	other.JWT.Secret = "different"
	_, err = ValidateJWT(token, other)
	assert.Error(t, err)
}
