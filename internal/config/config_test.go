package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "lots-aerodesign", cfg.Raffle.ID)
	assert.Equal(t, 1, cfg.Raffle.StartNumber)
	assert.Equal(t, 350, cfg.Raffle.EndNumber)
	assert.Equal(t, int64(100), cfg.Raffle.PriceCents)
	assert.Equal(t, "R$", cfg.Raffle.Currency)
	assert.Equal(t, 30, cfg.Raffle.ExpiryMinutes)
	assert.Equal(t, 0, cfg.Raffle.SweepIntervalMinute)
	assert.Equal(t, "rifa", cfg.MongoDB.Database)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Raffle: RaffleConfig{
				StartNumber:   1,
				EndNumber:     350,
				PriceCents:    100,
				ExpiryMinutes: 30,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("inverted range", func(t *testing.T) {
		cfg := base()
		cfg.Raffle.StartNumber = 400
		assert.Error(t, cfg.validate())
	})

	t.Run("free raffle rejected", func(t *testing.T) {
		cfg := base()
		cfg.Raffle.PriceCents = 0
		assert.Error(t, cfg.validate())
	})

	t.Run("non-positive expiry rejected", func(t *testing.T) {
		cfg := base()
		cfg.Raffle.ExpiryMinutes = -1
		assert.Error(t, cfg.validate())
	})
}

func TestTotalNumbers(t *testing.T) {
	cfg := RaffleConfig{StartNumber: 1, EndNumber: 350}
	assert.Equal(t, 350, cfg.TotalNumbers())

	cfg = RaffleConfig{StartNumber: 10, EndNumber: 10}
	assert.Equal(t, 1, cfg.TotalNumbers())
}
