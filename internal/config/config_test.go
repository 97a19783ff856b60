package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0.35, cfg.InterestWeight)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 2*time.Second, cfg.ScoringTimeout)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.InterestWeight = 0.5 }},
		{"negative boost", func(c *Config) { c.NewUserBoost = -5 }},
		{"boost above 100", func(c *Config) { c.UnderLikedBoost = 150 }},
		{"default page size above max", func(c *Config) { c.DefaultPageSize = 200 }},
		{"max page size above cap", func(c *Config) { c.MaxPageSize = 500 }},
		{"negative rotation depth", func(c *Config) { c.RotationDepth = -1 }},
		{"inactivity window too short", func(c *Config) { c.InactivityWindow = time.Hour }},
		{"zero scoring timeout", func(c *Config) { c.ScoringTimeout = 0 }},
		{"empty database URL", func(c *Config) { c.DatabaseURL = "" }},
		{"default JWT secret in production", func(c *Config) { c.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
