package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, PortalMatchSubstring, cfg.PortalMatch)
	assert.Equal(t, 1.0, cfg.LatencyScale)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PORTAL_MATCH", "EXACT")
	t.Setenv("LATENCY_SCALE", "0")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://app.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, PortalMatchExact, cfg.PortalMatch)
	assert.Equal(t, 0.0, cfg.LatencyScale)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.CORSOrigins)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown portal match", "PORTAL_MATCH", "prefix"},
		{"negative latency", "LATENCY_SCALE", -1.0},
		{"empty port", "PORT", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set("PORT", "8081")
			v.Set("PORTAL_MATCH", PortalMatchSubstring)
			v.Set(tt.key, tt.val)

			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}
