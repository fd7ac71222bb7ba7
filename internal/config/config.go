package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Portal token matching modes.
const (
	PortalMatchSubstring = "substring"
	PortalMatchExact     = "exact"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	// FixturesDir overrides the embedded seed data when set. It must hold
	// clients.json and applications.json.
	FixturesDir string
	// LatencyScale multiplies the simulated store latency. 0 disables it.
	LatencyScale float64
	PortalMatch  string

	// RedisURL enables the cross-process event relay when non-empty.
	RedisURL    string
	CORSOrigins []string
}

// LoadConfig reads configuration from the environment, after loading a
// .env file from the working directory if one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FIXTURES_DIR", "")
	v.SetDefault("LATENCY_SCALE", 1.0)
	v.SetDefault("PORTAL_MATCH", PortalMatchSubstring)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CORS_ORIGINS", "*")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetString("PORT"),
		Env:          v.GetString("ENV"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		FixturesDir:  v.GetString("FIXTURES_DIR"),
		LatencyScale: v.GetFloat64("LATENCY_SCALE"),
		PortalMatch:  strings.ToLower(v.GetString("PORTAL_MATCH")),
		RedisURL:     v.GetString("REDIS_URL"),
		CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is empty")
	}
	if c.LatencyScale < 0 {
		return fmt.Errorf("LATENCY_SCALE must not be negative, got %v", c.LatencyScale)
	}
	switch c.PortalMatch {
	case PortalMatchSubstring, PortalMatchExact:
	default:
		return fmt.Errorf("PORTAL_MATCH must be %q or %q, got %q", PortalMatchSubstring, PortalMatchExact, c.PortalMatch)
	}
	return nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
