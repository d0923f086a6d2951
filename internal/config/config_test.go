package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "tm_session", cfg.CookieName)
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowOrigins)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.SeedDemoData)
	assert.False(t, cfg.Casdoor.Enabled())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENVIRONMENT", "Production")
	v.Set("SESSION_SECRET", "s3cret")
	v.Set("LOG_LEVEL", "debug")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("SESSION_TTL", "2h")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestFromViper_ProductionRequiresSecret(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENVIRONMENT", "production")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestFromViper_ProductionDisablesSeed(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		seed        *bool
		want        bool
	}{
		{name: "development default", environment: "development", want: true},
		{name: "production default", environment: "production", want: false},
		{name: "production explicit opt-in", environment: "production", seed: boolPtr(true), want: true},
		{name: "development explicit opt-out", environment: "development", seed: boolPtr(false), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set("ENVIRONMENT", tt.environment)
			v.Set("SESSION_SECRET", "s3cret")
			if tt.seed != nil {
				v.Set("SEED_DEMO_DATA", *tt.seed)
			}

			cfg, err := fromViper(v)
			require.NoError(t, err)
			assert.Empty(t, cfg.DatabaseURL)
			assert.Equal(t, tt.want, cfg.SeedDemoData)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
