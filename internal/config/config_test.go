package config_test

import (
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/server/internal/config"
)

func parse(t *testing.T, args ...string) config.Config {
	t.Helper()

	var cfg config.Config
	parser, err := kong.New(&cfg)
	require.NoError(t, err)

	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "./data/gatewarden.db", cfg.DBPath)
	assert.Equal(t, time.Hour, cfg.MinValiditySpan)
	assert.Equal(t, 750*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 30*time.Second, cfg.DebounceSweepInterval)
	assert.False(t, cfg.Debug)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := parse(t,
		"--http-addr=:9090",
		"--env=prod",
		"--min-validity-span=30m",
		"--debug",
	)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 30*time.Minute, cfg.MinValiditySpan)
	assert.True(t, cfg.Debug)
}

func TestEnvRejectsUnknownValue(t *testing.T) {
	var cfg config.Config
	parser, err := kong.New(&cfg)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--env=staging"})
	assert.Error(t, err)
}
