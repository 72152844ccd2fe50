package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "payouts.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RulesetPath)
	assert.Empty(t, cfg.Assistant.APIKey)
	assert.Equal(t, 60*time.Second, cfg.Assistant.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAYOUTS_PORT", "9090")
	t.Setenv("PAYOUTS_ASSISTANT_API_KEY", "secret")
	t.Setenv("PAYOUTS_ASSISTANT_TIMEOUT", "5s")

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.Assistant.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Assistant.Timeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	// GIVEN: A YAML file and an environment variable for the same key
	path := filepath.Join(t.TempDir(), "payouts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/payouts/thresholds.db
log_level: debug
ruleset_path: rules.yaml
assistant:
  base_url: http://localhost:9999
`), 0o600))
	t.Setenv("PAYOUTS_LOG_LEVEL", "warn")

	// WHEN: Loading
	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)

	// THEN: File values apply, and the environment wins over the file
	assert.Equal(t, "/var/lib/payouts/thresholds.db", cfg.DBPath)
	assert.Equal(t, "rules.yaml", cfg.RulesetPath)
	assert.Equal(t, "http://localhost:9999", cfg.Assistant.BaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PAYOUTS_LOG_LEVEL", "loud")

	_, err := config.Load(config.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `log_level "loud"`)
}

func TestBindFlags(t *testing.T) {
	v := config.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db-path", "", "")
	fs.String("unrelated", "", "")
	require.NoError(t, config.BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--db-path", "flag.db"}))

	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.DBPath)
}
