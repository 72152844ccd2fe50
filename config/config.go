/*
Package config loads process configuration.

SOURCES (later wins):
  1. Defaults below
  2. payouts.yaml in the working directory, or the file given with --config
  3. .env in the working directory (loaded into the environment, never
     overriding variables that are already set)
  4. PAYOUTS_* environment variables, e.g. PAYOUTS_ASSISTANT_API_KEY
  5. Command-line flags bound with BindFlags

KEYS:
  db_path            SQLite file for threshold records
  port               HTTP listen port
  log_level          zerolog level name
  log_pretty         console log format instead of JSON
  ruleset_path       YAML/JSON ruleset; empty uses the default ruleset
  assistant.api_key  text-generation API key; empty means offline mode
  assistant.base_url text-generation API base URL
  assistant.timeout  per-request timeout
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/warp/payout-engine/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PAYOUTS"

// Config is the resolved process configuration.
type Config struct {
	DBPath      string          `mapstructure:"db_path"`
	Port        string          `mapstructure:"port"`
	LogLevel    string          `mapstructure:"log_level"`
	LogPretty   bool            `mapstructure:"log_pretty"`
	RulesetPath string          `mapstructure:"ruleset_path"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
}

// AssistantConfig configures the text-generation collaborator.
type AssistantConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "payouts.db")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("ruleset_path", "")
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("assistant.timeout", 60*time.Second)
}

// BindFlags binds every flag of fs whose name matches a config key, with
// dashes standing in for underscores and dots (--db-path, --assistant-api-key).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if key == "" {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func flagKey(name string) string {
	switch name {
	case "db-path":
		return "db_path"
	case "port":
		return "port"
	case "log-level":
		return "log_level"
	case "log-pretty":
		return "log_pretty"
	case "ruleset":
		return "ruleset_path"
	case "assistant-api-key":
		return "assistant.api_key"
	case "assistant-base-url":
		return "assistant.base_url"
	case "assistant-timeout":
		return "assistant.timeout"
	}
	return ""
}

// Load reads .env, the optional config file and the environment into a
// Config. configFile may be empty, in which case payouts.yaml is used when
// present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("payouts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read payouts.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var problems []string
	if c.Port == "" {
		problems = append(problems, "port is required")
	}
	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not a level", c.LogLevel))
	}
	if c.Assistant.Timeout <= 0 {
		problems = append(problems, "assistant.timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
