// Package config loads and validates the settings of a report run.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DateLayout is the layout of the report window bounds.
const DateLayout = "2006-01-02"

// TokenEnv is the environment variable holding the API bearer token.
const TokenEnv = "GITHUB_API_TOKEN"

// ErrMissingToken is returned when no API token has been configured.
var ErrMissingToken = fmt.Errorf("%s environment variable is not set", TokenEnv)

// Config is the explicit configuration passed into the report pipeline.
type Config struct {
	GithubToken     string        `mapstructure:"github_token"`
	Org             string        `mapstructure:"org"`
	Topic           string        `mapstructure:"topic"`
	From            string        `mapstructure:"from"`
	To              string        `mapstructure:"to"`
	BaseURL         string        `mapstructure:"base_url"`
	PerPage         int           `mapstructure:"per_page"`
	AllContributors bool          `mapstructure:"all_contributors"`
	RateLimitWait   time.Duration `mapstructure:"rate_limit_wait"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Org:     "EnAccess",
		Topic:   "hacktoberfest",
		From:    "2024-10-01",
		To:      "2024-10-31",
		PerPage: 100,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Org) == "" {
		return errors.New("org cannot be empty")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("topic cannot be empty")
	}
	from, err := time.Parse(DateLayout, c.From)
	if err != nil {
		return fmt.Errorf("invalid from date %q: use YYYY-MM-DD", c.From)
	}
	to, err := time.Parse(DateLayout, c.To)
	if err != nil {
		return fmt.Errorf("invalid to date %q: use YYYY-MM-DD", c.To)
	}
	if from.After(to) {
		return fmt.Errorf("from date %s is after to date %s", c.From, c.To)
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("per_page must be between 1 and 100, got %d", c.PerPage)
	}
	if c.RateLimitWait < 0 {
		return errors.New("rate_limit_wait cannot be negative")
	}
	return nil
}

// ValidateForGitHubOperations validates that a token is present for operations that hit the API
func (c *Config) ValidateForGitHubOperations() error {
	if strings.TrimSpace(c.GithubToken) == "" {
		return ErrMissingToken
	}
	return c.Validate()
}

// LoadConfig reads the configuration from an optional .topic-pr-report.yaml,
// the environment and any flags already bound to v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".topic-pr-report")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TOPIC_PR_REPORT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	// BindEnv checks the listed variables in order
	if err := v.BindEnv("github_token", TokenEnv, "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	defaults := DefaultConfig()
	v.SetDefault("org", defaults.Org)
	v.SetDefault("topic", defaults.Topic)
	v.SetDefault("from", defaults.From)
	v.SetDefault("to", defaults.To)
	v.SetDefault("per_page", defaults.PerPage)
	v.SetDefault("all_contributors", defaults.AllContributors)
	v.SetDefault("rate_limit_wait", defaults.RateLimitWait)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
