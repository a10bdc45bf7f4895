// Package config loads client settings from an optional file and FAUNA_*
// environment variables.
package config

import (
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/krew-solutions/faunadb-go/faunadb/client"
	"github.com/krew-solutions/faunadb-go/faunadb/connection"
	"github.com/krew-solutions/faunadb-go/faunadb/logger"
)

const EnvPrefix = "FAUNA_"

type Config struct {
	RootURL   string        `mapstructure:"root_url"`
	RootToken string        `mapstructure:"root_token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	PoolSize  int           `mapstructure:"pool_size"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
}

// Load reads path, if given, then lets FAUNA_* variables override it:
// FAUNA_ROOT_TOKEN sets root_token and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("root_url", connection.DefaultRoot)
	v.SetDefault("timeout", connection.DefaultTimeout)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("pool_size", 0)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	for _, env := range os.Environ() {
		key, value, _ := strings.Cut(env, "=")
		if name, ok := strings.CutPrefix(key, EnvPrefix); ok && name != "" {
			v.Set(strings.ToLower(name), value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result error
	if u, err := url.Parse(c.RootURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, errors.Errorf("root_url %q is not an http(s) URL", c.RootURL))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, errors.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RateLimit < 0 {
		result = multierror.Append(result, errors.Errorf("rate_limit must not be negative, got %v", c.RateLimit))
	}
	if c.PoolSize < 0 {
		result = multierror.Append(result, errors.Errorf("pool_size must not be negative, got %d", c.PoolSize))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		result = multierror.Append(result, errors.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		result = multierror.Append(result, errors.Errorf("unknown log_format %q", c.LogFormat))
	}
	return result
}

func (c *Config) ConnectionOptions() []connection.Option {
	opts := []connection.Option{
		connection.WithFaunaRoot(c.RootURL),
		connection.WithTimeout(c.Timeout),
	}
	if c.RootToken != "" {
		opts = append(opts, connection.WithAuthToken(c.RootToken))
	}
	if c.RateLimit > 0 {
		opts = append(opts, connection.WithRateLimit(c.RateLimit))
	}
	return opts
}

// ClientOptions writes logs to out.
func (c *Config) ClientOptions(out io.Writer) []client.Option {
	return []client.Option{
		client.WithPoolSize(c.PoolSize),
		client.WithLogger(c.Logger(out)),
	}
}

func (c *Config) Logger(out io.Writer) *slog.Logger {
	return logger.New(logger.Config{Level: c.LogLevel, Format: c.LogFormat, Output: out})
}
