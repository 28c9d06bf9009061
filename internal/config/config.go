// Package config provides configuration management for the preprocessor
// using Viper, loading values from flags, WIKILINKS_ environment variables
// and an optional .wikilinks.yml file.
//
// Every key has a default, so the preprocessor runs without any
// configuration at all.
package config

import (
	"fmt"
	"strings"

	perrors "github.com/conneroisu/mdbook-wikilinks/internal/errors"
	"github.com/conneroisu/mdbook-wikilinks/internal/links"
	"github.com/conneroisu/mdbook-wikilinks/internal/logging"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "WIKILINKS"

// Config keys.
const (
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLinksExtension = "links.extension"
)

type Config struct {
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Links LinksConfig `mapstructure:"links" yaml:"links"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type LinksConfig struct {
	Extension string `mapstructure:"extension" yaml:"extension"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Links: LinksConfig{
			Extension: links.DefaultExtension,
		},
	}
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, perrors.NewConfigError(fmt.Sprintf("failed to decode configuration: %v", err))
	}

	// Keys bound only to env vars or flags are not seen by Unmarshal.
	if v.IsSet(KeyLogLevel) {
		config.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		config.Log.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyLinksExtension) {
		config.Links.Extension = v.GetString(KeyLinksExtension)
	}

	defaults := Default()
	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}
	if config.Links.Extension == "" {
		config.Links.Extension = defaults.Links.Extension
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return perrors.NewConfigError(err.Error()).WithContext("key", KeyLogLevel)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return perrors.NewConfigError(
			fmt.Sprintf("unknown log format %q (supported: text, json)", c.Log.Format),
		).WithContext("key", KeyLogFormat)
	}

	ext := c.Links.Extension
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, " /#()[]") {
		return perrors.NewConfigError(
			fmt.Sprintf("invalid link extension %q, must look like .md", ext),
		).WithContext("key", KeyLinksExtension)
	}

	return nil
}

// LoggerConfig converts the log settings into a logger configuration.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = strings.ToLower(c.Log.Format)
	return cfg
}

// Rewriter builds the link rewriter described by the configuration.
func (c *Config) Rewriter() *links.Rewriter {
	return links.NewRewriter(links.WithExtension(c.Links.Extension))
}
