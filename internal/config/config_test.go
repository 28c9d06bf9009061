package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/conneroisu/mdbook-wikilinks/internal/errors"
	"github.com/conneroisu/mdbook-wikilinks/internal/logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ".md", cfg.Rewriter().Extension())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".wikilinks.yml")
	content := "log:\n  level: debug\n  format: json\nlinks:\n  extension: .html\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ".html", cfg.Links.Extension)

	logCfg := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WIKILINKS_LOG_LEVEL", "error")
	t.Setenv("WIKILINKS_LINKS_EXTENSION", ".htm")

	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ".htm", cfg.Links.Extension)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown level", KeyLogLevel, "loud"},
		{"unknown format", KeyLogFormat, "xml"},
		{"extension without dot", KeyLinksExtension, "md"},
		{"extension only dot", KeyLinksExtension, "."},
		{"extension with space", KeyLinksExtension, ".m d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)

			_, err := LoadFrom(v)
			require.Error(t, err)
			assert.True(t, perrors.IsConfigError(err))
		})
	}
}

func TestValidateDefault(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
