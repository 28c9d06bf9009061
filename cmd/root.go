// Package cmd provides the command-line interface of mdbook-wikilinks.
//
// Configuration System:
//
//	Settings are resolved from several sources with clear precedence:
//	1. Command-line flags (--log-level, --log-format) - highest priority
//	2. Individual environment variables (WIKILINKS_LOG_LEVEL, ...)
//	3. Configuration file (--config, WIKILINKS_CONFIG_FILE or .wikilinks.yml) - lowest priority
//
// Environment Variables:
//
//	WIKILINKS_CONFIG_FILE: Path to custom configuration file
//	WIKILINKS_LOG_LEVEL: debug, info, warn or error
//	WIKILINKS_LOG_FORMAT: text or json
//	WIKILINKS_LINKS_EXTENSION: extension appended to link targets
package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/conneroisu/mdbook-wikilinks/internal/config"
	perrors "github.com/conneroisu/mdbook-wikilinks/internal/errors"
	"github.com/conneroisu/mdbook-wikilinks/internal/logging"
	"github.com/conneroisu/mdbook-wikilinks/internal/preprocessor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	configErr error
)

// rootCmd runs the preprocessor when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "mdbook-wikilinks",
	Short: "An mdBook preprocessor that turns [[wiki links]] into Markdown links",
	Long: `mdbook-wikilinks is an mdBook preprocessor. mdBook pipes the book as JSON
into it and reads the rewritten book back from standard output.

Link forms:
  [[page]]                  [page](page.md)
  [[page|text]]             [text](page.md)
  [[page#Some Section]]     [page](page.md#some-section)
  [[page#Some Section|text]] [text](page.md#some-section)

Any argument list runs the filter except these commands:
  supports <renderer>   exit 1 only for the renderer "not-supported"
  links [file]          list the wiki links of a request
  version               print build information
  help                  print this text
Flags are parsed before the filter runs, so an unknown flag is an error.

Add it to book.toml:
  [preprocessor.wikilinks]
  command = "mdbook-wikilinks"`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFilter,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .wikilinks.yml, can also use WIKILINKS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig initializes the configuration system.
//
// The config file is taken from --config, then WIKILINKS_CONFIG_FILE, then
// .wikilinks.yml in the current directory. A missing default file is not an
// error. Any file that exists, and any file asked for explicitly, must load.
func initConfig() {
	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WIKILINKS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wikilinks")
	}

	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			configErr = perrors.NewConfigError("failed to read config file " + viper.ConfigFileUsed()).
				WithContext("cause", err.Error())
		}
	}
}

// loadRuntime resolves the configuration and a logger writing to the
// command's error stream. The logger is usable even when loading fails.
func loadRuntime(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	fallback := logging.DefaultConfig()
	fallback.Output = cmd.ErrOrStderr()

	if configErr != nil {
		return nil, logging.NewLogger(fallback), configErr
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, logging.NewLogger(fallback), err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = cmd.ErrOrStderr()
	return cfg, logging.NewLogger(logCfg), nil
}

// runFilter reads the mdBook request from stdin and writes the rewritten
// book to stdout.
func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadRuntime(cmd)
	handler := perrors.NewErrorHandler(logger)
	if err != nil {
		handler.Handle(ctx, err)
		return err
	}

	if len(args) > 0 {
		logger.Debug(ctx, "Ignoring arguments in filter mode", "args", args)
	}

	p := preprocessor.New(cfg.Rewriter(), logger)
	if err := p.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		handler.Handle(ctx, err)
		return err
	}

	return nil
}
