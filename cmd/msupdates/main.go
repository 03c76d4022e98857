// Package main provides the msupdates command, which extracts recent Microsoft
// update releases from the MSRC feed.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"msupdates/internal/config"
	"msupdates/internal/logger"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "configs/msupdates.yaml"

var (
	flagConfig     string
	flagOutput     string
	flagFormat     string
	flagLogLevel   string
	flagWindowDays int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "Output format: json, jsonl or csv (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

var rootCmd = &cobra.Command{
	Use:   "msupdates",
	Short: "extract recent Microsoft update releases",
	Long: `
msupdates lists the security update documents MSRC published within a
trailing window, extracts one record per (update, product) and writes the
deduplicated batch newest first.

Options may be supplied in a YAML configuration file. Flags override the file.
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := flagConfig
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg := config.Default()

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path = flagOutput
	}

	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(flagFormat)
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(flagLogLevel)
	}

	if flags.Changed("window-days") {
		cfg.Feed.WindowDays = flagWindowDays
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *logger.Logger {
	return logger.NewLoggerWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}
