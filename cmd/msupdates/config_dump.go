package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var flagDumpFile string

func init() {
	configDumpCmd.Flags().StringVar(&flagDumpFile, "file", "", "Write the configuration to this file instead of stdout")
	configDumpCmd.Flags().IntVar(&flagWindowDays, "window-days", 0, "Trailing publication window in days (overrides config)")
	rootCmd.AddCommand(configDumpCmd)
}

var configDumpCmd = &cobra.Command{
	Use:   "config-dump",
	Short: "dump the effective configuration in yaml format",
	Long: `
Dump the effective configuration in yaml format.

The following precedence is used when reading configs:
1. CLI flags
2. Config file
3. Default values
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if flagDumpFile != "" {
			if err := cfg.SaveConfig(flagDumpFile); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", flagDumpFile)

			return nil
		}

		buf, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		_, err = cmd.OutOrStdout().Write(buf)

		return err
	},
}
