package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"msupdates/pkg/metadata"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify report.md ...",
	Short: "check that generated reports were not edited",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			meta, err := metadata.Verify(string(content))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d records, generated %s)\n",
				path, meta.Records, meta.GeneratedAt.Format(time.RFC3339))
		}

		return nil
	},
}
