package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyagen/iptvhub/internal/logging"
)

var diagnoseFlags sourceFlags

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Probe a source and print the diagnostic report as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

		rep := newResolver(cfg, logger).Diagnose(cmd.Context(), diagnoseFlags.config())
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	diagnoseFlags.register(diagnoseCmd)
}
