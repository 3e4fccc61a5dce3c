package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voyagen/iptvhub/internal/logging"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
)

var (
	fetchFlags      sourceFlags
	fetchSeriesID   string
	fetchStreamID   string
	fetchNoFallback bool
)

var fetchCmd = &cobra.Command{
	Use:       "fetch KIND",
	Short:     "Resolve one catalog collection and print it as JSON",
	Long:      "KIND is one of live, movies, series, epg or series_detail.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"live", "movies", "series", "epg", "series_detail"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := models.ParseResourceKind(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("unknown kind %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if fetchNoFallback {
			cfg.StaticFallback = false
		}
		logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

		req := source.Request{Source: fetchFlags.config(), Kind: kind}
		switch kind {
		case models.ResourceSeriesDetail:
			if fetchSeriesID == "" {
				return fmt.Errorf("--series-id is required for series_detail")
			}
			req.ID = fetchSeriesID
		case models.ResourceEPG:
			req.ID = fetchStreamID
		}

		res, err := newResolver(cfg, logger).Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Catalog)
	},
}

func init() {
	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchSeriesID, "series-id", "", "series id for series_detail")
	fetchCmd.Flags().StringVar(&fetchStreamID, "stream-id", "", "channel stream id for epg")
	fetchCmd.Flags().BoolVar(&fetchNoFallback, "no-fallback", false, "fail instead of serving the sample catalog")
}
