package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyagen/iptvhub/internal/config"
	"github.com/voyagen/iptvhub/internal/fetcher"
	"github.com/voyagen/iptvhub/internal/logging"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "iptvhub",
	Short: "IPTV playlist ingestion and catalog API",
	Long: `iptvhub reads IPTV sources, either M3U playlists or Xtream Codes panels,
and turns them into a normalized catalog of live channels, movies, series
and EPG. When a source cannot be read it falls back to the other strategy
and finally to a bundled sample catalog.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML or TOML); environment variables are used otherwise")
	rootCmd.AddCommand(serveCmd, diagnoseCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// newResolver builds the fetcher and resolver shared by every command.
func newResolver(cfg *config.Config, logger *slog.Logger) *source.Resolver {
	f := fetcher.New(
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodyBytes),
		fetcher.WithLogger(logging.WithComponent(logger, "fetcher")),
	)
	return source.NewResolver(f, source.Options{
		ContentTimeout:    cfg.ContentTimeout,
		ProbeTimeout:      cfg.ProbeTimeout,
		QuickParseTimeout: cfg.QuickParseTimeout,
		StaticFallback:    cfg.StaticFallback,
		StrictSeriesMatch: cfg.StrictSeriesMatch,
		StreamProxyURL:    cfg.StreamProxyURL,
	}, logging.WithComponent(logger, "resolver"))
}

// sourceFlags are the per-request source flags of diagnose and fetch.
type sourceFlags struct {
	url      string
	username string
	password string
	portal   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "source URL (playlist or panel)")
	cmd.Flags().StringVar(&f.username, "username", "", "source username")
	cmd.Flags().StringVar(&f.password, "password", "", "source password")
	cmd.Flags().StringVar(&f.portal, "portal", "", "portal hint: xtream or m3u")
	_ = cmd.MarkFlagRequired("url")
}

func (f *sourceFlags) config() models.SourceConfig {
	return models.SourceConfig{
		BaseURL:  f.url,
		Username: f.username,
		Password: f.password,
		Portal:   models.ParsePortalKind(f.portal),
	}
}
