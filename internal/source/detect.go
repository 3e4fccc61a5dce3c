package source

import (
	"net/url"
	"strings"

	"github.com/voyagen/iptvhub/internal/models"
)

// Strategy is one way of reading a source.
type Strategy string

const (
	StrategyM3U    Strategy = "m3u"
	StrategyXtream Strategy = "xtream"
)

// Other returns the strategy tried on cross-fallback.
func (s Strategy) Other() Strategy {
	if s == StrategyM3U {
		return StrategyXtream
	}
	return StrategyM3U
}

// Detect picks the strategy to try first. An explicit portal hint wins;
// otherwise the URL is sniffed.
func Detect(src models.SourceConfig) Strategy {
	switch src.Portal {
	case models.PortalXtream:
		return StrategyXtream
	case models.PortalM3U:
		return StrategyM3U
	}

	lower := strings.ToLower(strings.TrimSpace(src.BaseURL))
	switch {
	case strings.Contains(lower, ".m3u"), strings.Contains(lower, "get.php"), strings.Contains(lower, "playlist.m3u"):
		return StrategyM3U
	case strings.Contains(lower, "player_api.php"), strings.Contains(lower, "xtream"):
		return StrategyXtream
	case bareHost(lower):
		return StrategyXtream
	default:
		return StrategyM3U
	}
}

func bareHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.Trim(u.Path, "/") == ""
}
