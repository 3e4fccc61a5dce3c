package source

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		src    models.SourceConfig
		expect Strategy
	}{
		{"m3u file", models.SourceConfig{BaseURL: "http://h/list.m3u"}, StrategyM3U},
		{"m3u8 file", models.SourceConfig{BaseURL: "http://h/list.m3u8"}, StrategyM3U},
		{"get.php", models.SourceConfig{BaseURL: "http://h/get.php?username=a"}, StrategyM3U},
		{"player_api", models.SourceConfig{BaseURL: "http://h/player_api.php"}, StrategyXtream},
		{"xtream in host", models.SourceConfig{BaseURL: "http://xtream.example/panel"}, StrategyXtream},
		{"xtream with m3u", models.SourceConfig{BaseURL: "http://xtream.example/a.m3u"}, StrategyM3U},
		{"bare host", models.SourceConfig{BaseURL: "http://h:8080"}, StrategyXtream},
		{"bare host slash", models.SourceConfig{BaseURL: "http://h:8080/"}, StrategyXtream},
		{"path", models.SourceConfig{BaseURL: "http://h/some/list"}, StrategyM3U},
		{"hint overrides", models.SourceConfig{BaseURL: "http://h/list.m3u", Portal: models.PortalXtream}, StrategyXtream},
		{"m3u hint on bare host", models.SourceConfig{BaseURL: "http://h", Portal: models.PortalM3U}, StrategyM3U},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Detect(tt.src))
		})
	}
}

func TestStrategyOther(t *testing.T) {
	assert.Equal(t, StrategyXtream, StrategyM3U.Other())
	assert.Equal(t, StrategyM3U, StrategyXtream.Other())
}

func TestTemplatesOrder(t *testing.T) {
	src := models.SourceConfig{BaseURL: "http://h:80/", Username: "u", Password: "p"}

	names := make([]string, 0, len(Templates))
	for _, tpl := range Templates {
		names = append(names, tpl.Name)
	}
	assert.Equal(t, []string{"m3u_plus_m3u8", "get_php", "m3u", "playlist_m3u", "raw"}, names)

	parse := func(i int) *url.URL {
		u, err := url.Parse(Templates[i].URL(src))
		require.NoError(t, err)
		return u
	}

	first := parse(0).Query()
	assert.Equal(t, "u", first.Get("username"))
	assert.Equal(t, "p", first.Get("password"))
	assert.Equal(t, "m3u_plus", first.Get("type"))
	assert.Equal(t, "m3u8", first.Get("output"))

	assert.Equal(t, "/get.php", parse(1).Path)
	assert.Equal(t, "m3u_plus", parse(1).Query().Get("type"))
	assert.Equal(t, "m3u", parse(2).Query().Get("type"))
	assert.Equal(t, "/playlist.m3u", parse(3).Path)
	assert.Equal(t, "u", parse(3).Query().Get("username"))
	assert.Equal(t, "http://h:80/", Templates[4].URL(src))
}

func TestTemplatesKeepExistingQuery(t *testing.T) {
	src := models.SourceConfig{BaseURL: "http://h/get.php?username=old&output=ts", Username: "u", Password: "p"}
	u, err := url.Parse(Templates[2].URL(src))
	require.NoError(t, err)
	assert.Equal(t, "u", u.Query().Get("username"))
	assert.Equal(t, "ts", u.Query().Get("output"))
	assert.Equal(t, "/get.php", u.Path)
}
