package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/fetcher"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/sample"
)

const testPlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="c1" tvg-logo="http://i/1.png" group-title="Esportes",Canal Um
http://cdn/live/1.ts
#EXTINF:-1 group-title="Filmes",Filme Bom (2020)
http://cdn/movie/2.mp4
#EXTINF:-1 group-title="Series",Show Name S01E02
http://cdn/series/4.mp4
#EXTINF:-1 group-title="Series",Show Name S01E01
http://cdn/series/3.mp4
`

// upstream is a fake IPTV host whose routes are set per test. Unrouted
// paths answer 404.
type upstream struct {
	*httptest.Server
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   []string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{routes: make(map[string]http.HandlerFunc)}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits = append(u.hits, r.URL.Path)
		h, ok := u.routes[r.URL.Path]
		u.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) route(path string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = h
}

func servePlaylist(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func newTestResolver(opts Options) *Resolver {
	return NewResolver(fetcher.New(), opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveOnlyPlaylistTemplateWorks(t *testing.T) {
	up := newUpstream(t)
	up.route("/playlist.m3u", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "u" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, testPlaylist)
	})

	r := newTestResolver(DefaultOptions())
	res, err := r.Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL, Username: "u", Password: "p"},
		Kind:   models.ResourceLive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OriginM3U, res.Catalog.Source)
	require.Len(t, res.Catalog.Channels, 1)
	assert.Equal(t, "Esportes", res.Catalog.Channels[0].Category)

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, StrategyXtream, res.Attempts[0].Strategy, "bare host tries xtream first")
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.Equal(t, StrategyM3U, res.Attempts[1].Strategy)
	assert.Empty(t, res.Attempts[1].Error)
	assert.NotContains(t, res.Attempts[1].Target, "password=p")
}

func TestResolveFallsBackToSample(t *testing.T) {
	up := newUpstream(t)

	r := newTestResolver(DefaultOptions())
	res, err := r.Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/list", Username: "u", Password: "p"},
		Kind:   models.ResourceMovies,
	})
	require.NoError(t, err)
	assert.Equal(t, sample.Catalog(), res.Catalog)
	assert.NotEmpty(t, res.Catalog.Channels)
	assert.NotEmpty(t, res.Catalog.Movies)
	assert.NotEmpty(t, res.Catalog.Series)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, StrategyM3U, res.Attempts[0].Strategy)
	assert.Equal(t, StrategyXtream, res.Attempts[1].Strategy)
}

func TestResolveFallbackDisabled(t *testing.T) {
	up := newUpstream(t)
	opts := DefaultOptions()
	opts.StaticFallback = false

	_, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/list.m3u"},
		Kind:   models.ResourceLive,
	})
	require.Error(t, err)
	var herr *models.HTTPError
	assert.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)
	assert.Contains(t, err.Error(), "xtream")
}

func TestResolveCrossFallbackToXtream(t *testing.T) {
	up := newUpstream(t)
	up.route("/get.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><title>Blocked</title></html>")
	})
	up.route("/player_api.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "get_live_categories":
			_, _ = io.WriteString(w, `[{"category_id":"2","category_name":"Sports"}]`)
		case "get_live_streams":
			_, _ = io.WriteString(w, `[{"stream_id":5,"name":"X","category_id":"2"}]`)
		default:
			http.NotFound(w, r)
		}
	})

	opts := DefaultOptions()
	opts.StaticFallback = false
	res, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/get.php", Username: "u", Password: "p"},
		Kind:   models.ResourceLive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OriginXtream, res.Catalog.Source)
	require.Len(t, res.Catalog.Channels, 1)
	assert.Equal(t, "Sports", res.Catalog.Channels[0].Category)
	assert.Equal(t, up.URL+"/live/u/p/5.m3u8", res.Catalog.Channels[0].DirectURL)
}

func TestResolveEmptyKindIsFailure(t *testing.T) {
	up := newUpstream(t)
	up.route("/list.m3u", servePlaylist("#EXTM3U\n#EXTINF:-1,Canal\nhttp://cdn/1.ts\n"))

	opts := DefaultOptions()
	opts.StaticFallback = false
	_, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/list.m3u"},
		Kind:   models.ResourceMovies,
	})
	assert.ErrorIs(t, err, models.ErrEmptyResult)
}

func TestResolveSeriesGroupingAndDetail(t *testing.T) {
	up := newUpstream(t)
	up.route("/list.m3u", servePlaylist(testPlaylist))
	r := newTestResolver(DefaultOptions())
	src := models.SourceConfig{BaseURL: up.URL + "/list.m3u"}

	res, err := r.Resolve(context.Background(), Request{Source: src, Kind: models.ResourceSeries})
	require.NoError(t, err)
	require.Len(t, res.Catalog.Series, 1)
	series := res.Catalog.Series[0]
	assert.Equal(t, "Show Name", series.Title)
	require.Len(t, series.Seasons, 1)
	require.Len(t, series.Seasons[0].Episodes, 2)
	assert.Equal(t, 1, series.Seasons[0].Episodes[0].Number)
	assert.Equal(t, 2, series.Seasons[0].Episodes[1].Number)

	detail, err := r.Resolve(context.Background(), Request{Source: src, Kind: models.ResourceSeriesDetail, ID: series.ID})
	require.NoError(t, err)
	assert.Equal(t, models.OriginM3U, detail.Catalog.Source)
	assert.Equal(t, series, detail.Catalog.Series[0])
}

func TestResolveM3UEPGIsUnsupported(t *testing.T) {
	up := newUpstream(t)
	up.route("/list.m3u", servePlaylist(testPlaylist))

	opts := DefaultOptions()
	opts.StaticFallback = false
	res, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/list.m3u"},
		Kind:   models.ResourceEPG,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnsupportedResource)
	assert.Len(t, res.Attempts, 2)
}

func TestResolveStreamProxy(t *testing.T) {
	up := newUpstream(t)
	up.route("/list.m3u", servePlaylist(testPlaylist))

	opts := DefaultOptions()
	opts.StreamProxyURL = "http://proxy.local/stream"
	res, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/list.m3u"},
		Kind:   models.ResourceLive,
	})
	require.NoError(t, err)
	ch := res.Catalog.Channels[0]
	assert.Equal(t, "http://cdn/live/1.ts", ch.DirectURL)
	assert.Equal(t, "http://proxy.local/stream?url="+url.QueryEscape("http://cdn/live/1.ts"), ch.StreamURL)
}

func TestResolveTimeoutJoinsChain(t *testing.T) {
	up := newUpstream(t)
	release := make(chan struct{})
	defer close(release)
	up.route("/slow.m3u", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	opts := DefaultOptions()
	opts.ContentTimeout = 50 * time.Millisecond
	start := time.Now()
	res, err := newTestResolver(opts).Resolve(context.Background(), Request{
		Source: models.SourceConfig{BaseURL: up.URL + "/slow.m3u"},
		Kind:   models.ResourceLive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OriginFallback, res.Catalog.Source)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, strings.Contains(res.Attempts[0].Error, "timeout"))
}

func TestResolveUnknownKind(t *testing.T) {
	_, err := newTestResolver(DefaultOptions()).Resolve(context.Background(), Request{Kind: "radio"})
	assert.ErrorIs(t, err, models.ErrUnsupportedResource)
}
