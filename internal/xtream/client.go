// Package xtream talks to Xtream-Codes panels and maps their JSON into the
// catalog model.
package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/voyagen/iptvhub/internal/models"
)

const (
	pathPlayerAPI = "player_api.php"

	actionLiveCategories   = "get_live_categories"
	actionVODCategories    = "get_vod_categories"
	actionSeriesCategories = "get_series_categories"
	actionLiveStreams      = "get_live_streams"
	actionVODStreams       = "get_vod_streams"
	actionSeries           = "get_series"
	actionSeriesInfo       = "get_series_info"
	actionShortEPG         = "get_short_epg"

	defaultLiveExt = "m3u8"
	defaultVODExt  = "mp4"
)

// Getter performs one bounded GET. fetcher.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Client calls player_api.php for one source.
type Client struct {
	src     models.SourceConfig
	root    string
	getter  Getter
	timeout time.Duration
}

// NewClient creates a Client whose requests are each bounded by timeout.
func NewClient(src models.SourceConfig, getter Getter, timeout time.Duration) *Client {
	return &Client{src: src, root: Root(src.BaseURL), getter: getter, timeout: timeout}
}

// Root strips the query and any trailing endpoint segment (player_api.php,
// get.php, xmltv.php or a playlist file) from baseURL.
func Root(baseURL string) string {
	raw := strings.TrimSpace(baseURL)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimRight(raw, "/")
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	last := strings.ToLower(path.Base(u.Path))
	switch {
	case last == "player_api.php", last == "get.php", last == "xmltv.php",
		strings.HasSuffix(last, ".m3u"), strings.HasSuffix(last, ".m3u8"):
		u.Path = strings.TrimRight(path.Dir(u.Path), "/")
	}
	return strings.TrimRight(u.String(), "/")
}

// Root returns the stream root used for player_api.php and stream URLs.
func (c *Client) Root() string { return c.root }

func (c *Client) apiURL(action string, params url.Values) string {
	q := url.Values{}
	q.Set("username", c.src.Username)
	q.Set("password", c.src.Password)
	if action != "" {
		q.Set("action", action)
	}
	for k, v := range params {
		q[k] = v
	}
	return c.root + "/" + pathPlayerAPI + "?" + q.Encode()
}

// Action GETs player_api.php with action and extra params and returns the raw body.
func (c *Client) Action(ctx context.Context, action string, params url.Values) ([]byte, error) {
	body, err := c.getter.Get(ctx, c.apiURL(action, params), c.timeout)
	if err != nil {
		return nil, fmt.Errorf("xtream %s: %w", displayAction(action), err)
	}
	return body, nil
}

func displayAction(action string) string {
	if action == "" {
		return "auth"
	}
	return action
}

// Authenticate probes player_api.php without an action.
func (c *Client) Authenticate(ctx context.Context) (*AuthInfo, error) {
	body, err := c.Action(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	var info AuthInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("xtream auth: %w: %v", models.ErrInvalidFormat, err)
	}
	if !info.UserInfo.Authenticated() {
		return &info, fmt.Errorf("xtream auth: credentials rejected (status %q)", info.UserInfo.Status)
	}
	return &info, nil
}

// Categories returns category_id to category_name for kind. Lookup failures
// degrade to an empty map; items then fall back to their own fields.
func (c *Client) Categories(ctx context.Context, kind models.ResourceKind) map[string]string {
	var action string
	switch kind {
	case models.ResourceLive:
		action = actionLiveCategories
	case models.ResourceMovies:
		action = actionVODCategories
	case models.ResourceSeries:
		action = actionSeriesCategories
	default:
		return map[string]string{}
	}
	body, err := c.Action(ctx, action, nil)
	if err != nil {
		return map[string]string{}
	}
	return MapCategories(body)
}

// Fetch resolves one resource kind. id is the series id for series detail
// and the stream id for EPG.
func (c *Client) Fetch(ctx context.Context, kind models.ResourceKind, id string) (*models.CatalogResult, error) {
	out := &models.CatalogResult{Source: models.OriginXtream}
	switch kind {
	case models.ResourceLive:
		cats := c.Categories(ctx, kind)
		body, err := c.Action(ctx, actionLiveStreams, nil)
		if err != nil {
			return nil, err
		}
		if out.Channels, err = MapLive(body, c.src, cats); err != nil {
			return nil, err
		}
	case models.ResourceMovies:
		cats := c.Categories(ctx, kind)
		body, err := c.Action(ctx, actionVODStreams, nil)
		if err != nil {
			return nil, err
		}
		if out.Movies, err = MapMovies(body, c.src, cats); err != nil {
			return nil, err
		}
	case models.ResourceSeries:
		cats := c.Categories(ctx, kind)
		body, err := c.Action(ctx, actionSeries, nil)
		if err != nil {
			return nil, err
		}
		if out.Series, err = MapSeriesList(body, c.src, cats); err != nil {
			return nil, err
		}
	case models.ResourceSeriesDetail:
		if id == "" {
			return nil, fmt.Errorf("xtream series detail: %w: missing series id", models.ErrUnsupportedResource)
		}
		body, err := c.Action(ctx, actionSeriesInfo, url.Values{"series_id": {id}})
		if err != nil {
			return nil, err
		}
		s, err := MapSeriesDetail(body, c.src, id)
		if err != nil {
			return nil, err
		}
		out.Series = []models.Series{*s}
	case models.ResourceEPG:
		if id == "" {
			return nil, fmt.Errorf("xtream epg: %w: missing stream id", models.ErrUnsupportedResource)
		}
		body, err := c.Action(ctx, actionShortEPG, url.Values{"stream_id": {id}})
		if err != nil {
			return nil, err
		}
		if out.EPG, err = MapEPG(body, id); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("xtream %s: %w", kind, models.ErrUnsupportedResource)
	}
	return out, nil
}

// StreamURL builds {root}/{live|movie|series}/{user}/{pass}/{id}.{ext}.
func StreamURL(src models.SourceConfig, kind models.ContentKind, id, ext string) string {
	segment := "live"
	switch kind {
	case models.KindMovie:
		segment = "movie"
	case models.KindSeries:
		segment = "series"
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = defaultVODExt
		if kind == models.KindLive {
			ext = defaultLiveExt
		}
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		Root(src.BaseURL), segment,
		url.PathEscape(src.Username), url.PathEscape(src.Password),
		url.PathEscape(id), ext)
}
