package source

import (
	"net/url"

	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/xtream"
)

// Template is one M3U URL shape tried against a source's credentials.
type Template struct {
	Name  string
	build func(models.SourceConfig) string
}

// URL renders t for src.
func (t Template) URL(src models.SourceConfig) string { return t.build(src) }

// Templates are probed in this order; the first one that yields a parseable
// playlist wins.
var Templates = []Template{
	{Name: "m3u_plus_m3u8", build: func(s models.SourceConfig) string {
		return withCredentials(s.BaseURL, s, "type", "m3u_plus", "output", "m3u8")
	}},
	{Name: "get_php", build: func(s models.SourceConfig) string {
		return withCredentials(xtream.Root(s.BaseURL)+"/get.php", s, "type", "m3u_plus")
	}},
	{Name: "m3u", build: func(s models.SourceConfig) string {
		return withCredentials(s.BaseURL, s, "type", "m3u")
	}},
	{Name: "playlist_m3u", build: func(s models.SourceConfig) string {
		return withCredentials(xtream.Root(s.BaseURL)+"/playlist.m3u", s)
	}},
	{Name: "raw", build: func(s models.SourceConfig) string {
		return s.BaseURL
	}},
}

// withCredentials sets username, password and the given key/value pairs on
// raw's query, keeping any other parameters already present.
func withCredentials(raw string, src models.SourceConfig, kv ...string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("username", src.Username)
	q.Set("password", src.Password)
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	u.RawQuery = q.Encode()
	return u.String()
}
