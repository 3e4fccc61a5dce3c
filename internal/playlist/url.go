package playlist

import (
	"net/url"
	"strings"
)

// ResolveURI joins a relative stream URI onto the directory of baseURL.
// URIs that already carry an http(s) scheme are returned unchanged.
func ResolveURI(baseURL, uri string) string {
	lower := strings.ToLower(uri)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return uri
	}
	dir := baseDir(baseURL)
	if dir == "" {
		return uri
	}
	if strings.HasPrefix(uri, "/") {
		return hostRoot(dir) + uri
	}
	return dir + uri
}

// hostRoot trims dir (scheme://host/...) down to scheme://host.
func hostRoot(dir string) string {
	i := strings.Index(dir, "://")
	if j := strings.Index(dir[i+3:], "/"); j >= 0 {
		return dir[:i+3+j]
	}
	return dir
}

// baseDir returns scheme://host/path-up-to-last-slash/ of raw, or "" when
// raw is not an absolute URL.
func baseDir(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[:i+1]
	} else {
		p = "/"
	}
	return u.Scheme + "://" + u.Host + p
}
