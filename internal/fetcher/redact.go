package fetcher

import (
	"net/url"
	"strings"
)

const redacted = "***"

var secretParams = []string{"password", "pass", "pwd", "token"}

// RedactURL masks credentials in rawURL for logs and error messages.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		changed := false
		for key := range q {
			for _, p := range secretParams {
				if strings.EqualFold(key, p) {
					q.Set(key, redacted)
					changed = true
				}
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}
	// Xtream stream paths embed credentials: /live/{user}/{pass}/{id}.ext
	parts := strings.Split(u.Path, "/")
	if len(parts) >= 5 {
		switch parts[1] {
		case "live", "movie", "series", "timeshift":
			parts[3] = redacted
			u.Path = strings.Join(parts, "/")
		}
	}
	return u.String()
}
