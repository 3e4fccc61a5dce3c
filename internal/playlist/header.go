package playlist

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reDuration = regexp.MustCompile(`^#EXTINF:\s*(-?\d+)`)
	reTvgID    = regexp.MustCompile(`(?i)tvg-id="([^"]*)"`)
	reTvgName  = regexp.MustCompile(`(?i)tvg-name="([^"]*)"`)
	reTvgLogo  = regexp.MustCompile(`(?i)tvg-logo="([^"]*)"`)
	reGroup    = regexp.MustCompile(`(?i)group-title="([^"]*)"`)
)

// Header holds the metadata of one #EXTINF line. Absent attributes are
// empty strings.
type Header struct {
	Duration   int
	TvgID      string
	TvgName    string
	TvgLogo    string
	GroupTitle string
	// Name is the text after the last comma. Empty when the line has no comma.
	Name string
}

// ParseEntryHeader tokenizes an #EXTINF line. Duration defaults to -1.
func ParseEntryHeader(line string) Header {
	h := Header{Duration: -1}
	if m := reDuration.FindStringSubmatch(line); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			h.Duration = d
		}
	}
	h.TvgID = matchFirst(reTvgID, line)
	h.TvgName = matchFirst(reTvgName, line)
	h.TvgLogo = matchFirst(reTvgLogo, line)
	h.GroupTitle = matchFirst(reGroup, line)
	if i := strings.LastIndex(line, ","); i >= 0 {
		h.Name = strings.TrimSpace(line[i+1:])
	}
	return h
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
