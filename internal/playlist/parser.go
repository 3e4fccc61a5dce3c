// Package playlist parses M3U playlists and assembles their entries into
// live channels, movies and series.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/voyagen/iptvhub/internal/models"
)

const (
	headerTag = "#EXTM3U"
	extinfTag = "#EXTINF:"
	bom       = "\ufeff"
)

// idSpace is the namespace for name-based entry and series IDs, so the same
// playlist always yields the same IDs.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/voyagen/iptvhub/playlist"))

// Entry is one #EXTINF line paired with its stream URI.
type Entry struct {
	ID         string
	TvgID      string
	Name       string
	LogoURL    string
	GroupTitle string
	Duration   int
	StreamURI  string
}

// Options tune Scan and Parse.
type Options struct {
	// MaxLines stops reading after this many lines. Zero reads everything.
	MaxLines int
	// StrictSeriesMatch merges episodes only into series with an equal title.
	StrictSeriesMatch bool
}

// Scan walks r and calls fn for every complete EXTINF/URI pair, in file
// order. Relative URIs are resolved against baseURL. The first non-blank
// line must start with #EXTM3U, else ErrInvalidFormat is returned. An EXTINF
// without a following URI is dropped. It returns how many lines were read,
// never more than maxLines when maxLines is positive.
func Scan(r io.Reader, baseURL string, maxLines int, fn func(Entry) error) (int, error) {
	scanner := bufio.NewScanner(r)
	// Some playlists carry very long EXTINF lines.
	const maxSize = 1024 * 1024
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxSize)

	var (
		pending   *Header
		seenStart bool
		lines     int
		count     int
	)
	for scanner.Scan() {
		if maxLines > 0 && lines == maxLines {
			break
		}
		lines++
		line := strings.TrimSpace(scanner.Text())
		if !seenStart {
			line = strings.TrimPrefix(line, bom)
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, headerTag) {
				return lines, fmt.Errorf("%w: missing %s header", models.ErrInvalidFormat, headerTag)
			}
			seenStart = true
			continue
		}

		switch {
		case line == "":
		case strings.HasPrefix(line, extinfTag):
			h := ParseEntryHeader(line)
			pending = &h
		case strings.HasPrefix(line, "#"):
			// Other directives (#EXTVLCOPT, #EXT-X-KEY, ...) carry nothing we use.
		default:
			if pending == nil {
				continue
			}
			count++
			if err := fn(newEntry(*pending, ResolveURI(baseURL, line), count)); err != nil {
				return lines, err
			}
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("scan playlist: %w", err)
	}
	if !seenStart {
		return lines, fmt.Errorf("%w: empty playlist", models.ErrInvalidFormat)
	}
	return lines, nil
}

// Parse reads a whole playlist and assembles it.
func Parse(r io.Reader, baseURL string, opts Options) (*Playlist, error) {
	a := NewAssembler(opts.StrictSeriesMatch)
	_, err := Scan(r, baseURL, opts.MaxLines, func(e Entry) error {
		a.Add(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.Playlist(), nil
}

// LooksLikeM3U reports whether data starts with an #EXTM3U header.
func LooksLikeM3U(data []byte) bool {
	s := strings.TrimLeft(strings.TrimPrefix(string(data), bom), " \t\r\n")
	return strings.HasPrefix(s, headerTag)
}

func newEntry(h Header, uri string, n int) Entry {
	name := h.Name
	switch {
	case name != "":
	case h.TvgName != "":
		name = h.TvgName
	case h.TvgID != "":
		name = h.TvgID
	default:
		name = fmt.Sprintf("Item %d", n)
	}
	return Entry{
		ID:         nameID(h.TvgID, name, uri),
		TvgID:      h.TvgID,
		Name:       name,
		LogoURL:    h.TvgLogo,
		GroupTitle: h.GroupTitle,
		Duration:   h.Duration,
		StreamURI:  uri,
	}
}

func nameID(parts ...string) string {
	return uuid.NewSHA1(idSpace, []byte(strings.Join(parts, "\x1f"))).String()
}
