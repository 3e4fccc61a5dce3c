package xtream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/voyagen/iptvhub/internal/models"
)

// wrapperKeys are the envelope fields panels use around item arrays.
var wrapperKeys = []string{"channels", "movies", "series", "data"}

var reYear = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// unwrap accepts a bare JSON array or an object wrapping one.
func unwrap(raw []byte) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, models.ErrEmptyResult
	}
	var items []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
		}
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}
	for _, key := range wrapperKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, &items); err == nil {
			return items, nil
		}
	}
	return nil, models.ErrEmptyResult
}

// MapCategories turns a get_*_categories response into id to name.
func MapCategories(raw []byte) map[string]string {
	out := make(map[string]string)
	items, err := unwrap(raw)
	if err != nil {
		return out
	}
	for _, item := range items {
		var c category
		if json.Unmarshal(item, &c) != nil || c.ID == "" {
			continue
		}
		if name := strings.TrimSpace(c.Name); name != "" {
			out[c.ID.String()] = name
		}
	}
	return out
}

// resolveCategory picks the category map entry, then the item's own name,
// then the raw id, then the default.
func resolveCategory(cats map[string]string, id FlexString, name string) string {
	if v, ok := cats[id.String()]; ok && v != "" {
		return v
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if id != "" {
		return id.String()
	}
	return models.DefaultCategory
}

// MapLive maps get_live_streams to channels.
func MapLive(raw []byte, src models.SourceConfig, cats map[string]string) ([]models.Channel, error) {
	items, err := unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("map live: %w", err)
	}
	out := make([]models.Channel, 0, len(items))
	for _, item := range items {
		var s liveStream
		if json.Unmarshal(item, &s) != nil || s.StreamID == "" {
			continue
		}
		direct := StreamURL(src, models.KindLive, s.StreamID.String(), s.ContainerExtension)
		out = append(out, models.Channel{
			ID:        s.StreamID.String(),
			Name:      s.Name,
			LogoURL:   s.StreamIcon,
			StreamURL: direct,
			DirectURL: direct,
			Category:  resolveCategory(cats, s.CategoryID, s.CategoryName),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("map live: %w", models.ErrEmptyResult)
	}
	return out, nil
}

// MapMovies maps get_vod_streams to movies.
func MapMovies(raw []byte, src models.SourceConfig, cats map[string]string) ([]models.Movie, error) {
	items, err := unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("map movies: %w", err)
	}
	out := make([]models.Movie, 0, len(items))
	for _, item := range items {
		var v vodStream
		if json.Unmarshal(item, &v) != nil || v.StreamID == "" {
			continue
		}
		direct := StreamURL(src, models.KindMovie, v.StreamID.String(), v.ContainerExtension)
		out = append(out, models.Movie{
			ID:          v.StreamID.String(),
			Title:       v.Name,
			Poster:      v.StreamIcon,
			Description: v.Plot,
			Year:        movieYear(v),
			Category:    resolveCategory(cats, v.CategoryID, v.CategoryName),
			StreamURL:   direct,
			DirectURL:   direct,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("map movies: %w", models.ErrEmptyResult)
	}
	return out, nil
}

func movieYear(v vodStream) int {
	if y, err := strconv.Atoi(strings.TrimSpace(v.Year.String())); err == nil && y > 0 {
		return y
	}
	if m := reYear.FindString(v.ReleaseDate); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

// MapSeriesList maps get_series to series without seasons.
func MapSeriesList(raw []byte, src models.SourceConfig, cats map[string]string) ([]models.Series, error) {
	items, err := unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("map series: %w", err)
	}
	out := make([]models.Series, 0, len(items))
	for _, item := range items {
		var s seriesStream
		if json.Unmarshal(item, &s) != nil || s.SeriesID == "" {
			continue
		}
		out = append(out, models.Series{
			ID:          s.SeriesID.String(),
			Title:       s.Name,
			Poster:      s.Cover,
			Description: s.Plot,
			Category:    resolveCategory(cats, s.CategoryID, s.CategoryName),
			Seasons:     []models.Season{},
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("map series: %w", models.ErrEmptyResult)
	}
	return out, nil
}

// MapSeriesDetail reshapes get_series_info into one series. Season numbers
// come from the keys of the episodes object; a flat episodes array is
// grouped by each episode's season field.
func MapSeriesDetail(raw []byte, src models.SourceConfig, fallbackID string) (*models.Series, error) {
	var info seriesInfo
	if err := json.Unmarshal(bytes.TrimSpace(raw), &info); err != nil {
		return nil, fmt.Errorf("map series detail: %w: %v", models.ErrInvalidFormat, err)
	}

	id := info.Info.SeriesID.String()
	if id == "" {
		id = fallbackID
	}
	series := &models.Series{
		ID:          id,
		Title:       info.Info.Name,
		Poster:      info.Info.Cover,
		Description: info.Info.Plot,
		Category:    resolveCategory(nil, info.Info.CategoryID, info.Info.CategoryName),
	}

	grouped, err := groupEpisodes(info.Episodes)
	if err != nil {
		return nil, fmt.Errorf("map series detail: %w", err)
	}
	for number, eps := range grouped {
		season := models.Season{ID: fmt.Sprintf("%s-s%d", id, number), Number: number}
		for i, e := range eps {
			n := int(e.EpisodeNum.Int())
			if n < 1 {
				n = i + 1
			}
			title := strings.TrimSpace(e.Title)
			if title == "" {
				title = fmt.Sprintf("Episódio %d", n)
			}
			direct := StreamURL(src, models.KindSeries, e.ID.String(), e.ContainerExtension)
			season.Episodes = upsertEpisode(season.Episodes, models.Episode{
				ID:        e.ID.String(),
				Title:     title,
				Number:    n,
				StreamURL: direct,
				DirectURL: direct,
			})
		}
		series.Seasons = append(series.Seasons, season)
	}
	if len(series.Seasons) == 0 {
		return nil, fmt.Errorf("map series detail: %w", models.ErrEmptyResult)
	}
	slices.SortFunc(series.Seasons, func(a, b models.Season) int { return a.Number - b.Number })
	if series.Title == "" {
		series.Title = "Série " + id
	}
	return series, nil
}

func groupEpisodes(raw json.RawMessage) (map[int][]episode, error) {
	raw = bytes.TrimSpace(raw)
	out := make(map[int][]episode)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	if raw[0] == '[' {
		var flat []episode
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
		}
		for _, e := range flat {
			if e.ID == "" {
				continue
			}
			n := max(int(e.Season.Int()), 1)
			out[n] = append(out[n], e)
		}
		return out, nil
	}

	var bySeason map[string][]episode
	if err := json.Unmarshal(raw, &bySeason); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
	}
	for key, eps := range bySeason {
		for _, e := range eps {
			if e.ID == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || n < 1 {
				n = max(int(e.Season.Int()), 1)
			}
			out[n] = append(out[n], e)
		}
	}
	return out, nil
}

// upsertEpisode keeps episodes sorted by number; a repeated number replaces
// the earlier entry.
func upsertEpisode(eps []models.Episode, e models.Episode) []models.Episode {
	i, found := slices.BinarySearchFunc(eps, e.Number, func(x models.Episode, n int) int { return x.Number - n })
	if found {
		eps[i] = e
		return eps
	}
	return slices.Insert(eps, i, e)
}

// MapEPG maps get_short_epg listings for one channel. Panels either
// base64-encode every title and description or none of them, so the choice
// is made once per response.
func MapEPG(raw []byte, channelID string) ([]models.EpgItem, error) {
	var resp struct {
		Listings []epgListing `json:"epg_listings"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &resp); err != nil {
		return nil, fmt.Errorf("map epg: %w: %v", models.ErrInvalidFormat, err)
	}
	text := strings.TrimSpace
	if listingsEncoded(resp.Listings) {
		text = decodeText
	}
	out := make([]models.EpgItem, 0, len(resp.Listings))
	for i, l := range resp.Listings {
		id := l.ID.String()
		if id == "" {
			id = fmt.Sprintf("%s-%d", channelID, i)
		}
		out = append(out, models.EpgItem{
			ID:          id,
			ChannelID:   channelID,
			Title:       text(l.Title),
			Description: text(l.Description),
			Start:       l.startTime(),
			End:         l.endTime(),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("map epg: %w", models.ErrEmptyResult)
	}
	return out, nil
}

// listingsEncoded reports whether every non-empty title and description is
// canonical base64 of printable UTF-8 carrying a trait plain words lack
// (padding, '+', '/', a digit or inner capitals).
func listingsEncoded(listings []epgListing) bool {
	seen := false
	for _, l := range listings {
		for _, v := range []string{l.Title, l.Description} {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := decodeBase64(v); !ok || !looksEncoded(v) {
				return false
			}
			seen = true
		}
	}
	return seen
}

func looksEncoded(s string) bool {
	if strings.ContainsAny(s, "=+/0123456789") {
		return true
	}
	for _, r := range s[1:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// decodeBase64 decodes s only when it re-encodes to exactly s and yields
// printable UTF-8.
func decodeBase64(s string) (string, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(b) || base64.StdEncoding.EncodeToString(b) != s {
		return "", false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return "", false
		}
	}
	return string(b), true
}

// decodeText decodes one base64 field. Values that are not base64 are
// returned trimmed but otherwise unchanged.
func decodeText(s string) string {
	s = strings.TrimSpace(s)
	if d, ok := decodeBase64(s); ok {
		return strings.TrimSpace(d)
	}
	return s
}
