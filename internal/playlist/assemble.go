package playlist

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/voyagen/iptvhub/internal/classify"
	"github.com/voyagen/iptvhub/internal/models"
)

var (
	reSeasonEpisode  = regexp.MustCompile(`(?i)S(\d+)\s*E(\d+)`)
	reTemporada      = regexp.MustCompile(`(?i)Temporada\s*(\d+).*?Epis[oó]dio\s*(\d+)`)
	reEpisodeOnly    = regexp.MustCompile(`(?i)(?:Epis[oó]dio|\bEp\.?)\s*(\d+)`)
	// reTrailingNumber matches "Naruto 15" or "Chaves - 03". Four digits are
	// left alone so a trailing year is not read as an episode.
	reTrailingNumber = regexp.MustCompile(`[\s\-–—#]+(\d{1,3})$`)
	reYear           = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
)

// titleTrim is stripped from the end of a series title once the episode
// marker has been cut off.
const titleTrim = " \t-–—:|._"

// Playlist is the assembled output of one M3U document.
type Playlist struct {
	Live   []models.Channel
	Movies []models.Movie
	Series []models.Series
}

// Len is the total number of assembled entries, counting every episode.
func (p *Playlist) Len() int {
	n := len(p.Live) + len(p.Movies)
	for _, s := range p.Series {
		for _, season := range s.Seasons {
			n += len(season.Episodes)
		}
	}
	return n
}

// Assembler classifies entries in file order and groups episodes into
// series. Series matching is first-match-wins over the series seen so far.
type Assembler struct {
	strict bool
	live   []models.Channel
	movies []models.Movie
	series []models.Series
	keys   []seriesKey
}

type seriesKey struct {
	title string
	first string
}

// NewAssembler returns an empty Assembler. With strict set, only titles that
// are equal after case folding are merged.
func NewAssembler(strict bool) *Assembler {
	return &Assembler{strict: strict}
}

// Add classifies e and appends it to the matching collection.
func (a *Assembler) Add(e Entry) {
	switch classify.Classify(e.GroupTitle, e.Name) {
	case models.KindMovie:
		title, year := splitYear(e.Name)
		a.movies = append(a.movies, models.Movie{
			ID:        e.ID,
			Title:     title,
			Poster:    e.LogoURL,
			Year:      year,
			Category:  classify.CategoryOr(e.GroupTitle, models.DefaultCategory),
			StreamURL: e.StreamURI,
			DirectURL: e.StreamURI,
		})
	case models.KindSeries:
		a.addEpisode(e)
	default:
		a.live = append(a.live, models.Channel{
			ID:        e.ID,
			Name:      e.Name,
			LogoURL:   e.LogoURL,
			StreamURL: e.StreamURI,
			DirectURL: e.StreamURI,
			Category:  classify.CategoryOr(e.GroupTitle, models.DefaultChannelCategory),
		})
	}
}

// Playlist returns the collections assembled so far.
func (a *Assembler) Playlist() *Playlist {
	return &Playlist{Live: a.live, Movies: a.movies, Series: a.series}
}

func (a *Assembler) addEpisode(e Entry) {
	title, seasonNum, episodeNum := SplitEpisode(e.Name)
	ep := models.Episode{
		ID:        e.ID,
		Title:     e.Name,
		Number:    episodeNum,
		StreamURL: e.StreamURI,
		DirectURL: e.StreamURI,
	}

	key := newSeriesKey(title)
	idx := a.findSeries(key)
	if idx < 0 {
		id := nameID("series", key.title)
		a.series = append(a.series, models.Series{
			ID:       id,
			Title:    title,
			Poster:   e.LogoURL,
			Category: classify.CategoryOr(e.GroupTitle, models.DefaultCategory),
			Seasons: []models.Season{{
				ID:       seasonID(id, seasonNum),
				Number:   seasonNum,
				Episodes: []models.Episode{ep},
			}},
		})
		a.keys = append(a.keys, key)
		return
	}

	s := &a.series[idx]
	if s.Poster == "" {
		s.Poster = e.LogoURL
	}
	pos, found := slices.BinarySearchFunc(s.Seasons, seasonNum, func(se models.Season, n int) int {
		return se.Number - n
	})
	if !found {
		s.Seasons = slices.Insert(s.Seasons, pos, models.Season{
			ID:     seasonID(s.ID, seasonNum),
			Number: seasonNum,
		})
	}
	season := &s.Seasons[pos]
	epPos, epFound := slices.BinarySearchFunc(season.Episodes, ep.Number, func(x models.Episode, n int) int {
		return x.Number - n
	})
	if epFound {
		// Last parsed wins on a duplicate episode number.
		season.Episodes[epPos] = ep
		return
	}
	season.Episodes = slices.Insert(season.Episodes, epPos, ep)
}

func (a *Assembler) findSeries(key seriesKey) int {
	for i, existing := range a.keys {
		if a.matches(existing, key) {
			return i
		}
	}
	return -1
}

func (a *Assembler) matches(existing, candidate seriesKey) bool {
	if existing.title == candidate.title {
		return true
	}
	if a.strict || existing.title == "" || candidate.title == "" {
		return false
	}
	if strings.Contains(existing.title, candidate.title) || strings.Contains(candidate.title, existing.title) {
		return true
	}
	return existing.first == candidate.first && utf8.RuneCountInString(candidate.title) > 5
}

func newSeriesKey(title string) seriesKey {
	t := strings.ToLower(strings.TrimSpace(title))
	k := seriesKey{title: t}
	if f := strings.Fields(t); len(f) > 0 {
		k.first = f[0]
	}
	return k
}

// SplitEpisode extracts the series title and season/episode numbers from an
// episode name. A bare trailing number is taken as the episode of season 1.
// Names without any marker keep their first words as the title and default
// to season 1, episode 1.
func SplitEpisode(name string) (title string, season, episode int) {
	for _, re := range []*regexp.Regexp{reSeasonEpisode, reTemporada} {
		if m := re.FindStringSubmatchIndex(name); m != nil {
			season = atoiMin1(name[m[2]:m[3]])
			episode = atoiMin1(name[m[4]:m[5]])
			if t := strings.TrimRight(strings.TrimSpace(name[:m[0]]), titleTrim); t != "" {
				return t, season, episode
			}
			return leadingWords(name), season, episode
		}
	}
	if m := reEpisodeOnly.FindStringSubmatchIndex(name); m != nil {
		episode = atoiMin1(name[m[2]:m[3]])
		if t := strings.TrimRight(strings.TrimSpace(name[:m[0]]), titleTrim); t != "" {
			return t, 1, episode
		}
	}
	trimmed := strings.TrimSpace(name)
	if m := reTrailingNumber.FindStringSubmatchIndex(trimmed); m != nil {
		if t := strings.TrimRight(trimmed[:m[0]], titleTrim); t != "" {
			return t, 1, atoiMin1(trimmed[m[2]:m[3]])
		}
	}
	return leadingWords(name), 1, 1
}

// leadingWords returns the first min(3, words-1) words of name.
func leadingWords(name string) string {
	words := strings.Fields(name)
	n := min(3, len(words)-1)
	if n < 1 {
		return strings.TrimSpace(name)
	}
	return strings.Join(words[:n], " ")
}

func splitYear(name string) (string, int) {
	m := reYear.FindStringSubmatchIndex(name)
	if m == nil {
		return name, 0
	}
	year, _ := strconv.Atoi(name[m[2]:m[3]])
	if t := strings.TrimSpace(name[:m[0]]); t != "" {
		return t, year
	}
	return name, year
}

func atoiMin1(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func seasonID(seriesID string, n int) string {
	return fmt.Sprintf("%s-s%d", seriesID, n)
}
