// Package classify infers the content kind and a platform label for an IPTV
// entry from its free-form group-title and display name.
package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/voyagen/iptvhub/internal/models"
)

// Classify maps a group-title and item name to live, movie or series.
// Untagged content defaults to live. Movie keywords take priority over
// series keywords.
func Classify(groupTitle, itemName string) models.ContentKind {
	group := fold(groupTitle)
	name := fold(itemName)

	if group == "" {
		if matchesSeriesPattern(name) {
			return models.KindSeries
		}
		return models.KindLive
	}
	if containsAny(group, movieKeywords) || containsAny(name, movieKeywords) {
		return models.KindMovie
	}
	if containsAny(group, seriesKeywords) || containsAny(name, seriesKeywords) {
		return models.KindSeries
	}
	if matchesSeriesPattern(group + " " + name) {
		return models.KindSeries
	}
	return models.KindLive
}

// ExtractPlatform returns the canonical streaming-platform name found in
// groupTitle. Genre labels yield ok == false; any other label passes
// through unchanged.
func ExtractPlatform(groupTitle string) (platform string, ok bool) {
	group := fold(groupTitle)
	if group == "" {
		return "", false
	}
	for _, p := range platforms {
		if strings.Contains(group, p) {
			return cases.Title(language.Und).String(p), true
		}
	}
	if genreWords.MatchString(group) {
		return "", false
	}
	return groupTitle, true
}

// CategoryOr returns the platform label for groupTitle, or fallback when
// there is none.
func CategoryOr(groupTitle, fallback string) string {
	if p, ok := ExtractPlatform(groupTitle); ok {
		return p
	}
	return fallback
}

// fold lowercases, trims and strips combining marks so "Episódio" and
// "episodio" compare equal.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return cases.Lower(language.Und).String(s)
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func matchesSeriesPattern(s string) bool {
	for _, re := range seriesPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
