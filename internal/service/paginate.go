package service

import (
	"strings"

	"github.com/voyagen/iptvhub/internal/models"
)

const (
	DefaultPageLimit = 200
	MaxPageLimit     = 1000
)

// Query selects one page of a catalog collection.
type Query struct {
	Page     int
	Limit    int
	Category string
}

// Normalize clamps page to at least 1 and limit to (0, MaxPageLimit].
func (q Query) Normalize() Query {
	q.Page = max(q.Page, 1)
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	q.Limit = min(q.Limit, MaxPageLimit)
	q.Category = strings.TrimSpace(q.Category)
	return q
}

// Paginate filters items whose category contains q.Category (case
// insensitive) and returns the requested page with the filtered total.
func Paginate[T any](items []T, q Query, category func(T) string) ([]T, int) {
	q = q.Normalize()
	if q.Category != "" && category != nil {
		needle := strings.ToLower(q.Category)
		filtered := make([]T, 0, len(items))
		for _, it := range items {
			if strings.Contains(strings.ToLower(category(it)), needle) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	total := len(items)
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []T{}, total
	}
	end := min(start+q.Limit, total)
	return items[start:end], total
}

// Page is a paginated view of one collection of a CatalogResult.
type Page struct {
	*models.CatalogResult
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PageOf slices the collection selected by kind. The input is not modified.
func PageOf(cat *models.CatalogResult, kind models.ResourceKind, q Query) *Page {
	q = q.Normalize()
	out := &models.CatalogResult{Source: cat.Source}
	var total int
	switch kind {
	case models.ResourceLive:
		out.Channels, total = Paginate(cat.Channels, q, func(c models.Channel) string { return c.Category })
	case models.ResourceMovies:
		out.Movies, total = Paginate(cat.Movies, q, func(m models.Movie) string { return m.Category })
	case models.ResourceSeries, models.ResourceSeriesDetail:
		out.Series, total = Paginate(cat.Series, q, func(s models.Series) string { return s.Category })
	case models.ResourceEPG:
		out.EPG, total = Paginate(cat.EPG, q, nil)
	}
	return &Page{CatalogResult: out, Page: q.Page, Limit: q.Limit, Total: total}
}
