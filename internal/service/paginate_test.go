package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyagen/iptvhub/internal/models"
)

func channels(n int, category string) []models.Channel {
	out := make([]models.Channel, n)
	for i := range out {
		out[i] = models.Channel{ID: fmt.Sprint(i), Name: fmt.Sprintf("Canal %d", i), Category: category}
	}
	return out
}

func TestQueryNormalize(t *testing.T) {
	tests := []struct {
		in   Query
		want Query
	}{
		{Query{}, Query{Page: 1, Limit: DefaultPageLimit}},
		{Query{Page: -3, Limit: -1}, Query{Page: 1, Limit: DefaultPageLimit}},
		{Query{Page: 2, Limit: 5000}, Query{Page: 2, Limit: MaxPageLimit}},
		{Query{Page: 1, Limit: 10, Category: "  News "}, Query{Page: 1, Limit: 10, Category: "News"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestPaginate(t *testing.T) {
	items := channels(25, "News")
	cat := func(c models.Channel) string { return c.Category }

	page, total := Paginate(items, Query{Page: 1, Limit: 10}, cat)
	assert.Equal(t, 25, total)
	assert.Len(t, page, 10)
	assert.Equal(t, "0", page[0].ID)

	page, total = Paginate(items, Query{Page: 3, Limit: 10}, cat)
	assert.Equal(t, 25, total)
	assert.Len(t, page, 5)
	assert.Equal(t, "20", page[0].ID)

	page, total = Paginate(items, Query{Page: 4, Limit: 10}, cat)
	assert.Equal(t, 25, total)
	assert.Empty(t, page)
	assert.NotNil(t, page)
}

func TestPaginateCategoryFilter(t *testing.T) {
	items := append(channels(3, "Esportes HD"), channels(2, "Notícias")...)
	page, total := Paginate(items, Query{Category: "esportes"}, func(c models.Channel) string { return c.Category })
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)

	_, total = Paginate(items, Query{Category: "filmes"}, func(c models.Channel) string { return c.Category })
	assert.Zero(t, total)
}

func TestPageOf(t *testing.T) {
	cat := &models.CatalogResult{
		Source: models.OriginM3U,
		Movies: []models.Movie{
			{ID: "a", Category: "Ação"},
			{ID: "b", Category: "Drama"},
			{ID: "c", Category: "ação clássica"},
		},
	}
	p := PageOf(cat, models.ResourceMovies, Query{Category: "AÇÃO", Limit: 1, Page: 2})
	assert.Equal(t, models.OriginM3U, p.Source)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 1, p.Limit)
	if assert.Len(t, p.Movies, 1) {
		assert.Equal(t, "c", p.Movies[0].ID)
	}
	assert.Len(t, cat.Movies, 3, "input must not be modified")
}

func TestPageOfEPGIgnoresCategory(t *testing.T) {
	cat := &models.CatalogResult{Source: models.OriginXtream, EPG: []models.EpgItem{{ID: "1"}, {ID: "2"}}}
	p := PageOf(cat, models.ResourceEPG, Query{Category: "anything"})
	assert.Equal(t, 2, p.Total)
	assert.Len(t, p.EPG, 2)
}
