// Package sample holds the bundled demo catalog served when every upstream
// strategy fails.
package sample

import (
	"slices"
	"time"

	"github.com/voyagen/iptvhub/internal/models"
)

const demoStream = "https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8"

var epgBase = time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

var catalog = models.CatalogResult{
	Source: models.OriginFallback,
	Channels: []models.Channel{
		{ID: "sample-ch-1", Name: "Canal Demo 1", LogoURL: "https://picsum.photos/seed/ch1/200", StreamURL: demoStream, DirectURL: demoStream, Category: "Notícias"},
		{ID: "sample-ch-2", Name: "Canal Demo 2", LogoURL: "https://picsum.photos/seed/ch2/200", StreamURL: demoStream, DirectURL: demoStream, Category: "Esportes"},
		{ID: "sample-ch-3", Name: "Canal Demo 3", LogoURL: "https://picsum.photos/seed/ch3/200", StreamURL: demoStream, DirectURL: demoStream, Category: models.DefaultChannelCategory},
	},
	Movies: []models.Movie{
		{ID: "sample-mv-1", Title: "Filme Demo 1", Poster: "https://picsum.photos/seed/mv1/300/450", Description: "Filme de demonstração.", Year: 2021, Category: "Ação", StreamURL: demoStream, DirectURL: demoStream},
		{ID: "sample-mv-2", Title: "Filme Demo 2", Poster: "https://picsum.photos/seed/mv2/300/450", Description: "Filme de demonstração.", Year: 2022, Category: "Comédia", StreamURL: demoStream, DirectURL: demoStream},
		{ID: "sample-mv-3", Title: "Filme Demo 3", Poster: "https://picsum.photos/seed/mv3/300/450", Description: "Filme de demonstração.", Year: 2023, Category: models.DefaultCategory, StreamURL: demoStream, DirectURL: demoStream},
	},
	Series: []models.Series{
		{
			ID: "sample-sr-1", Title: "Série Demo 1", Poster: "https://picsum.photos/seed/sr1/300/450",
			Description: "Série de demonstração.", Category: "Drama",
			Seasons: []models.Season{{ID: "sample-sr-1-s1", Number: 1, Episodes: []models.Episode{
				{ID: "sample-sr-1-e1", Title: "Episódio 1", Number: 1, StreamURL: demoStream, DirectURL: demoStream},
				{ID: "sample-sr-1-e2", Title: "Episódio 2", Number: 2, StreamURL: demoStream, DirectURL: demoStream},
			}}},
		},
		{
			ID: "sample-sr-2", Title: "Série Demo 2", Poster: "https://picsum.photos/seed/sr2/300/450",
			Description: "Série de demonstração.", Category: models.DefaultCategory,
			Seasons: []models.Season{{ID: "sample-sr-2-s1", Number: 1, Episodes: []models.Episode{
				{ID: "sample-sr-2-e1", Title: "Episódio 1", Number: 1, StreamURL: demoStream, DirectURL: demoStream},
				{ID: "sample-sr-2-e2", Title: "Episódio 2", Number: 2, StreamURL: demoStream, DirectURL: demoStream},
			}}},
		},
	},
	EPG: []models.EpgItem{
		{ID: "sample-epg-1", ChannelID: "sample-ch-1", Title: "Jornal Demo", Description: "Notícias do dia.", Start: epgBase, End: epgBase.Add(time.Hour)},
		{ID: "sample-epg-2", ChannelID: "sample-ch-2", Title: "Futebol Demo", Description: "Partida ao vivo.", Start: epgBase, End: epgBase.Add(2 * time.Hour)},
		{ID: "sample-epg-3", ChannelID: "sample-ch-3", Title: "Filme da Noite", Description: "Sessão especial.", Start: epgBase.Add(time.Hour), End: epgBase.Add(3 * time.Hour)},
	},
}

// Catalog returns a copy of the sample catalog. It is served whole for every
// resource kind.
func Catalog() *models.CatalogResult {
	out := models.CatalogResult{
		Source:   catalog.Source,
		Channels: slices.Clone(catalog.Channels),
		Movies:   slices.Clone(catalog.Movies),
		Series:   cloneSeries(catalog.Series),
		EPG:      slices.Clone(catalog.EPG),
	}
	return &out
}

func cloneSeries(in []models.Series) []models.Series {
	out := slices.Clone(in)
	for i := range out {
		out[i].Seasons = slices.Clone(out[i].Seasons)
		for j := range out[i].Seasons {
			out[i].Seasons[j].Episodes = slices.Clone(out[i].Seasons[j].Episodes)
		}
	}
	return out
}
