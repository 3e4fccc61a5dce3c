package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/models"
)

func TestCatalogShape(t *testing.T) {
	c := Catalog()
	assert.Equal(t, models.OriginFallback, c.Source)
	assert.Len(t, c.Channels, 3)
	assert.Len(t, c.Movies, 3)
	assert.Len(t, c.EPG, 3)
	require.Len(t, c.Series, 2)
	for _, s := range c.Series {
		require.Len(t, s.Seasons, 1)
		assert.Equal(t, 1, s.Seasons[0].Number)
		assert.Len(t, s.Seasons[0].Episodes, 2)
	}
}

func TestCatalogIsACopy(t *testing.T) {
	a := Catalog()
	a.Channels[0].Name = "changed"
	a.Series[0].Seasons[0].Episodes[0].Title = "changed"

	b := Catalog()
	assert.Equal(t, "Canal Demo 1", b.Channels[0].Name)
	assert.Equal(t, "Episódio 1", b.Series[0].Seasons[0].Episodes[0].Title)
}
