package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalOriginRoundTrips(t *testing.T) {
	var got CatalogResult
	require.NoError(t, json.Unmarshal([]byte(`{"source":"external","channels":[{"id":"1","name":"Canal"}]}`), &got))
	assert.Equal(t, OriginExternal, got.Source)
	assert.Equal(t, 1, got.Len(ResourceLive))

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"source":"external"`)
}
