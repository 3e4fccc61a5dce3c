package models

// ContentKind is the classification of a single playlist entry.
type ContentKind string

const (
	KindLive   ContentKind = "live"
	KindMovie  ContentKind = "movie"
	KindSeries ContentKind = "series"
)

// ResourceKind selects which collection a catalog request asks for.
type ResourceKind string

const (
	ResourceLive         ResourceKind = "live"
	ResourceMovies       ResourceKind = "movies"
	ResourceSeries       ResourceKind = "series"
	ResourceEPG          ResourceKind = "epg"
	ResourceSeriesDetail ResourceKind = "series_detail"
)

// ParseResourceKind maps a path segment to a ResourceKind.
func ParseResourceKind(s string) (ResourceKind, bool) {
	switch ResourceKind(s) {
	case ResourceLive, ResourceMovies, ResourceSeries, ResourceEPG, ResourceSeriesDetail:
		return ResourceKind(s), true
	}
	return "", false
}

// Origin tags the provenance of a whole CatalogResult.
type Origin string

const (
	OriginXtream   Origin = "xtream"
	OriginM3U      Origin = "m3u"
	OriginFallback Origin = "fallback"
	// OriginExternal is reserved for payloads handed over by a collaborator
	// service. Nothing in this module produces it; it only round-trips.
	OriginExternal Origin = "external"
)

// PortalKind is the caller's hint about what kind of upstream a source is.
type PortalKind string

const (
	PortalXtream  PortalKind = "xtream"
	PortalM3U     PortalKind = "m3u"
	PortalUnknown PortalKind = "unknown"
)

// ParsePortalKind normalizes a portal hint; anything unrecognized is unknown.
func ParsePortalKind(s string) PortalKind {
	switch PortalKind(s) {
	case PortalXtream, PortalM3U:
		return PortalKind(s)
	}
	return PortalUnknown
}

// Default category labels.
const (
	DefaultCategory        = "Geral"
	DefaultChannelCategory = "Canais"
)
