package models

import "time"

// Channel is one live TV stream.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LogoURL   string `json:"logoUrl,omitempty"`
	StreamURL string `json:"streamUrl"`
	DirectURL string `json:"directUrl"`
	Category  string `json:"category"`
}

// Movie is one playable VOD asset.
type Movie struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Poster      string `json:"poster,omitempty"`
	Description string `json:"description,omitempty"`
	Year        int    `json:"year,omitempty"`
	Category    string `json:"category"`
	StreamURL   string `json:"streamUrl"`
	DirectURL   string `json:"directUrl"`
}

// Series groups seasons of episodic content. Seasons are sorted ascending by
// Number with no duplicates.
type Series struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Poster      string   `json:"poster,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Seasons     []Season `json:"seasons"`
}

// Season holds episodes sorted ascending by Number with no duplicates.
type Season struct {
	ID       string    `json:"id"`
	Number   int       `json:"number"`
	Episodes []Episode `json:"episodes"`
}

// Episode is a single playable episode.
type Episode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Number    int    `json:"number"`
	StreamURL string `json:"streamUrl"`
	DirectURL string `json:"directUrl"`
}

// EpgItem is one programme guide entry for a live channel.
type EpgItem struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// CatalogResult is the uniform output envelope. Source always identifies the
// provenance of the entire payload.
type CatalogResult struct {
	Source   Origin    `json:"source"`
	Channels []Channel `json:"channels,omitempty"`
	Movies   []Movie   `json:"movies,omitempty"`
	Series   []Series  `json:"series,omitempty"`
	EPG      []EpgItem `json:"epg,omitempty"`
}

// Len returns the number of items in the collection selected by kind.
func (r *CatalogResult) Len(kind ResourceKind) int {
	switch kind {
	case ResourceLive:
		return len(r.Channels)
	case ResourceMovies:
		return len(r.Movies)
	case ResourceSeries, ResourceSeriesDetail:
		return len(r.Series)
	case ResourceEPG:
		return len(r.EPG)
	}
	return 0
}
