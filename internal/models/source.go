package models

import "time"

// SourceConfig describes an upstream supplied per request. It is never
// persisted by the catalog engine.
type SourceConfig struct {
	BaseURL  string     `json:"baseUrl"`
	Username string     `json:"username"`
	Password string     `json:"password" masq:"secret"`
	Portal   PortalKind `json:"portalKind"`
}

// SavedSource is a named SourceConfig stored by the API layer.
type SavedSource struct {
	ID            int64      `json:"id,omitempty"`
	Name          string     `json:"name"`
	BaseURL       string     `json:"baseUrl"`
	Username      string     `json:"username"`
	Password      string     `json:"password,omitempty" masq:"secret"`
	Portal        PortalKind `json:"portalKind"`
	Enabled       bool       `json:"enabled"`
	LastRefreshed *time.Time `json:"lastRefreshed,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// Config returns the per-request SourceConfig for a saved source.
func (s *SavedSource) Config() SourceConfig {
	return SourceConfig{
		BaseURL:  s.BaseURL,
		Username: s.Username,
		Password: s.Password,
		Portal:   s.Portal,
	}
}

// CatalogRun records one refresh of a saved source for one resource kind.
type CatalogRun struct {
	ID         string       `json:"id"`
	SourceID   int64        `json:"sourceId"`
	Resource   ResourceKind `json:"resource"`
	Origin     Origin       `json:"origin,omitempty"`
	ItemCount  int          `json:"itemCount"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	DurationMs int64        `json:"durationMs"`
}
