package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voyagen/iptvhub/api"
	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/service"
	"github.com/voyagen/iptvhub/internal/source"
	"github.com/voyagen/iptvhub/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- catalog handlers ---

// sourceFromRequest reads the source from X-Source-* headers, falling back
// to the url/username/password/portal query parameters.
func sourceFromRequest(r *http.Request) (models.SourceConfig, error) {
	q := r.URL.Query()
	pick := func(header, param string) string {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}
		return strings.TrimSpace(q.Get(param))
	}
	src := models.SourceConfig{
		BaseURL:  pick("X-Source-Url", "url"),
		Username: pick("X-Source-Username", "username"),
		Password: pick("X-Source-Password", "password"),
		Portal:   models.ParsePortalKind(pick("X-Source-Portal", "portal")),
	}
	if src.BaseURL == "" {
		return src, fmt.Errorf("source url is required (X-Source-Url header or url parameter)")
	}
	return src, nil
}

func parseQuery(r *http.Request) (service.Query, error) {
	q := r.URL.Query()
	var out service.Query
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &out.Page}, {"limit", &out.Limit}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return out, fmt.Errorf("invalid %s: %s", p.name, v)
		}
		*p.dst = n
	}
	out.Category = q.Get("category")
	return out.Normalize(), nil
}

// listKind parses a collection kind. Series detail has its own route.
func listKind(r *http.Request) (models.ResourceKind, error) {
	v := chi.URLParam(r, "kind")
	kind, ok := models.ParseResourceKind(v)
	if !ok || kind == models.ResourceSeriesDetail {
		return "", fmt.Errorf("unknown catalog kind %q (use live, movies, series or epg)", v)
	}
	return kind, nil
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := listKind(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	src, err := sourceFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	cat, err := s.svc.Get(r.Context(), source.Request{Source: src, Kind: kind, ID: r.URL.Query().Get("stream_id")})
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.PageOf(cat, kind, q))
}

func (s *Server) handleSeriesDetail(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	cat, err := s.svc.Get(r.Context(), source.Request{Source: src, Kind: models.ResourceSeriesDetail, ID: chi.URLParam(r, "id")})
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

type diagnoseRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Portal   string `json:"portalKind"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}
	rep := s.svc.Diagnose(r.Context(), models.SourceConfig{
		BaseURL:  strings.TrimSpace(req.URL),
		Username: req.Username,
		Password: req.Password,
		Portal:   models.ParsePortalKind(req.Portal),
	})
	writeJSON(w, http.StatusOK, rep)
}

// --- source handlers ---

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.ListSources(r.Context())
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	if sources == nil {
		sources = []models.SavedSource{}
	}
	for i := range sources {
		sources[i].Password = ""
	}
	writeJSON(w, http.StatusOK, sources)
}

type addSourceRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Portal   string `json:"portalKind"`
	Enabled  *bool  `json:"enabled"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	src := &models.SavedSource{
		Name:     req.Name,
		BaseURL:  req.URL,
		Username: req.Username,
		Password: req.Password,
		Portal:   models.PortalKind(req.Portal),
		Enabled:  req.Enabled == nil || *req.Enabled,
	}
	if _, err := s.svc.CreateSource(r.Context(), src); err != nil {
		s.writeServiceErr(w, err)
		return
	}
	src.Password = ""
	writeJSON(w, http.StatusCreated, src)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	src, err := s.svc.GetSource(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	src.Password = ""
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.DeleteSource(r.Context(), id); err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleSourceCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	kind, err := listKind(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	cat, err := s.svc.SourceCatalog(r.Context(), id, kind, r.URL.Query().Get("stream_id"))
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.PageOf(cat, kind, q))
}

func (s *Server) handleRefreshSource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	runs, queued, err := s.svc.EnqueueRefresh(r.Context(), id, "manual")
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	if queued {
		writeJSON(w, http.StatusAccepted, map[string]any{"sourceId": id, "queued": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sourceId": id, "queued": false, "runs": runs})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	limit := store.DefaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = min(n, 500)
	}
	runs, err := s.svc.ListRuns(r.Context(), id, limit)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	if runs == nil {
		runs = []models.CatalogRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// statusFor maps service and resolver errors to HTTP status codes. Anything
// that failed upstream is a bad gateway.
func statusFor(err error) int {
	var httpErr *models.HTTPError
	switch {
	case errors.Is(err, service.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSourceDisabled), errors.Is(err, cache.ErrLocked):
		return http.StatusConflict
	case errors.As(err, &httpErr),
		errors.Is(err, models.ErrTimeout),
		errors.Is(err, models.ErrInvalidFormat),
		errors.Is(err, models.ErrEmptyResult),
		errors.Is(err, models.ErrUnsupportedResource):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeServiceErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 && status != http.StatusBadGateway {
		s.logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	writeErr(w, status, err)
}

// parseID extracts a path parameter by name and parses it as int64.
func parseID(r *http.Request, param string) (int64, error) {
	v := chi.URLParam(r, param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON", slog.Any("error", err))
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// --- docs handlers ---

func handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPISpec)
}

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, swaggerUIHTML)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>IPTVHub API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box;overflow-y:scroll}*,*:before,*:after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/docs/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`
