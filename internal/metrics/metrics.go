// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/voyagen/iptvhub/internal/models"
)

const namespace = "iptvhub"

// Registry is the registry served by the metrics endpoint.
var Registry = prometheus.NewRegistry()

var (
	CatalogRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Catalog resolutions by resource kind and the origin that served them.",
	}, []string{"kind", "source"})

	StrategyAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_attempts_total",
		Help:      "Source strategy attempts by outcome.",
	}, []string{"strategy", "outcome"})

	UpstreamFetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_fetch_seconds",
		Help:      "Latency of upstream GET requests until headers are received.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
	}, []string{"outcome"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Catalog cache lookups by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CatalogRequests,
		StrategyAttempts,
		UpstreamFetchSeconds,
		CacheLookups,
	)
}

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	var herr *models.HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.As(err, &herr):
		return "http_error"
	case errors.Is(err, models.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, models.ErrEmptyResult):
		return "empty"
	case errors.Is(err, models.ErrUnsupportedResource):
		return "unsupported"
	default:
		return "error"
	}
}

// ObserveFetch records one upstream request.
func ObserveFetch(err error, d time.Duration) {
	UpstreamFetchSeconds.WithLabelValues(Outcome(err)).Observe(d.Seconds())
}

// ObserveAttempt records one strategy attempt.
func ObserveAttempt(strategy string, err error) {
	StrategyAttempts.WithLabelValues(strategy, Outcome(err)).Inc()
}

// ObserveCatalog records a resolved catalog request.
func ObserveCatalog(kind models.ResourceKind, origin models.Origin) {
	CatalogRequests.WithLabelValues(string(kind), string(origin)).Inc()
}

// ObserveCache records a cache hit, miss or error.
func ObserveCache(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}
