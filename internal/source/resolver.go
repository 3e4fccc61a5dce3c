// Package source decides how to read an IPTV source and walks the fallback
// chain from the preferred strategy to the bundled sample catalog.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/voyagen/iptvhub/internal/fetcher"
	"github.com/voyagen/iptvhub/internal/metrics"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/playlist"
	"github.com/voyagen/iptvhub/internal/sample"
	"github.com/voyagen/iptvhub/internal/xtream"
)

const (
	DefaultContentTimeout    = 8 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultQuickParseTimeout = 15 * time.Second
	DiagnosticLines          = 1000
	DiagnosticTopGroups      = 30
)

// Fetcher is the outbound HTTP dependency. fetcher.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
	Open(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error)
}

// Options tunes a Resolver.
type Options struct {
	ContentTimeout    time.Duration
	ProbeTimeout      time.Duration
	QuickParseTimeout time.Duration

	// StaticFallback serves the sample catalog when both strategies fail.
	StaticFallback    bool
	StrictSeriesMatch bool

	// StreamProxyURL, when set, rewrites every streamUrl to
	// <proxy>?url=<escaped directUrl>.
	StreamProxyURL string
}

// DefaultOptions returns the stock timeouts with static fallback enabled.
func DefaultOptions() Options {
	return Options{
		ContentTimeout:    DefaultContentTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		QuickParseTimeout: DefaultQuickParseTimeout,
		StaticFallback:    true,
	}
}

// Request selects one resource of one source.
type Request struct {
	Source models.SourceConfig
	Kind   models.ResourceKind
	// ID is the series id for series detail and the stream id for EPG.
	ID string
}

// Attempt is one step of the fallback chain.
type Attempt struct {
	Strategy Strategy      `json:"strategy"`
	Target   string        `json:"target,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Result is a resolved catalog plus the attempts that led to it.
type Result struct {
	Catalog  *models.CatalogResult
	Attempts []Attempt
}

// Resolver turns a Request into a CatalogResult. It keeps no per-request
// state and is safe for concurrent use.
type Resolver struct {
	fetch  Fetcher
	opts   Options
	logger *slog.Logger
}

// NewResolver creates a Resolver. Zero timeouts in opts take the defaults.
func NewResolver(f Fetcher, opts Options, logger *slog.Logger) *Resolver {
	if opts.ContentTimeout <= 0 {
		opts.ContentTimeout = DefaultContentTimeout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.QuickParseTimeout <= 0 {
		opts.QuickParseTimeout = DefaultQuickParseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fetch: f, opts: opts, logger: logger}
}

type state int

const (
	stateDetecting state = iota
	stateTryingPrimary
	stateTryingOther
	stateTryingStaticFallback
	stateSuccess
	stateFailure
)

// Resolve runs the chain: detected strategy, the other strategy once, then
// the sample catalog if enabled. With fallback disabled the joined strategy
// errors are returned.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if _, ok := models.ParseResourceKind(string(req.Kind)); !ok {
		return nil, fmt.Errorf("resolve %q: %w", req.Kind, models.ErrUnsupportedResource)
	}

	st := stateDetecting
	res := &Result{}
	var (
		primary Strategy
		errs    []error
	)
	for {
		switch st {
		case stateDetecting:
			primary = Detect(req.Source)
			st = stateTryingPrimary

		case stateTryingPrimary, stateTryingOther:
			strategy := primary
			next := stateTryingOther
			if st == stateTryingOther {
				strategy = primary.Other()
				next = stateTryingStaticFallback
			}
			cat, err := r.attempt(ctx, strategy, req, res)
			if err == nil {
				res.Catalog = cat
				st = stateSuccess
				continue
			}
			errs = append(errs, err)
			st = next
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				st = stateFailure
			}

		case stateTryingStaticFallback:
			if !r.opts.StaticFallback {
				st = stateFailure
				continue
			}
			r.logger.Warn("all strategies failed, serving sample catalog",
				slog.String("kind", string(req.Kind)),
				slog.String("source", fetcher.RedactURL(req.Source.BaseURL)),
				slog.Any("error", errors.Join(errs...)),
			)
			res.Catalog = sample.Catalog()
			st = stateSuccess

		case stateSuccess:
			metrics.ObserveCatalog(req.Kind, res.Catalog.Source)
			return res, nil

		case stateFailure:
			return res, fmt.Errorf("resolve %s: %w", req.Kind, errors.Join(errs...))
		}
	}
}

func (r *Resolver) attempt(ctx context.Context, strategy Strategy, req Request, res *Result) (*models.CatalogResult, error) {
	start := time.Now()
	var (
		cat    *models.CatalogResult
		target string
		err    error
	)
	switch strategy {
	case StrategyXtream:
		target = xtream.Root(req.Source.BaseURL)
		cat, err = xtream.NewClient(req.Source, r.fetch, r.opts.ContentTimeout).Fetch(ctx, req.Kind, req.ID)
	default:
		cat, target, err = r.fetchM3U(ctx, req)
	}
	metrics.ObserveAttempt(string(strategy), err)

	a := Attempt{Strategy: strategy, Target: fetcher.RedactURL(target), Duration: time.Since(start)}
	if err != nil {
		a.Error = err.Error()
		r.logger.Info("strategy failed",
			slog.String("strategy", string(strategy)),
			slog.String("kind", string(req.Kind)),
			slog.String("target", a.Target),
			slog.String("error", a.Error),
		)
	}
	res.Attempts = append(res.Attempts, a)
	if err != nil {
		return nil, err
	}
	r.rewriteStreams(cat)
	return cat, nil
}

// fetchM3U probes the URL templates in order and assembles the first
// parseable playlist. It returns the winning URL.
func (r *Resolver) fetchM3U(ctx context.Context, req Request) (*models.CatalogResult, string, error) {
	if req.Kind == models.ResourceEPG {
		return nil, "", fmt.Errorf("m3u epg: %w", models.ErrUnsupportedResource)
	}

	var (
		pl      *playlist.Playlist
		winner  string
		lastErr error
	)
	for _, t := range Templates {
		u := t.URL(req.Source)
		p, err := r.parseURL(ctx, u)
		if err == nil {
			pl, winner = p, u
			break
		}
		lastErr = fmt.Errorf("m3u template %s: %w", t.Name, err)
		if ctx.Err() != nil {
			break
		}
	}
	if pl == nil {
		return nil, "", lastErr
	}

	cat, err := selectKind(pl, req)
	if err != nil {
		return nil, winner, err
	}
	return cat, winner, nil
}

func (r *Resolver) parseURL(ctx context.Context, u string) (*playlist.Playlist, error) {
	body, err := r.fetch.Open(ctx, u, r.opts.ContentTimeout)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return playlist.Parse(body, u, playlist.Options{StrictSeriesMatch: r.opts.StrictSeriesMatch})
}

// selectKind keeps only the collection req asks for. An empty collection is
// a failure so the chain moves on.
func selectKind(pl *playlist.Playlist, req Request) (*models.CatalogResult, error) {
	out := &models.CatalogResult{Source: models.OriginM3U}
	switch req.Kind {
	case models.ResourceLive:
		out.Channels = pl.Live
	case models.ResourceMovies:
		out.Movies = pl.Movies
	case models.ResourceSeries:
		out.Series = pl.Series
	case models.ResourceSeriesDetail:
		for _, s := range pl.Series {
			if s.ID == req.ID {
				out.Series = []models.Series{s}
				break
			}
		}
	}
	if out.Len(req.Kind) == 0 {
		return nil, fmt.Errorf("m3u %s: %w", req.Kind, models.ErrEmptyResult)
	}
	return out, nil
}

func (r *Resolver) rewriteStreams(cat *models.CatalogResult) {
	if r.opts.StreamProxyURL == "" || cat == nil {
		return
	}
	proxied := func(direct string) string {
		if direct == "" {
			return direct
		}
		sep := "?"
		if strings.Contains(r.opts.StreamProxyURL, "?") {
			sep = "&"
		}
		return r.opts.StreamProxyURL + sep + "url=" + url.QueryEscape(direct)
	}
	for i := range cat.Channels {
		cat.Channels[i].StreamURL = proxied(cat.Channels[i].DirectURL)
	}
	for i := range cat.Movies {
		cat.Movies[i].StreamURL = proxied(cat.Movies[i].DirectURL)
	}
	for i := range cat.Series {
		for j := range cat.Series[i].Seasons {
			eps := cat.Series[i].Seasons[j].Episodes
			for k := range eps {
				eps[k].StreamURL = proxied(eps[k].DirectURL)
			}
		}
	}
}
