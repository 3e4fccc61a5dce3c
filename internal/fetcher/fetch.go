// Package fetcher performs bounded outbound GETs against IPTV upstreams.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voyagen/iptvhub/internal/metrics"
	"github.com/voyagen/iptvhub/internal/models"
)

const (
	DefaultUserAgent   = "IPTVHub/1.0"
	DefaultMaxBodySize = 64 << 20

	errorBodySnippet = 512
	acceptEncoding   = "gzip, deflate, br"
)

// ErrBodyTooLarge is returned when a response exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Client issues GET requests where every call races its own deadline.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout should be
// zero; per-call timeouts are applied through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize caps decoded response bodies.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  DefaultUserAgent,
		maxBody:    DefaultMaxBodySize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the decoded body. A deadline hit while
// connecting or reading yields an error wrapping models.ErrTimeout.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	body, err := c.Open(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read: %w", RedactURL(url), err)
	}
	return data, nil
}

// Open starts a GET and returns the decoded streaming body. Closing the body
// releases the connection and the deadline timer.
func (c *Client) Open(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error) {
	start := time.Now()
	reqCtx, cancel := withTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		err = mapDeadline(reqCtx, ctx, timeout, err)
		metrics.ObserveFetch(err, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", RedactURL(url), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		_ = resp.Body.Close()
		cancel()
		herr := &models.HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
		metrics.ObserveFetch(herr, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", RedactURL(url), herr)
	}

	decoded, err := decodeBody(resp)
	if err != nil {
		_ = resp.Body.Close()
		cancel()
		metrics.ObserveFetch(err, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", RedactURL(url), err)
	}

	c.logger.Debug("upstream response",
		slog.String("url", RedactURL(url)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	metrics.ObserveFetch(nil, time.Since(start))
	return &body{
		r:       &limitedReader{r: decoded, n: c.maxBody},
		decoded: decoded,
		raw:     resp.Body,
		ctx:     reqCtx,
		parent:  ctx,
		timeout: timeout,
		cancel:  cancel,
	}, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// mapDeadline reports err as ErrTimeout when our own deadline fired rather
// than the caller cancelling.
func mapDeadline(reqCtx, parent context.Context, timeout time.Duration, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s", models.ErrTimeout, timeout)
	}
	return err
}

type body struct {
	r       io.Reader
	decoded io.Reader
	raw     io.ReadCloser
	ctx     context.Context
	parent  context.Context
	timeout time.Duration
	cancel  context.CancelFunc
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		err = mapDeadline(b.ctx, b.parent, b.timeout, err)
	}
	return n, err
}

func (b *body) Close() error {
	defer b.cancel()
	if c, ok := b.decoded.(io.Closer); ok && b.decoded != io.Reader(b.raw) {
		_ = c.Close()
	}
	return b.raw.Close()
}

type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		var probe [1]byte
		if n, _ := l.r.Read(probe[:]); n > 0 {
			return 0, ErrBodyTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}
