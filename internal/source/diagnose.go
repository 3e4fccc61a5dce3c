package source

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/voyagen/iptvhub/internal/classify"
	"github.com/voyagen/iptvhub/internal/fetcher"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/playlist"
	"github.com/voyagen/iptvhub/internal/xtream"
)

const probePeekBytes = 512

// TemplateResult is the outcome of probing one M3U URL template.
type TemplateResult struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	LatencyMs  int64  `json:"latencyMs"`
}

// XtreamProbe is the outcome of the player_api.php auth probe.
type XtreamProbe struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Counts estimates the collection sizes from the sampled lines.
type Counts struct {
	Live   int `json:"live"`
	Movies int `json:"movies"`
	Series int `json:"series"`
}

// GroupCount is one group-title and how often it occurred.
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// Report is a quick feasibility check of a source. Counts and groups are
// estimates over the first DiagnosticLines lines only.
type Report struct {
	Source       string           `json:"source"`
	Templates    []TemplateResult `json:"templates"`
	Xtream       XtreamProbe      `json:"xtream"`
	Pattern      string           `json:"pattern,omitempty"`
	LinesSampled int              `json:"linesSampled"`
	Estimate     *Counts          `json:"estimate,omitempty"`
	TopGroups    []GroupCount     `json:"topGroups,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Diagnose probes every M3U template and the Xtream API, then samples the
// first working playlist.
func (r *Resolver) Diagnose(ctx context.Context, src models.SourceConfig) *Report {
	rep := &Report{Source: fetcher.RedactURL(src.BaseURL)}

	var firstOK string
	for _, t := range Templates {
		u := t.URL(src)
		tr := r.probeTemplate(ctx, t.Name, u)
		rep.Templates = append(rep.Templates, tr)
		if tr.OK && firstOK == "" {
			firstOK = u
			rep.Pattern = t.Name
		}
		if ctx.Err() != nil {
			rep.Error = ctx.Err().Error()
			return rep
		}
	}

	rep.Xtream = r.probeXtream(ctx, src)

	if firstOK == "" {
		rep.Error = "no M3U template returned a playlist"
		return rep
	}
	if err := r.sample(ctx, firstOK, rep); err != nil {
		rep.Error = err.Error()
	}
	return rep
}

func (r *Resolver) probeTemplate(ctx context.Context, name, u string) TemplateResult {
	tr := TemplateResult{Name: name, URL: fetcher.RedactURL(u)}
	start := time.Now()

	body, err := r.fetch.Open(ctx, u, r.opts.ProbeTimeout)
	if err != nil {
		tr.Message = probeMessage(err)
		var herr *models.HTTPError
		if errors.As(err, &herr) {
			tr.StatusCode = herr.StatusCode
		}
		tr.LatencyMs = time.Since(start).Milliseconds()
		return tr
	}
	defer body.Close()

	head, err := io.ReadAll(io.LimitReader(body, probePeekBytes))
	tr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		tr.Message = probeMessage(err)
		return tr
	}
	if playlist.LooksLikeM3U(head) {
		tr.OK = true
		tr.Message = "playlist found"
		return tr
	}
	if title := htmlTitle(string(head)); title != "" {
		tr.Message = fmt.Sprintf("not a playlist: HTML page %q", title)
		return tr
	}
	tr.Message = "not a playlist: missing #EXTM3U header"
	return tr
}

// probeMessage turns a fetch error into a short message, naming the HTML
// title when a panel answered with an error page.
func probeMessage(err error) string {
	var herr *models.HTTPError
	if errors.As(err, &herr) {
		if title := htmlTitle(herr.Body); title != "" {
			return fmt.Sprintf("HTTP %d: %s", herr.StatusCode, title)
		}
		return fmt.Sprintf("HTTP %d", herr.StatusCode)
	}
	if errors.Is(err, models.ErrTimeout) {
		return "timeout"
	}
	return err.Error()
}

func htmlTitle(body string) string {
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<title") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func (r *Resolver) probeXtream(ctx context.Context, src models.SourceConfig) XtreamProbe {
	info, err := xtream.NewClient(src, r.fetch, r.opts.ProbeTimeout).Authenticate(ctx)
	if err != nil {
		p := XtreamProbe{Message: probeMessage(err)}
		if info != nil {
			p.Status = info.UserInfo.Status
		}
		return p
	}
	return XtreamProbe{OK: true, Message: "authenticated", Status: info.UserInfo.Status}
}

// sample reads the first DiagnosticLines lines of u and fills the estimate.
func (r *Resolver) sample(ctx context.Context, u string, rep *Report) error {
	body, err := r.fetch.Open(ctx, u, r.opts.QuickParseTimeout)
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	defer body.Close()

	counts := &Counts{}
	groups := make(map[string]int)
	lines, err := playlist.Scan(body, u, DiagnosticLines, func(e playlist.Entry) error {
		switch classify.Classify(e.GroupTitle, e.Name) {
		case models.KindMovie:
			counts.Movies++
		case models.KindSeries:
			counts.Series++
		default:
			counts.Live++
		}
		if g := strings.TrimSpace(e.GroupTitle); g != "" {
			groups[g]++
		}
		return nil
	})
	rep.LinesSampled = lines
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	rep.Estimate = counts
	rep.TopGroups = topGroups(groups, DiagnosticTopGroups)
	return nil
}

func topGroups(groups map[string]int, n int) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for g, c := range groups {
		out = append(out, GroupCount{Group: g, Count: c})
	}
	slices.SortFunc(out, func(a, b GroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Group, b.Group)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
