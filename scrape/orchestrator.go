// Package scrape runs the per-URL two-tier pipeline: static fetch and
// parse first, full browser rendering only when the static pass yields
// nothing useful.
package scrape

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/linkpeek/markup"
	"github.com/use-agent/linkpeek/models"
)

const (
	tierStatic   = "static"
	tierRendered = "rendered"
)

// StaticFetcher retrieves raw markup for a URL.
type StaticFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// RenderedExtractor extracts a preview from a fully rendered page.
type RenderedExtractor interface {
	Extract(ctx context.Context, url string) (models.Extraction, error)
}

// Session is the part of the shared browser session the orchestrator
// owns: its teardown.
type Session interface {
	Release()
}

// Orchestrator consumes a sequence of URLs and produces one record per
// URL, in input order. Per-URL failures never abort the batch; they
// become error records. It exclusively owns the browser session
// reference and is solely responsible for releasing it.
type Orchestrator struct {
	fetcher  StaticFetcher
	rendered RenderedExtractor
	session  Session
	metrics  *Metrics
}

// New creates an Orchestrator. metrics may be nil.
func New(fetcher StaticFetcher, rendered RenderedExtractor, session Session, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		rendered: rendered,
		session:  session,
		metrics:  metrics,
	}
}

// Run processes every URL strictly in order, one at a time; the shared
// browser session makes concurrent use unsafe without added
// coordination. An empty or malformed input list fails before any URL
// is touched; everything else comes back as records.
func (o *Orchestrator) Run(ctx context.Context, urls []string) ([]models.Record, error) {
	if len(urls) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "no URLs to scrape", nil)
	}
	for _, u := range urls {
		if u == "" {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "empty URL in input list", nil)
		}
	}

	records := make([]models.Record, 0, len(urls))
	for _, u := range urls {
		records = append(records, o.scrapeOne(ctx, u))
	}
	return records, nil
}

// Metrics returns the registry-backed metrics, nil when disabled.
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

// Close releases the shared browser session. It must run exactly once by
// the end of a run, including when an unexpected error escapes the
// per-URL handling; callers defer it right after construction.
func (o *Orchestrator) Close() {
	o.session.Release()
}

// scrapeOne runs the two-tier pipeline for a single URL. It never
// returns an error: failures become error records.
func (o *Orchestrator) scrapeOne(ctx context.Context, url string) models.Record {
	start := time.Now()

	o.metrics.IncAttempt(tierStatic)
	body, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		// A 404 or network error is not solved by a browser; no escalation.
		slog.Warn("static fetch failed", "url", url, "error", err)
		o.metrics.IncError(errCode(err))
		o.metrics.ObserveDuration(tierStatic, time.Since(start))
		return models.ErrorRecord(url, err)
	}

	result, err := markup.Extract(body, url)
	if err != nil {
		slog.Warn("markup parse failed", "url", url, "error", err)
		o.metrics.IncError(errCode(err))
		o.metrics.ObserveDuration(tierStatic, time.Since(start))
		return models.ErrorRecord(url, err)
	}

	tier := tierStatic
	if result.Empty() {
		shell := markup.LooksScriptRendered(body)
		slog.Info("static pass empty, escalating to rendered tier",
			"url", url, "looksScriptRendered", shell)
		o.metrics.IncEscalation(shell)
		o.metrics.IncAttempt(tierRendered)
		tier = tierRendered

		// The static attempt's nulls are discarded in favor of the
		// error: a rendering failure is reported, not downgraded.
		rendered, rerr := o.rendered.Extract(ctx, url)
		if rerr != nil {
			slog.Warn("rendered pass failed", "url", url, "error", rerr)
			o.metrics.IncError(errCode(rerr))
			o.metrics.ObserveDuration(tierRendered, time.Since(start))
			return models.ErrorRecord(url, rerr)
		}
		result = rendered
	}

	o.metrics.ObserveDuration(tier, time.Since(start))
	slog.Info("scrape complete",
		"url", url,
		"tier", tier,
		"hasTitle", result.Title != "",
		"hasPreviewImage", result.PreviewImage != "",
	)
	return models.SuccessRecord(url, result)
}

// errCode maps an error to its metrics label.
func errCode(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return models.ErrCodeInternal
}
