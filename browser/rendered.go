package browser

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/markup"
	"github.com/use-agent/linkpeek/models"
	"github.com/ysmood/gson"
)

// snapshotJS collects the post-render DOM state the ranking needs:
// currentSrc of responsive images and real rendered dimensions are
// unavailable from raw markup.
const snapshotJS = `() => {
	const attr = (sel, name) => {
		const el = document.querySelector(sel);
		return el ? (el.getAttribute(name) || '').trim() : '';
	};
	const metas = [
		attr('meta[property="og:image:secure_url"]', 'content'),
		attr('meta[property="og:image"]', 'content'),
		attr('meta[name="og:image"]', 'content'),
		attr('meta[name="twitter:image"]', 'content'),
		attr('meta[itemprop="image"]', 'content'),
		attr('link[rel="image_src"]', 'href'),
	];
	const images = [];
	for (const img of document.querySelectorAll('img')) {
		const src = img.currentSrc || img.getAttribute('src') || '';
		if (!src) continue;
		images.push({
			src,
			width: img.clientWidth || img.naturalWidth || 0,
			height: img.clientHeight || img.naturalHeight || 0,
		});
	}
	return { title: document.title || '', location: window.location.href, metas, images };
}`

// Extractor is the rendered tier: it loads a URL with full script
// execution in a page borrowed from the shared session and runs the
// image-ranking heuristic over the settled DOM.
type Extractor struct {
	session    *Session
	browserCfg config.BrowserConfig
	fetcherCfg config.FetcherConfig
	scraperCfg config.ScraperConfig
}

// NewExtractor creates an Extractor on top of the shared session.
func NewExtractor(session *Session, cfg *config.Config) *Extractor {
	return &Extractor{
		session:    session,
		browserCfg: cfg.Browser,
		fetcherCfg: cfg.Fetcher,
		scraperCfg: cfg.Scraper,
	}
}

// Extract navigates to pageURL, waits for network activity to settle
// (bounded by the hard navigation timeout), and extracts the title and
// preview image from the rendered document. The borrowed page is closed
// on every path; navigation errors propagate after cleanup.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (models.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.scraperCfg.NavTimeout)
	defer cancel()

	page, err := e.session.Page()
	if err != nil {
		return models.Extraction{}, err
	}
	// The page carries the browser's context, not the request's, so this
	// Close still reaches the browser after the deadline has expired.
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("page close failed", "url", pageURL, "error", closeErr)
		}
	}()

	// Stealth JS and header overrides only take effect for navigations
	// that happen after they are installed.
	if e.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without", "error", evalErr)
		}
	}

	// Same user-agent as the static pass, for consistency of served content.
	if uaErr := (proto.NetworkSetUserAgentOverride{
		UserAgent: e.fetcherCfg.UserAgent,
	}).Call(page); uaErr != nil {
		slog.Warn("user-agent override failed", "error", uaErr)
	}
	if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept-Language": gson.New(e.fetcherCfg.AcceptLanguage),
		},
	}).Call(page); hdrErr != nil {
		slog.Warn("extra header override failed", "error", hdrErr)
	}

	p := page.Context(ctx)

	// The idle waiter must be registered before Navigate or in-flight
	// requests are missed and the wait returns instantly.
	waitSettle := p.WaitRequestIdle(e.scraperCfg.SettleWindow, nil, nil, nil)

	if navErr := p.Navigate(pageURL); navErr != nil {
		return models.Extraction{}, categorizeError(navErr, "navigation to target URL failed")
	}
	waitSettle()

	snap, evalErr := e.snapshot(p)
	if evalErr != nil {
		return models.Extraction{}, categorizeError(evalErr, "rendered page evaluation failed")
	}

	base := snap.Location
	if base == "" {
		base = pageURL
	}

	result := models.Extraction{Title: markup.CleanTitle(snap.Title)}
	if src := pickPreviewImage(snap.Metas, snap.Images, e.scraperCfg.MinImageDim); src != "" {
		result.PreviewImage = markup.ResolveURL(src, base)
	}
	return result, nil
}

// snapshot evaluates snapshotJS in the page and decodes the result.
func (e *Extractor) snapshot(p *rod.Page) (*pageSnapshot, error) {
	res, err := p.Eval(snapshotJS)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, err
	}
	var snap pageSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// categorizeError wraps raw rod errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "navigation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
