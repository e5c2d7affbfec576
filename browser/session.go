// Package browser owns the shared headless-browser session and the
// rendered extraction tier built on it.
package browser

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/models"
)

// Session is the process-scoped browser handle. The browser launches
// lazily on the first Page call and is reused by every later escalation
// in the run; launching is by far the most expensive step, so it happens
// at most once. Safe for concurrent use.
type Session struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser

	// launch is swapped in tests.
	launch func() (*rod.Browser, error)
}

// NewSession creates a Session without launching anything.
func NewSession(cfg config.BrowserConfig) *Session {
	s := &Session{cfg: cfg}
	s.launch = s.launchBrowser
	return s
}

// Page borrows a fresh tab from the session, launching the browser on
// first use. The page is scoped to the browser, never to a request:
// callers bound navigation with page.Context and close through the
// reference returned here, so cleanup still works after a request
// deadline has expired. The caller owns the page and must close it;
// the browser itself stays alive until Release.
func (s *Session) Page() (*rod.Page, error) {
	b, err := s.handle()
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	return page, nil
}

// handle returns the cached browser, launching one on first call.
// A failed launch is not cached; the next call tries again.
func (s *Session) handle() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		b, err := s.launch()
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		}
		s.browser = b
	}
	return s.browser, nil
}

// Launched reports whether a browser has been started.
func (s *Session) Launched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// Release closes the browser if one was launched. Idempotent: safe to
// call when nothing was launched and safe to call more than once.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	s.browser = nil
	slog.Debug("browser session released")
}

// launchBrowser starts a headless Chromium and connects to it.
func (s *Session) launchBrowser() (*rod.Browser, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)

	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	if s.cfg.Proxy != "" {
		l = l.Proxy(s.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return b, nil
}
