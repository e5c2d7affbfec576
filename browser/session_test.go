package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/models"
)

func TestSessionLaunchesOnce(t *testing.T) {
	s := NewSession(config.BrowserConfig{})
	launches := 0
	s.launch = func() (*rod.Browser, error) {
		launches++
		return rod.New(), nil
	}

	for i := 0; i < 3; i++ {
		if _, err := s.handle(); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if launches != 1 {
		t.Errorf("launch invoked %d times, want exactly 1", launches)
	}
	if !s.Launched() {
		t.Error("Launched() = false after handle")
	}
}

func TestSessionLaunchFailureNotCached(t *testing.T) {
	s := NewSession(config.BrowserConfig{})
	launches := 0
	s.launch = func() (*rod.Browser, error) {
		launches++
		return nil, errors.New("no chromium binary")
	}

	for i := 0; i < 2; i++ {
		_, err := s.handle()
		if err == nil {
			t.Fatal("handle succeeded with failing launcher")
		}
		var se *models.ScrapeError
		if !errors.As(err, &se) || se.Code != models.ErrCodeBrowserCrash {
			t.Fatalf("error = %v, want BROWSER_CRASH scrape error", err)
		}
	}
	if launches != 2 {
		t.Errorf("launch invoked %d times, want a fresh attempt per call", launches)
	}
	if s.Launched() {
		t.Error("Launched() = true after failed launches")
	}
}

func TestPageCloseSurvivesExpiredContext(t *testing.T) {
	if _, found := launcher.LookPath(); !found {
		t.Skip("no browser binary available")
	}

	s := NewSession(config.BrowserConfig{Headless: true, NoSandbox: true})
	defer s.Release()

	page, err := s.Page()
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if navErr := page.Context(ctx).Navigate("http://127.0.0.1:1/never"); navErr == nil {
		t.Fatal("navigation under a canceled context should fail")
	}

	// The page is scoped to the browser, so closing it must still work
	// after the navigation context has died.
	if closeErr := page.Close(); closeErr != nil {
		t.Errorf("page close failed after context expiry: %v", closeErr)
	}
}

func TestSessionReleaseIdempotentWhenNeverLaunched(t *testing.T) {
	s := NewSession(config.BrowserConfig{})
	// Safe with nothing launched, and safe to call more than once.
	s.Release()
	s.Release()
	if s.Launched() {
		t.Error("Launched() = true after releases with no launch")
	}
}
