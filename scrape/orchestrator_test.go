package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/linkpeek/models"
)

const emptyShell = `<html><head></head><body><div id="app"></div></body></html>`
const titledPage = `<html><head><title>X</title></head><body></body></html>`
const fullPage = `<html><head><title>News | My Site</title>` +
	`<meta property="og:image" content="/img/hero.png"></head><body></body></html>`

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

type fakeRendered struct {
	results map[string]models.Extraction
	errs    map[string]error
	calls   []string
}

func (f *fakeRendered) Extract(_ context.Context, url string) (models.Extraction, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return models.Extraction{}, err
	}
	return f.results[url], nil
}

type fakeSession struct {
	releases int
}

func (f *fakeSession) Release() { f.releases++ }

func newTestOrchestrator(fetcher *fakeFetcher, rendered *fakeRendered, session *fakeSession) *Orchestrator {
	if fetcher.pages == nil {
		fetcher.pages = map[string]string{}
	}
	if rendered.results == nil {
		rendered.results = map[string]models.Extraction{}
	}
	return New(fetcher, rendered, session, NewMetrics())
}

func TestStaticResultSkipsEscalation(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example": titledPage}}
	rendered := &fakeRendered{}
	o := newTestOrchestrator(fetcher, rendered, &fakeSession{})

	records, err := o.Run(context.Background(), []string{"https://a.example"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rendered.calls) != 0 {
		t.Errorf("rendered tier invoked %d times for a page with a title, want 0", len(rendered.calls))
	}
	if records[0].Title != "X" {
		t.Errorf("title = %q, want X", records[0].Title)
	}
}

func TestEmptyStaticPassEscalatesOnce(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example": emptyShell}}
	rendered := &fakeRendered{results: map[string]models.Extraction{
		"https://a.example": {Title: "Rendered", PreviewImage: "https://a.example/hero.png"},
	}}
	o := newTestOrchestrator(fetcher, rendered, &fakeSession{})

	records, err := o.Run(context.Background(), []string{"https://a.example"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rendered.calls) != 1 {
		t.Fatalf("rendered tier invoked %d times, want exactly 1", len(rendered.calls))
	}
	if records[0].Title != "Rendered" || records[0].PreviewImage != "https://a.example/hero.png" {
		t.Errorf("record = %+v, want the rendered extraction", records[0])
	}
}

func TestFetchFailureDoesNotEscalate(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{
		"https://a.example": models.NewFetchError(404, "Not Found"),
	}}
	rendered := &fakeRendered{}
	o := newTestOrchestrator(fetcher, rendered, &fakeSession{})

	records, err := o.Run(context.Background(), []string{"https://a.example"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rendered.calls) != 0 {
		t.Errorf("rendered tier invoked on fetch failure, want none: a 404 is not solved by a browser")
	}
	if !records[0].Failed() || !strings.Contains(records[0].Err, "404") {
		t.Errorf("record = %+v, want a 404 error record", records[0])
	}
}

func TestRenderFailureReportedNotDowngraded(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example": emptyShell}}
	rendered := &fakeRendered{errs: map[string]error{
		"https://a.example": models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", nil),
	}}
	o := newTestOrchestrator(fetcher, rendered, &fakeSession{})

	records, err := o.Run(context.Background(), []string{"https://a.example"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !records[0].Failed() {
		t.Fatalf("record = %+v, want the rendering failure reported, not nulls", records[0])
	}
	if !strings.Contains(records[0].Err, "NAVIGATION_FAILED") {
		t.Errorf("error = %q, want the navigation failure message", records[0].Err)
	}
}

func TestBatchIndependenceAndOrdering(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://a.example": fullPage,
			"https://c.example": titledPage,
		},
		errs: map[string]error{
			"https://b.example": models.NewFetchError(500, "Internal Server Error"),
		},
	}
	o := newTestOrchestrator(fetcher, &fakeRendered{}, &fakeSession{})

	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	records, err := o.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, u := range urls {
		if records[i].URL != u {
			t.Errorf("records[%d].URL = %q, want %q (input order preserved)", i, records[i].URL, u)
		}
	}
	if records[0].Failed() || records[2].Failed() {
		t.Error("failure of the middle URL affected its neighbors")
	}
	if !records[1].Failed() {
		t.Error("middle URL should be an error record")
	}
	if records[0].Title != "News" {
		t.Errorf("records[0].Title = %q, want bar-truncated title", records[0].Title)
	}
	if records[0].PreviewImage != "https://a.example/img/hero.png" {
		t.Errorf("records[0].PreviewImage = %q, want resolved absolute URL", records[0].PreviewImage)
	}
}

func TestSharedSessionAcrossEscalations(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example": emptyShell,
		"https://b.example": emptyShell,
	}}
	rendered := &fakeRendered{results: map[string]models.Extraction{
		"https://a.example": {Title: "A"},
		"https://b.example": {Title: "B"},
	}}
	session := &fakeSession{}
	o := newTestOrchestrator(fetcher, rendered, session)

	if _, err := o.Run(context.Background(), []string{"https://a.example", "https://b.example"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rendered.calls) != 2 {
		t.Fatalf("rendered tier invoked %d times, want 2", len(rendered.calls))
	}
	// The session is released once at the end of the run, never between URLs.
	if session.releases != 0 {
		t.Errorf("session released %d times during the run, want 0", session.releases)
	}
	o.Close()
	if session.releases != 1 {
		t.Errorf("session released %d times after Close, want exactly 1", session.releases)
	}
}

func TestCleanupRunsWhenRenderingFails(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example": emptyShell,
		"https://b.example": emptyShell,
	}}
	rendered := &fakeRendered{
		results: map[string]models.Extraction{"https://a.example": {Title: "A"}},
		errs: map[string]error{
			"https://b.example": models.NewScrapeError(models.ErrCodeTimeout, "navigation timed out", context.DeadlineExceeded),
		},
	}
	session := &fakeSession{}
	o := newTestOrchestrator(fetcher, rendered, session)

	func() {
		defer o.Close()
		records, err := o.Run(context.Background(), []string{"https://a.example", "https://b.example"})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !records[1].Failed() {
			t.Error("second record should carry the rendering failure")
		}
	}()

	if session.releases != 1 {
		t.Errorf("session released %d times, want exactly 1 by end of run", session.releases)
	}
}

func TestEmptyInputFailsBeforeAnyFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(fetcher, &fakeRendered{}, &fakeSession{})

	_, err := o.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("want input error for empty list")
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
	if len(fetcher.calls) != 0 {
		t.Error("fetcher touched despite invalid input")
	}
}

func TestBlankURLFailsBeforeAnyFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(fetcher, &fakeRendered{}, &fakeSession{})

	_, err := o.Run(context.Background(), []string{"https://a.example", ""})
	if err == nil {
		t.Fatal("want input error for blank URL")
	}
	if len(fetcher.calls) != 0 {
		t.Error("fetcher touched despite invalid input")
	}
}
