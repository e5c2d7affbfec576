// Package markup extracts preview metadata from unrendered HTML.
package markup

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/linkpeek/models"
)

// imageSource pairs a precompiled selector with the attribute carrying
// the candidate value.
type imageSource struct {
	sel  cascadia.Selector
	attr string
}

// imageSources is the fixed priority order for the static tier. The first
// non-empty match wins; no merging or scoring across selectors. The bare
// <img> fallback is last resort; without rendering there is no size
// information to reject decorative images.
var imageSources = []imageSource{
	{cascadia.MustCompile(`meta[property="og:image"]`), "content"},
	{cascadia.MustCompile(`meta[name="og:image"]`), "content"},
	{cascadia.MustCompile(`meta[name="twitter:image"]`), "content"},
	{cascadia.MustCompile(`meta[itemprop="image"]`), "content"},
	{cascadia.MustCompile(`link[rel="image_src"]`), "href"},
	{cascadia.MustCompile(`img`), "src"},
}

var titleSel = cascadia.MustCompile("title")

// Extract parses raw markup and returns the title and preview image.
// pageURL is the base for resolving relative image references.
// Fields are independently empty when no rule matched.
func Extract(rawHTML, pageURL string) (models.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return models.Extraction{}, models.NewScrapeError(models.ErrCodeInternal, "parse markup", err)
	}

	var result models.Extraction
	result.Title = CleanTitle(doc.FindMatcher(titleSel).First().Text())

	for _, src := range imageSources {
		val, ok := doc.FindMatcher(src.sel).First().Attr(src.attr)
		val = strings.TrimSpace(val)
		if ok && val != "" {
			result.PreviewImage = ResolveURL(val, pageURL)
			break
		}
	}

	return result, nil
}

// CleanTitle trims the raw title and drops everything from the first
// vertical bar on ("News | My Site" → "News"). Empty after trimming
// stays empty, which serializes as null.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if before, _, found := strings.Cut(title, "|"); found {
		title = strings.TrimSpace(before)
	}
	return title
}

// ResolveURL resolves a possibly-relative reference against base.
// Any parse failure returns the raw value unchanged.
func ResolveURL(ref, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	resolved, err := baseURL.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}
