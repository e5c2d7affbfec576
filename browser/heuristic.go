package browser

import (
	"sort"
	"strings"
)

// pageSnapshot is the post-render DOM state marshalled out of the page:
// the document title, the page's own location, the ordered meta/link
// candidates, and every image with its displayed-or-intrinsic source and
// rendered dimensions. The ranking itself runs on this value in Go so it
// stays unit-testable independently of the browser transport.
type pageSnapshot struct {
	Title    string           `json:"title"`
	Location string           `json:"location"`
	Metas    []string         `json:"metas"`
	Images   []imageCandidate `json:"images"`
}

type imageCandidate struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (c imageCandidate) area() int {
	return c.Width * c.Height
}

// pickPreviewImage selects the best preview source from a snapshot.
//
// The first non-empty meta/link candidate wins unless it is an SVG or
// matches the decorative pattern; there is no fallthrough to later meta
// candidates. Otherwise the largest rendered image with both dimensions
// at or above minDim and a non-SVG source wins. Empty means no preview.
func pickPreviewImage(metas []string, images []imageCandidate, minDim int) string {
	for _, m := range metas {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if isSVG(m) || looksDecorative(m) {
			break
		}
		return m
	}
	return pickHeroImage(images, minDim)
}

// pickHeroImage returns the source of the largest-area image that clears
// the size floor and is not a vector asset.
func pickHeroImage(images []imageCandidate, minDim int) string {
	qualified := make([]imageCandidate, 0, len(images))
	for _, img := range images {
		if img.Src == "" || isSVG(img.Src) {
			continue
		}
		if img.Width < minDim || img.Height < minDim {
			continue
		}
		qualified = append(qualified, img)
	}
	if len(qualified) == 0 {
		return ""
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].area() > qualified[j].area()
	})
	return qualified[0].Src
}

// isSVG reports whether the source path ends in an SVG extension,
// ignoring query and fragment.
func isSVG(src string) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return strings.HasSuffix(strings.ToLower(src), ".svg")
}

// looksDecorative flags sprite/icon asset names, which are near-never
// meaningful preview images.
func looksDecorative(src string) bool {
	lower := strings.ToLower(src)
	return strings.Contains(lower, "sprite") || strings.Contains(lower, "icon")
}
