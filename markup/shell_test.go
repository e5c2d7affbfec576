package markup

import (
	"strings"
	"testing"
)

func TestLooksScriptRendered(t *testing.T) {
	longText := strings.Repeat("Plenty of real server-rendered article text here. ", 20)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			"empty spa root",
			`<html><body><div id="root"></div><script src="/app.js"></script></body></html>`,
			true,
		},
		{
			"next shell",
			`<html><body><div id="__next"></div>` + longText + `</body></html>`,
			true,
		},
		{
			"noscript warning",
			`<html><body><noscript>Please enable JavaScript to view this page.</noscript>` + longText + `</body></html>`,
			true,
		},
		{
			"contentful page",
			`<html><body><article>` + longText + `</article></body></html>`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksScriptRendered(tt.html); got != tt.want {
				t.Errorf("LooksScriptRendered = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibleTextSkipsScripts(t *testing.T) {
	html := `<html><body><script>var hidden = "secret";</script><p>visible</p></body></html>`
	text := visibleText(html)
	if strings.Contains(text, "secret") {
		t.Errorf("script content leaked into visible text: %q", text)
	}
	if !strings.Contains(text, "visible") {
		t.Errorf("body text missing from visible text: %q", text)
	}
}
