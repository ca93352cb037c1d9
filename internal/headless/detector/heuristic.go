// Package detector decides when a course page should be re-fetched with the
// headless browser.
package detector

import (
	"bytes"
	"net/http"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

const defaultThreshold = 2048

// courseMarkers are class names the extractor reads. A probe that already
// carries one of them was rendered server-side.
var courseMarkers = [][]byte{
	[]byte("language-info"),
	[]byte("ratings-text"),
	[]byte("display-3-text"),
	[]byte(`class="week"`),
}

// spaMarkers point at a client-side application shell.
var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("window.__APOLLO_STATE__"),
}

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector. A zero threshold selects 2 KiB.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(resp catalog.FetchResponse) bool {
	if resp.StatusCode != http.StatusOK || resp.UsedHeadless {
		return false
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if containsAny(body, courseMarkers) {
		return false
	}
	if containsAny(body, spaMarkers) {
		return true
	}
	return len(body) < h.BodyLengthThreshold && scriptShare(body) >= 25
}

func containsAny(body []byte, markers [][]byte) bool {
	for _, marker := range markers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptShare returns the percentage of body bytes that sit inside <script>
// elements, tags included. An unterminated script runs to the end.
func scriptShare(body []byte) int {
	lower := bytes.ToLower(body)
	total := len(lower)
	if total == 0 {
		return 0
	}
	openTag := []byte("<script")
	closeTag := []byte("</script>")

	covered := 0
	for pos := 0; pos < total; {
		rel := bytes.Index(lower[pos:], openTag)
		if rel < 0 {
			break
		}
		start := pos + rel
		end := total
		if relClose := bytes.Index(lower[start:], closeTag); relClose >= 0 {
			end = start + relClose + len(closeTag)
		}
		covered += end - start
		pos = end
	}
	return covered * 100 / total
}
