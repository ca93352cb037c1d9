package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	if samplerPagesTotal == nil || samplerBytesTotal == nil ||
		samplerFetchDurationSeconds == nil || samplerFieldMissingTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObservePage(t *testing.T) {
	Init()
	pages := samplerPagesTotal.WithLabelValues("pages.example.com", "200")
	bytesFetched := samplerBytesTotal.WithLabelValues("pages.example.com")
	before := testutil.ToFloat64(pages)
	beforeBytes := testutil.ToFloat64(bytesFetched)

	ObservePage("https://Pages.Example.com/learn/go", 200, 512)

	if got := testutil.ToFloat64(pages); got != before+1 {
		t.Fatalf("expected page counter to grow by 1, got %f -> %f", before, got)
	}
	if got := testutil.ToFloat64(bytesFetched); got != beforeBytes+512 {
		t.Fatalf("expected bytes counter to grow by 512, got %f -> %f", beforeBytes, got)
	}
}

func TestObserveFieldMissingAndCounters(t *testing.T) {
	Init()
	beforeField := testutil.ToFloat64(samplerFieldMissingTotal.WithLabelValues("rating"))
	beforePromotions := testutil.ToFloat64(samplerHeadlessPromotionsTotal)
	beforeRobots := testutil.ToFloat64(samplerRobotsFallbackTotal)
	beforeRows := testutil.ToFloat64(samplerRowsExportedTotal.WithLabelValues("xlsx"))
	beforeRuns := testutil.ToFloat64(samplerRunsTotal.WithLabelValues("succeeded"))

	ObserveFieldMissing("rating")
	ObserveHeadlessPromotion()
	ObserveRobotsFallback()
	ObserveRowsExported("xlsx", 3)
	ObserveRun("succeeded")
	ObserveFetchDuration("colly", 150*time.Millisecond)

	if got := testutil.ToFloat64(samplerFieldMissingTotal.WithLabelValues("rating")); got != beforeField+1 {
		t.Fatalf("field missing counter = %f, want %f", got, beforeField+1)
	}
	if got := testutil.ToFloat64(samplerHeadlessPromotionsTotal); got != beforePromotions+1 {
		t.Fatalf("promotions counter = %f, want %f", got, beforePromotions+1)
	}
	if got := testutil.ToFloat64(samplerRobotsFallbackTotal); got != beforeRobots+1 {
		t.Fatalf("robots fallback counter = %f, want %f", got, beforeRobots+1)
	}
	if got := testutil.ToFloat64(samplerRowsExportedTotal.WithLabelValues("xlsx")); got != beforeRows+3 {
		t.Fatalf("rows counter = %f, want %f", got, beforeRows+3)
	}
	if got := testutil.ToFloat64(samplerRunsTotal.WithLabelValues("succeeded")); got != beforeRuns+1 {
		t.Fatalf("runs counter = %f, want %f", got, beforeRuns+1)
	}
	if n := testutil.CollectAndCount(samplerFetchDurationSeconds); n == 0 {
		t.Fatal("expected fetch duration histogram to have series")
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
