// Package metrics exposes Prometheus collectors for the course sampler.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	samplerPagesTotal              *prometheus.CounterVec
	samplerBytesTotal              *prometheus.CounterVec
	samplerFetchDurationSeconds    *prometheus.HistogramVec
	samplerFieldMissingTotal       *prometheus.CounterVec
	samplerHeadlessPromotionsTotal prometheus.Counter
	samplerRobotsFallbackTotal     prometheus.Counter
	samplerRowsExportedTotal       *prometheus.CounterVec
	samplerRunsTotal               *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		samplerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampler_pages_total",
				Help: "Total number of pages fetched, labeled by site and status code.",
			},
			[]string{"site", "code"},
		)

		samplerBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampler_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		samplerFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sampler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by fetcher kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"fetcher"},
		)

		samplerFieldMissingTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampler_field_missing_total",
				Help: "Total number of course pages lacking a field, labeled by field.",
			},
			[]string{"field"},
		)

		samplerHeadlessPromotionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sampler_headless_promotions_total",
				Help: "Total number of course pages re-fetched with the headless browser.",
			},
		)

		samplerRobotsFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sampler_robots_fallback_total",
				Help: "Total robots.txt probes that fell back to allow-all after TLS handshake timeouts.",
			},
		)

		samplerRowsExportedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampler_rows_exported_total",
				Help: "Total number of rows written, labeled by output format.",
			},
			[]string{"format"},
		)

		samplerRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sampler_runs_total",
				Help: "Total number of sampling runs, labeled by outcome.",
			},
			[]string{"status"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("metrics server started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}

// ObservePage increments the page counters for a completed fetch.
func ObservePage(site string, code int, bytesFetched int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	samplerPagesTotal.WithLabelValues(sanitizedSite, strconv.Itoa(code)).Inc()
	if bytesFetched > 0 {
		samplerBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// ObserveFetchDuration records how long a fetcher took.
func ObserveFetchDuration(fetcher string, duration time.Duration) {
	Init()
	samplerFetchDurationSeconds.WithLabelValues(fetcher).Observe(duration.Seconds())
}

// ObserveFieldMissing counts a course page that lacked the given field.
func ObserveFieldMissing(field string) {
	Init()
	samplerFieldMissingTotal.WithLabelValues(field).Inc()
}

// ObserveHeadlessPromotion counts a headless re-fetch.
func ObserveHeadlessPromotion() {
	Init()
	samplerHeadlessPromotionsTotal.Inc()
}

// ObserveRobotsFallback increments the robots.txt allow-all fallback counter.
func ObserveRobotsFallback() {
	Init()
	samplerRobotsFallbackTotal.Inc()
}

// ObserveRowsExported adds n rows to the export counter.
func ObserveRowsExported(format string, n int) {
	Init()
	samplerRowsExportedTotal.WithLabelValues(format).Add(float64(n))
}

// ObserveRun increments the run counter for the given status.
func ObserveRun(status string) {
	Init()
	samplerRunsTotal.WithLabelValues(status).Inc()
}
