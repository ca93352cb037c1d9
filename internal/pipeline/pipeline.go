// Package pipeline runs one sampling pass: fetch the sitemap, draw a sample
// of course URLs, fetch and extract each page in order, and export the rows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/course-sampler/internal/catalog"
	"github.com/JakeFAU/course-sampler/internal/clock/system"
	"github.com/JakeFAU/course-sampler/internal/config"
	"github.com/JakeFAU/course-sampler/internal/extract"
	"github.com/JakeFAU/course-sampler/internal/id/uuid"
	"github.com/JakeFAU/course-sampler/internal/metrics"
	"github.com/JakeFAU/course-sampler/internal/sitemap"
)

// Config controls a Runner.
type Config struct {
	SitemapURL   string
	Count        int
	OutputPath   string
	Format       string
	// HeadlessMode is one of config.HeadlessOff, config.HeadlessAuto or
	// config.HeadlessAlways.
	HeadlessMode string
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Courses    []catalog.Course
	OutputPath string
	Format     string
	Started    time.Time
	Duration   time.Duration
	// Missing counts pages lacking each field. Rendered counts pages fetched
	// with the headless browser.
	Missing  map[string]int
	Rendered int
}

// Runner executes the sampling pipeline. Pages are fetched one at a time.
type Runner struct {
	probeFetcher    catalog.Fetcher
	headlessFetcher catalog.Fetcher
	detector        catalog.HeadlessDetector
	archive         catalog.PageArchiver
	exporter        catalog.Exporter
	ids             catalog.IDGenerator
	clock           catalog.Clock
	rng             *rand.Rand
	cfg             Config
	logger          *zap.Logger
}

// New constructs a Runner. headless, detector, and archive may be nil. A nil
// ids or clock falls back to UUIDv7 run IDs and the system clock.
func New(
	probe catalog.Fetcher,
	headless catalog.Fetcher,
	detector catalog.HeadlessDetector,
	archive catalog.PageArchiver,
	exporter catalog.Exporter,
	ids catalog.IDGenerator,
	clock catalog.Clock,
	rng *rand.Rand,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HeadlessMode == "" {
		cfg.HeadlessMode = config.HeadlessOff
	}
	if rng == nil {
		rng = sitemap.NewRand(0)
	}
	if ids == nil {
		ids = uuid.New()
	}
	if clock == nil {
		clock = system.New()
	}
	return &Runner{
		probeFetcher:    probe,
		headlessFetcher: headless,
		detector:        detector,
		archive:         archive,
		exporter:        exporter,
		ids:             ids,
		clock:           clock,
		rng:             rng,
		cfg:             cfg,
		logger:          logger,
	}
}

// Run performs one pass. Any fetch, sitemap, or export failure aborts the
// run; absent course fields never do.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	if r.probeFetcher == nil || r.exporter == nil {
		return Result{}, errors.New("pipeline requires a fetcher and an exporter")
	}
	runID, err := r.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("run id: %w", err)
	}
	logger := r.logger.With(zap.String("run_id", runID))
	res = Result{
		RunID:      runID,
		OutputPath: r.cfg.OutputPath,
		Format:     r.cfg.Format,
		Started:    r.clock.Now(),
		Missing:    map[string]int{},
	}
	defer func() {
		res.Duration = r.clock.Now().Sub(res.Started)
		metrics.ObserveRun(runStatus(ctx, err))
	}()

	urls, err := r.sampleURLs(ctx, runID, logger)
	if err != nil {
		return res, err
	}

	res.Courses = make([]catalog.Course, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("run canceled: %w", err)
		}
		course, rendered, err := r.handleURL(ctx, runID, url, logger)
		if err != nil {
			return res, err
		}
		if rendered {
			res.Rendered++
		}
		for _, field := range extract.Missing(course) {
			res.Missing[field]++
			metrics.ObserveFieldMissing(field)
		}
		res.Courses = append(res.Courses, course)
	}

	if err := r.exporter.Export(ctx, r.cfg.OutputPath, res.Courses); err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	metrics.ObserveRowsExported(r.cfg.Format, len(res.Courses))
	logger.Info("courses exported",
		zap.String("path", r.cfg.OutputPath),
		zap.String("format", r.cfg.Format),
		zap.Int("rows", len(res.Courses)),
	)
	return res, nil
}

func (r *Runner) sampleURLs(ctx context.Context, runID string, logger *zap.Logger) ([]string, error) {
	logger.Info("fetching sitemap", zap.String("url", r.cfg.SitemapURL))
	resp, err := r.probeFetcher.Fetch(ctx, catalog.FetchRequest{RunID: runID, URL: r.cfg.SitemapURL})
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}
	all, err := sitemap.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sitemap %s: %w", r.cfg.SitemapURL, err)
	}
	urls := sitemap.Sample(all, r.cfg.Count, r.rng)
	logger.Info("sampled courses", zap.Int("listed", len(all)), zap.Int("sampled", len(urls)))
	return urls, nil
}

func (r *Runner) handleURL(
	ctx context.Context,
	runID string,
	url string,
	logger *zap.Logger,
) (catalog.Course, bool, error) {
	logger = logger.With(zap.String("url", url))
	logger.Info("scraping course")

	page, err := r.fetchCourse(ctx, runID, url, logger)
	if err != nil {
		return catalog.Course{}, false, err
	}
	if r.archive != nil {
		if uri, err := r.archive.Archive(ctx, runID, page); err != nil {
			logger.Warn("archive page failed", zap.Error(err))
		} else {
			logger.Debug("page archived", zap.String("uri", uri))
		}
	}

	course, err := extract.Course(page.Body, url)
	if err != nil {
		return catalog.Course{}, false, fmt.Errorf("extract %s: %w", url, err)
	}
	if missing := extract.Missing(course); len(missing) > 0 {
		logger.Debug("course fields missing", zap.Strings("missing", missing))
	}
	return course, page.UsedHeadless, nil
}

func (r *Runner) fetchCourse(
	ctx context.Context,
	runID string,
	url string,
	logger *zap.Logger,
) (catalog.FetchResponse, error) {
	request := catalog.FetchRequest{RunID: runID, URL: url}

	if r.cfg.HeadlessMode == config.HeadlessAlways && r.headlessFetcher != nil {
		request.UseHeadless = true
		resp, err := r.headlessFetcher.Fetch(ctx, request)
		if err == nil {
			err = catalog.CheckStatus(resp)
		}
		if err != nil {
			return catalog.FetchResponse{}, fmt.Errorf("headless fetch %s: %w", url, err)
		}
		return resp, nil
	}

	resp, err := r.probeFetcher.Fetch(ctx, request)
	if err != nil {
		return catalog.FetchResponse{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	if promoted, ok := r.maybePromote(ctx, request, resp, logger); ok {
		return promoted, nil
	}
	return resp, nil
}

func (r *Runner) maybePromote(
	ctx context.Context,
	request catalog.FetchRequest,
	probe catalog.FetchResponse,
	logger *zap.Logger,
) (catalog.FetchResponse, bool) {
	if r.cfg.HeadlessMode != config.HeadlessAuto || r.detector == nil || r.headlessFetcher == nil {
		return probe, false
	}
	if !r.detector.ShouldPromote(probe) {
		return probe, false
	}

	request.UseHeadless = true
	resp, err := r.headlessFetcher.Fetch(ctx, request)
	if err == nil {
		err = catalog.CheckStatus(resp)
	}
	if err != nil {
		logger.Warn("headless promotion failed", zap.Error(err))
		return probe, false
	}
	resp.UsedHeadless = true
	metrics.ObserveHeadlessPromotion()
	logger.Info("headless promotion applied")
	return resp, true
}

func runStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case ctx.Err() != nil:
		return "canceled"
	default:
		return "failed"
	}
}
