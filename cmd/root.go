// Package cmd defines the coursesampler CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/course-sampler/internal/catalog"
	"github.com/JakeFAU/course-sampler/internal/clock/system"
	"github.com/JakeFAU/course-sampler/internal/config"
	"github.com/JakeFAU/course-sampler/internal/export"
	collyfetcher "github.com/JakeFAU/course-sampler/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/course-sampler/internal/fetcher/headless"
	"github.com/JakeFAU/course-sampler/internal/hash/sha256"
	"github.com/JakeFAU/course-sampler/internal/headless/detector"
	"github.com/JakeFAU/course-sampler/internal/id/uuid"
	"github.com/JakeFAU/course-sampler/internal/logging"
	"github.com/JakeFAU/course-sampler/internal/metrics"
	"github.com/JakeFAU/course-sampler/internal/pipeline"
	"github.com/JakeFAU/course-sampler/internal/sitemap"
	"github.com/JakeFAU/course-sampler/internal/storage/local"
)

// rootOptions holds flag state plus the terminal hooks, which tests replace.
type rootOptions struct {
	cfgFile     string
	noPrompt    bool
	interactive func() bool
	prompt      func(defaultPath string) (string, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{
		interactive: stdinIsTerminal,
		prompt:      promptOutputPath,
	})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursesampler",
		Short: "Sample course pages from a catalog sitemap into a spreadsheet.",
		Long: `coursesampler downloads a course catalog sitemap, draws a random sample
of course pages, extracts title, language, start date, length in weeks and
average rating from each page, and saves the rows as an xlsx or csv file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSample(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath, "spreadsheet to write")
	cmd.Flags().IntP("count", "n", 20, "number of courses to sample")
	cmd.Flags().String("format", "", "output format: xlsx or csv (default: by extension)")
	cmd.Flags().String("sitemap", config.DefaultSitemapURL, "sitemap listing the course pages")
	cmd.Flags().Int64("seed", 0, "random seed for sampling (0 picks one)")
	cmd.Flags().String("headless", config.HeadlessOff, "browser rendering: off, auto or always")
	cmd.Flags().String("archive", "", "directory to keep raw course pages in")
	cmd.Flags().BoolVar(&opts.noPrompt, "no-prompt", false, "never ask for the output path")

	cmd.AddCommand(newExtractCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		reportError(zap.L(), os.Stderr, err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

// reportError reports a failed command exactly once. Failures before the
// logger is built (bad flags or config) go to w.
func reportError(logger *zap.Logger, w io.Writer, err error) {
	if logger.Core().Enabled(zap.ErrorLevel) {
		logger.Error("Command execution failed", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func runSample(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go metrics.Serve(ctx, cfg.Metrics.Addr, logger.Named("metrics"))
	}

	outputPath := cfg.Output.Path
	if !cmd.Flags().Changed("output") && !opts.noPrompt && opts.interactive() {
		outputPath, err = opts.prompt(outputPath)
		if err != nil {
			return fmt.Errorf("read output path: %w", err)
		}
	}

	exporter, format, err := export.ForPath(outputPath, cfg.Output.Format)
	if err != nil {
		return err
	}

	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.RequestTimeout(),
	})

	var (
		headless catalog.Fetcher
		promoter catalog.HeadlessDetector
		archive  catalog.PageArchiver
	)
	if cfg.Headless.Mode != config.HeadlessOff {
		browser, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout(),
		})
		if err != nil {
			return fmt.Errorf("init headless fetcher: %w", err)
		}
		defer browser.Close()
		headless = browser
		promoter = detector.NewHeuristic(cfg.Headless.PromotionThresh)
	}
	if cfg.Archive.Dir != "" {
		store, err := local.New(local.Config{BaseDir: cfg.Archive.Dir})
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		archive = local.NewPageArchive(store, sha256.New())
	}

	runner := pipeline.New(
		probe,
		headless,
		promoter,
		archive,
		exporter,
		uuid.New(),
		system.New(),
		sitemap.NewRand(cfg.Sample.Seed),
		pipeline.Config{
			SitemapURL:   cfg.Sitemap.URL,
			Count:        cfg.Sample.Count,
			OutputPath:   outputPath,
			Format:       format,
			HeadlessMode: cfg.Headless.Mode,
		},
		logger.Named("pipeline"),
	)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), res)
	return nil
}

func stdinIsTerminal() bool {
	return isTerminal(os.Stdin.Fd())
}
