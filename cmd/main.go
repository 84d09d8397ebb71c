package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elograph/elograph/internal/adapters/discovery"
	"github.com/elograph/elograph/internal/adapters/export"
	"github.com/elograph/elograph/internal/adapters/ingest"
	"github.com/elograph/elograph/internal/adapters/repository"
	"github.com/elograph/elograph/internal/app"
	"github.com/elograph/elograph/internal/config"
	"github.com/elograph/elograph/internal/domain/parser"
	"github.com/elograph/elograph/internal/domain/rating"
	"github.com/elograph/elograph/pkg/logger"
	"github.com/elograph/elograph/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	watch := flag.Bool("watch", false, "keep running and ingest new result files as they appear")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store := repository.New(repository.WithDefaultSeason(cfg.DefaultSeason))
	coordinator := ingest.New(parser.New(),
		ingest.WithWorkers(cfg.WorkerCount),
		ingest.WithTimeout(time.Duration(cfg.ParseTimeoutMS)*time.Millisecond),
	)
	svc := app.New(store, coordinator,
		app.WithScanner(discovery.New(cfg.ResultsDir)),
		app.WithExcludedEvents(cfg.ExcludedEvents),
		app.WithSeasonsToInclude(cfg.SeasonsToInclude),
		app.WithRatingOptions(
			rating.WithDefaultRating(cfg.DefaultRating),
			rating.WithKFactors(cfg.KStandard, cfg.KProvisional),
			rating.WithProvisionalThreshold(cfg.ProvisionalThreshold),
			rating.WithRatingFloor(cfg.RatingFloor),
			rating.WithImportanceMultipliers(cfg.StateMultiplier, cfg.NationalMultiplier),
		),
	)

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	summary, err := svc.IngestAll(ctx)
	if err != nil {
		log.Error(ctx, "ingestion failed", logger.Error(err))
		return
	}
	for _, msg := range summary.Errors {
		log.Warn(ctx, "file skipped", logger.String("reason", msg))
	}

	writer := export.New(cfg.OutputDir)
	if err := writer.Write(svc.Snapshot(), svc.Seasons()); err != nil {
		log.Error(ctx, "export failed", logger.Error(err))
		return
	}
	log.Info(ctx, "export complete",
		logger.String("dir", cfg.OutputDir),
		logger.Int("states", len(svc.States())))

	if *watch {
		log.Info(ctx, "watching for new result files",
			logger.String("dir", cfg.ResultsDir))
		if err := svc.Watch(ctx); err != nil {
			log.Error(ctx, "watch failed", logger.Error(err))
			return
		}
		// Final export picks up everything ingested while watching.
		if err := writer.Write(svc.Snapshot(), svc.Seasons()); err != nil {
			log.Error(ctx, "final export failed", logger.Error(err))
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	log := logger.Named("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(ctx, "metrics server failed", logger.Error(err))
	}
}
