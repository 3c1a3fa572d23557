package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"axles-ingest/checkpoint"
	"axles-ingest/config"
	"axles-ingest/pipeline"
	"axles-ingest/scraper"
	"axles-ingest/services"
	"axles-ingest/storage"
	"axles-ingest/utils"
)

func main() {
	var (
		sourceName = flag.String("source", "", "Source to crawl (see -list)")
		maxCount   = flag.Int("max", 0, "Max listings to import this run (0 = config default)")
		startPage  = flag.Int("start-page", 0, "First page to fetch (0 = resume from checkpoint)")
		delayMs    = flag.Int("delay-ms", 0, "Request delay override in milliseconds")
		list       = flag.Bool("list", false, "List registered sources and exit")
	)
	flag.Parse()

	if *list {
		fmt.Println("Registered sources:", strings.Join(scraper.Names(), ", "))
		return
	}
	if *sourceName == "" {
		fmt.Fprintln(os.Stderr, "usage: axles-ingest -source <name> [-max N] [-start-page N] [-delay-ms N]")
		os.Exit(2)
	}

	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Axles catalog ingest starting — source: %s ===", *sourceName)

	// Catalog store access is a precondition for everything; a bad DSN or
	// unreachable database ends the run before any crawling begins.
	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Cannot reach catalog store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	crawler, err := scraper.New(*sourceName, cfg, logger, *delayMs)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	defer crawler.Close()

	tracker := checkpoint.NewTracker(cfg.CheckpointDir, *sourceName)
	if err := tracker.Load(); err != nil {
		logger.Error("Cannot load checkpoint: %v", err)
		os.Exit(1)
	}
	if tracker.CompletedPages() > 0 {
		logger.Info("Resuming — %d pages done, %d listings imported so far (last run %s)",
			tracker.CompletedPages(), tracker.ImportedTotal(),
			tracker.LastRun().Format("2006-01-02 15:04"))
	}

	maxListings := *maxCount
	if maxListings == 0 {
		maxListings = cfg.MaxListingsPerRun
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &pipeline.Runner{
		Crawler:             crawler,
		Normalizer:          services.NewNormalizer(logger),
		Importer:            services.NewImporter(store, logger, crawler.Source()),
		Tracker:             tracker,
		Logger:              logger,
		StartPage:           *startPage,
		MaxListings:         maxListings,
		MaxConsecutiveFails: cfg.MaxConsecutiveFails,
	}

	sum := runner.Run(ctx)

	logger.Info("=== Run complete — source: %s ===", sum.Source)
	logger.Info("Pages: %d visited, %d skipped (checkpointed)", sum.PagesVisited, sum.PagesSkipped)
	logger.Info("Listings: %d found | %d imported | %d duplicate | %d no-images | %d errors",
		sum.ListingsFound, sum.Imported, sum.SkippedDuplicate, sum.SkippedNoImages, sum.Errors)
	logger.Info("Cumulative: %d pages, %d listings imported across all runs",
		tracker.CompletedPages(), tracker.ImportedTotal())

	if sum.FirstPageEmpty {
		logger.Warn("First fetched page had zero listings — the source may be rate-limiting; retry later")
	}
}
