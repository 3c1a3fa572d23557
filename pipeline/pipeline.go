// Package pipeline drives one crawl run: fetch pages in order, normalize and
// import each listing, checkpoint after every completed page. Processing is
// strictly sequential; the politeness delay matters more than throughput on
// dealer sites with anti-bot defenses.
package pipeline

import (
	"context"

	"axles-ingest/checkpoint"
	"axles-ingest/models"
	"axles-ingest/scraper"
	"axles-ingest/services"
	"axles-ingest/utils"
)

// Runner wires one crawler to the normalizer, importer and progress tracker.
type Runner struct {
	Crawler    scraper.Crawler
	Normalizer *services.Normalizer
	Importer   *services.Importer
	Tracker    *checkpoint.Tracker
	Logger     *utils.Logger

	// StartPage < 1 means "from the beginning"; already-checkpointed pages
	// are skipped either way.
	StartPage int
	// MaxListings caps how many listings this run may import; 0 = unlimited.
	MaxListings int
	// MaxConsecutiveFails ends the run early after this many page fetch
	// failures in a row.
	MaxConsecutiveFails int
}

// Run executes the crawl until the source is drained, the listing cap is hit,
// consecutive failures exceed the threshold, or ctx is cancelled. Cancellation
// is honored between pages only: a page in flight runs to completion, gets
// checkpointed, and the next invocation resumes after it.
func (r *Runner) Run(ctx context.Context) *models.RunSummary {
	src := r.Crawler.Source()
	sum := &models.RunSummary{Source: src.Name}

	page := r.StartPage
	if page < 1 {
		page = 1
	}

	consecutiveFails := 0
	imported := 0

	for {
		if err := ctx.Err(); err != nil {
			r.Logger.Warn("[run] Stopping between pages: %v", err)
			break
		}
		if r.MaxListings > 0 && imported >= r.MaxListings {
			r.Logger.Info("[run] Listing cap reached (%d) — stopping", r.MaxListings)
			break
		}

		if r.Tracker.ShouldSkip(page) {
			r.Logger.Debug("[run] Page %d already completed — skipping", page)
			sum.PagesSkipped++
			page++
			continue
		}

		candidates, err := r.Crawler.FetchPage(ctx, page)
		if err != nil {
			consecutiveFails++
			r.Logger.Warn("[run] Page %d failed (%d/%d consecutive): %v",
				page, consecutiveFails, r.MaxConsecutiveFails, err)
			if consecutiveFails >= r.MaxConsecutiveFails {
				r.Logger.Error("[run] Too many consecutive failures — ending run early; progress is checkpointed")
				break
			}
			page++
			continue
		}
		consecutiveFails = 0

		if len(candidates) == 0 {
			if sum.PagesVisited == 0 {
				sum.FirstPageEmpty = true
			}
			r.Logger.Info("[run] Page %d returned no listings — source drained", page)
			break
		}

		sum.PagesVisited++
		sum.ListingsFound += len(candidates)

		pageImported := 0
		for _, raw := range candidates {
			normalized := r.Normalizer.Normalize(raw, src)

			outcome, err := r.Importer.Import(normalized)
			switch outcome {
			case models.Imported:
				pageImported++
				sum.Imported++
				r.Logger.Info("[run] Imported %q (%s)", normalized.Title, normalized.CategorySlug)
			case models.SkippedDuplicate:
				sum.SkippedDuplicate++
				r.Logger.Debug("[run] Duplicate skipped: %q", normalized.Title)
			case models.SkippedNoImages:
				sum.SkippedNoImages++
				r.Logger.Debug("[run] No images, skipped: %q", normalized.Title)
			case models.ImportFailed:
				sum.Errors++
				r.Logger.Error("[run] Import failed for %s: %v", normalized.SourceURL, err)
			}
		}
		imported += pageImported

		if err := r.Tracker.RecordPageComplete(page, pageImported); err != nil {
			r.Logger.Error("[run] Checkpoint write failed: %v", err)
		}
		page++
	}

	return sum
}
