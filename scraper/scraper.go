// Package scraper defines the crawl contract every source implementation
// satisfies and the registry that maps source names to crawlers.
package scraper

import (
	"context"

	"axles-ingest/config"
	"axles-ingest/models"
)

// Crawler produces raw listing candidates for one dealer source, one index
// page at a time. An empty (nil-error) result means the source has no more
// pages. A returned error means the page fetch failed; the caller decides
// whether to continue or stop.
type Crawler interface {
	Name() string
	Source() *config.Source
	FetchPage(ctx context.Context, page int) ([]*models.RawListingCandidate, error)
	Close() error
}
