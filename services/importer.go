package services

import (
	"fmt"

	"axles-ingest/config"
	"axles-ingest/models"
	"axles-ingest/storage"
	"axles-ingest/taxonomy"
	"axles-ingest/utils"
)

// Importer writes normalized listings into the catalog store: it resolves or
// provisions the owning dealer account, rejects duplicates, and inserts the
// listing row plus its images.
//
// The dealer and category id caches are owned by the Importer and scoped to
// one run; they exist only to avoid re-querying the store for every listing
// of the same source.
type Importer struct {
	store  storage.CatalogStore
	logger *utils.Logger
	src    *config.Source

	dealerIDs   map[string]int64
	categoryIDs map[string]int64
}

// NewImporter creates an Importer for one crawl source.
func NewImporter(store storage.CatalogStore, logger *utils.Logger, src *config.Source) *Importer {
	return &Importer{
		store:       store,
		logger:      logger,
		src:         src,
		dealerIDs:   make(map[string]int64),
		categoryIDs: make(map[string]int64),
	}
}

// Import processes one normalized listing. The outcome is always meaningful;
// the error carries detail only when the outcome is ImportFailed.
func (im *Importer) Import(l *models.NormalizedListing) (models.ImportOutcome, error) {
	dealerID, err := im.resolveDealer()
	if err != nil {
		return models.ImportFailed, err
	}

	dup, err := im.isDuplicate(dealerID, l)
	if err != nil {
		return models.ImportFailed, err
	}
	if dup {
		return models.SkippedDuplicate, nil
	}

	if im.src.RequireImages && len(l.Images) == 0 {
		return models.SkippedNoImages, nil
	}

	categoryID, err := im.resolveCategory(l.CategorySlug)
	if err != nil {
		return models.ImportFailed, err
	}

	listingID, err := im.store.InsertListing(&models.CatalogListing{
		DealerID:    dealerID,
		CategoryID:  categoryID,
		Title:       l.Title,
		Year:        l.Year,
		Make:        l.Make,
		Model:       l.Model,
		VIN:         l.VIN,
		StockNumber: l.StockNumber,
		Price:       l.Price,
		Mileage:     l.Mileage,
		Condition:   l.Condition,
		City:        l.City,
		State:       l.State,
		Description: l.Description,
		Status:      "active",
		SourceURL:   l.SourceURL,
	})
	if err != nil {
		return models.ImportFailed, err
	}

	for i, img := range l.Images {
		err := im.store.InsertImage(&models.ListingImage{
			ListingID: listingID,
			URL:       img,
			SortIndex: i,
			IsPrimary: i == 0,
		})
		if err != nil {
			return models.ImportFailed, fmt.Errorf("listing %d image %d: %w", listingID, i, err)
		}
	}

	return models.Imported, nil
}

// resolveDealer finds the dealer account for this source by company name,
// creating the authentication identity and profile on first miss. Lookups
// always precede creates, so reruns are idempotent.
func (im *Importer) resolveDealer() (int64, error) {
	company := im.src.DealerName
	if id, ok := im.dealerIDs[company]; ok {
		return id, nil
	}

	id, found, err := im.store.FindDealerByCompany(company)
	if err != nil {
		return 0, err
	}
	if !found {
		id, err = im.store.CreateDealer(&models.DealerProfile{
			CompanyName: company,
			Phone:       im.src.DealerPhone,
			City:        im.src.DealerCity,
			State:       im.src.DealerState,
			Website:     im.src.DealerWebsite,
		})
		if err != nil {
			return 0, err
		}
		im.logger.Info("[import] Provisioned dealer account for %q (id %d)", company, id)
	}

	im.dealerIDs[company] = id
	return id, nil
}

// isDuplicate checks the strong identifiers first (VIN, then stock number),
// falling back to the (dealer, title) pair.
func (im *Importer) isDuplicate(dealerID int64, l *models.NormalizedListing) (bool, error) {
	if l.VIN != "" {
		exists, err := im.store.ListingExistsByVIN(l.VIN)
		if err != nil || exists {
			return exists, err
		}
	}
	if l.StockNumber != "" {
		exists, err := im.store.ListingExistsByStock(dealerID, l.StockNumber)
		if err != nil || exists {
			return exists, err
		}
	}
	return im.store.ListingExistsByTitle(dealerID, l.Title)
}

// resolveCategory maps a slug to its catalog id, falling back to the generic
// specialty category when the slug is unknown to the store.
func (im *Importer) resolveCategory(slug string) (int64, error) {
	if id, ok := im.categoryIDs[slug]; ok {
		return id, nil
	}

	id, found, err := im.store.FindCategoryID(slug)
	if err != nil {
		return 0, err
	}
	if !found {
		im.logger.Warn("[import] Unknown category slug %q — using fallback", slug)
		id, found, err = im.store.FindCategoryID(taxonomy.FallbackSlug)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("fallback category %q missing from catalog", taxonomy.FallbackSlug)
		}
	}

	im.categoryIDs[slug] = id
	return id, nil
}
