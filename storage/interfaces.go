package storage

import "axles-ingest/models"

// CatalogStore is the thin data-access surface the importer needs from the
// marketplace catalog. Everything else the catalog does (auth flows, leads,
// messaging) is out of scope here.
type CatalogStore interface {
	// FindDealerByCompany looks a dealer profile up by its company name, the
	// natural dedup key for synthetic accounts.
	FindDealerByCompany(company string) (int64, bool, error)

	// CreateDealer provisions an authentication identity plus profile row and
	// returns the new profile id.
	CreateDealer(p *models.DealerProfile) (int64, error)

	// FindCategoryID resolves a category slug to its id.
	FindCategoryID(slug string) (int64, bool, error)

	// ListingExistsByTitle reports whether the dealer already has a listing
	// with this exact title.
	ListingExistsByTitle(dealerID int64, title string) (bool, error)

	// ListingExistsByVIN reports whether any listing carries this VIN.
	ListingExistsByVIN(vin string) (bool, error)

	// ListingExistsByStock reports whether the dealer already has a listing
	// with this stock number.
	ListingExistsByStock(dealerID int64, stock string) (bool, error)

	// InsertListing writes one catalog row and returns its id.
	InsertListing(l *models.CatalogListing) (int64, error)

	// InsertImage attaches one image row to a listing.
	InsertImage(img *models.ListingImage) error

	Close() error
}
