package models

import "time"

// Condition is the sale condition of a unit.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// RawListingCandidate holds the unprocessed field candidates extracted from a
// single detail page. It lives only for one crawl iteration: the normalizer
// consumes it and the typed NormalizedListing is what moves on.
type RawListingCandidate struct {
	Title        string
	RawPrice     string
	RawLocation  string
	RawCondition string
	TypeHint     string // free-text category hint (breadcrumb, badge, section header)
	RawVIN       string
	RawStock     string
	RawMileage   string
	Description  string
	ImageURLs    []string
	SourceURL    string
	PageNumber   int
	ScrapedAt    time.Time
}

// NormalizedListing is the typed, validated record handed to the importer.
// Optional numeric fields are nil when the page gave nothing usable.
type NormalizedListing struct {
	Title        string
	Year         *int
	Make         string
	Model        string
	VIN          string
	StockNumber  string
	Price        *float64
	Mileage      *int
	Condition    Condition
	City         string
	State        string // 2-letter
	CategorySlug string
	Description  string
	Images       []string // absolute URLs, first is primary, max 10
	SourceURL    string
}

// DealerProfile is the seller identity that owns listings in the catalog.
// CompanyName is the natural dedup key: the importer looks it up before it
// ever creates one.
type DealerProfile struct {
	ID          int64
	CompanyName string
	Email       string
	Phone       string
	City        string
	State       string
	Website     string
}

// CatalogListing is the durable catalog row written on a successful import.
type CatalogListing struct {
	ID          int64
	DealerID    int64
	CategoryID  int64
	Title       string
	Year        *int
	Make        string
	Model       string
	VIN         string
	StockNumber string
	Price       *float64
	Mileage     *int
	Condition   Condition
	City        string
	State       string
	Description string
	Status      string
	SourceURL   string
	CreatedAt   time.Time
}

// ListingImage is one attached photo. SortIndex preserves extraction order;
// the first image of a listing carries IsPrimary.
type ListingImage struct {
	ID        int64
	ListingID int64
	URL       string
	SortIndex int
	IsPrimary bool
}

// ImportOutcome classifies what the importer did with one normalized listing.
type ImportOutcome string

const (
	Imported         ImportOutcome = "imported"
	SkippedDuplicate ImportOutcome = "skipped_duplicate"
	SkippedNoImages  ImportOutcome = "skipped_no_images"
	ImportFailed     ImportOutcome = "error"
)

// RunSummary is the final tally printed after every run, successful or not.
type RunSummary struct {
	Source           string
	PagesVisited     int
	PagesSkipped     int // already checkpointed from a previous run
	ListingsFound    int
	Imported         int
	SkippedDuplicate int
	SkippedNoImages  int
	Errors           int

	// FirstPageEmpty distinguishes "the very first fetched page had zero
	// listings" (possible rate limiting) from a normally drained source.
	FirstPageEmpty bool
}
