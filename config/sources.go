package config

// Engine selects how a source is crawled.
type Engine string

const (
	// EngineStatic fetches server-rendered HTML with a plain HTTP client.
	EngineStatic Engine = "static"
	// EngineBrowser drives headless Chrome for JavaScript-rendered inventory.
	EngineBrowser Engine = "browser"
)

// Selectors are the CSS selectors for a static source. Card selectors apply
// to index pages, the rest to detail pages.
type Selectors struct {
	Card     string // one listing card on an index page
	CardLink string // anchor inside a card pointing at the detail page

	Title       string
	Price       string
	Location    string
	Condition   string
	TypeHint    string
	VIN         string
	Stock       string
	Mileage     string
	Description string
	Images      string // img elements; src attribute is collected
}

// Source describes one dealer inventory site: where to fetch, how to parse,
// and the dealer contact metadata used when the importer has to provision the
// dealer account.
type Source struct {
	Name     string
	Engine   Engine
	BaseURL  string
	IndexURL string // printf pattern with one %d for the page number

	DealerName    string
	DealerPhone   string
	DealerCity    string
	DealerState   string
	DealerWebsite string

	// RequireImages drops listings with zero photos for this source. Some
	// dealer sites publish text-only overflow inventory we still want.
	RequireImages bool

	DelayMs   int // politeness delay between requests; 0 = global default
	Selectors Selectors
}

// Sources is the registry of crawlable dealer sites, keyed by the name passed
// to the -source flag.
var Sources = map[string]*Source{
	"heartland": {
		Name:     "heartland",
		Engine:   EngineStatic,
		BaseURL:  "https://www.heartlandtrailersales.com",
		IndexURL: "https://www.heartlandtrailersales.com/inventory/page/%d/",

		DealerName:    "Heartland Trailer Sales",
		DealerPhone:   "(402) 555-0147",
		DealerCity:    "Grand Island",
		DealerState:   "NE",
		DealerWebsite: "https://www.heartlandtrailersales.com",

		RequireImages: true,
		DelayMs:       1500,
		Selectors: Selectors{
			Card:     "div.inventory-card",
			CardLink: "a.inventory-card-link",

			Title:       "h1.listing-title",
			Price:       "span.listing-price",
			Location:    "div.listing-location",
			Condition:   "span.listing-condition",
			TypeHint:    "nav.breadcrumbs li:nth-child(2)",
			VIN:         "li.spec-vin",
			Stock:       "li.spec-stock",
			Description: "div.listing-description",
			Images:      "div.listing-gallery img",
		},
	},

	"prairie": {
		Name:     "prairie",
		Engine:   EngineStatic,
		BaseURL:  "https://www.prairietruckequip.com",
		IndexURL: "https://www.prairietruckequip.com/used-inventory?page=%d",

		DealerName:    "Prairie Truck & Equipment",
		DealerPhone:   "(701) 555-0193",
		DealerCity:    "Fargo",
		DealerState:   "ND",
		DealerWebsite: "https://www.prairietruckequip.com",

		// Prairie lists auction overflow with no photos; keep those.
		RequireImages: false,
		DelayMs:       2000,
		Selectors: Selectors{
			Card:     "article.unit",
			CardLink: "a.unit-link",

			Title:       "div.unit-header h2",
			Price:       "div.unit-price",
			Location:    "div.unit-meta .location",
			Condition:   "div.unit-meta .condition",
			TypeHint:    "div.unit-meta .category",
			VIN:         "table.unit-specs tr.vin td",
			Stock:       "table.unit-specs tr.stock td",
			Mileage:     "table.unit-specs tr.miles td",
			Description: "div.unit-notes",
			Images:      "ul.unit-photos img",
		},
	},

	"titanfleet": {
		Name:     "titanfleet",
		Engine:   EngineBrowser,
		BaseURL:  "https://www.titanfleetsales.com",
		IndexURL: "https://www.titanfleetsales.com/trucks?page=%d",

		DealerName:    "Titan Fleet Sales",
		DealerPhone:   "(817) 555-0128",
		DealerCity:    "Fort Worth",
		DealerState:   "TX",
		DealerWebsite: "https://www.titanfleetsales.com",

		RequireImages: true,
		DelayMs:       2500,
	},
}
