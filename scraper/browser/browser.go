// Package browser crawls JavaScript-rendered dealer inventory sites by
// driving headless Chrome: navigate, let the page settle, then read the
// rendered DOM. The contract is identical to the static crawler; only the
// fetch mechanism differs.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"axles-ingest/config"
	"axles-ingest/models"
	"axles-ingest/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	pageTimeout   = 30 * time.Second
	settleDelay   = 3 * time.Second
	retryAttempts = 2
)

// cardData mirrors the object shape built by the index-page extraction JS.
type cardData struct {
	Title    string   `json:"title"`
	Price    string   `json:"price"`
	URL      string   `json:"url"`
	TypeHint string   `json:"typeHint"`
	Images   []string `json:"images"`
}

// detailData mirrors the object shape built by the detail-page extraction JS.
type detailData struct {
	Price       string   `json:"price"`
	Location    string   `json:"location"`
	Condition   string   `json:"condition"`
	VIN         string   `json:"vin"`
	Stock       string   `json:"stock"`
	Mileage     string   `json:"mileage"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// Crawler drives headless Chrome against one JavaScript-rendered source.
type Crawler struct {
	src     *config.Source
	logger  *utils.Logger
	limiter *utils.RateLimiter
	retry   *utils.RetryConfig
	visited *utils.URLSet

	chromeBin   string
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// New creates a Crawler; the browser process starts lazily on first fetch.
func New(src *config.Source, delayMs int, chromeBin string, logger *utils.Logger) *Crawler {
	return &Crawler{
		src:     src,
		logger:  logger,
		limiter: utils.NewRateLimiter(delayMs),
		retry: &utils.RetryConfig{
			MaxAttempts: retryAttempts,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
			Logger:      logger,
		},
		visited:   utils.NewURLSet(),
		chromeBin: chromeBin,
	}
}

func (c *Crawler) Name() string           { return c.src.Name }
func (c *Crawler) Source() *config.Source { return c.src }

// Close tears down the browser process if one was started.
func (c *Crawler) Close() error {
	if c.cancelAlloc != nil {
		c.cancelAlloc()
		c.cancelAlloc = nil
	}
	return nil
}

// FetchPage renders one index page, then each not-yet-visited detail page.
// Detail failures skip that listing only.
func (c *Crawler) FetchPage(ctx context.Context, page int) ([]*models.RawListingCandidate, error) {
	c.ensureBrowser(ctx)

	pageURL := fmt.Sprintf(c.src.IndexURL, page)

	c.limiter.Wait()
	cards, err := c.scrapeIndex(pageURL, page)
	if err != nil {
		return nil, fmt.Errorf("[%s] index page %d: %w", c.src.Name, page, err)
	}

	c.logger.Debug("[%s] Page %d — %d cards", c.src.Name, page, len(cards))

	candidates := make([]*models.RawListingCandidate, 0, len(cards))
	for _, card := range cards {
		if card.URL == "" {
			continue
		}
		if !c.visited.Add(card.URL) {
			c.logger.Debug("[%s] Skipping already-visited %s", c.src.Name, card.URL)
			continue
		}

		cand := &models.RawListingCandidate{
			Title:      card.Title,
			RawPrice:   card.Price,
			TypeHint:   card.TypeHint,
			ImageURLs:  card.Images,
			SourceURL:  card.URL,
			PageNumber: page,
			ScrapedAt:  time.Now(),
		}

		c.limiter.Wait()
		if err := c.scrapeDetail(card.URL, cand); err != nil {
			// Card data alone is enough to normalize; detail fields stay empty.
			c.logger.Warn("[%s] Detail page failed, keeping card data: %v", c.src.Name, err)
		}
		if cand.Title == "" {
			c.logger.Warn("[%s] Skipping card with no title at %s", c.src.Name, card.URL)
			continue
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// ensureBrowser starts the exec allocator once per crawler lifetime.
func (c *Crawler) ensureBrowser(ctx context.Context) {
	if c.allocCtx != nil {
		return
	}

	bin := findChromeBinary(c.chromeBin)
	c.logger.Debug("[%s] Using browser binary: %s", c.src.Name, bin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise.
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	c.allocCtx = silentCtx
	c.cancelAlloc = func() {
		cancelSilent()
		cancel()
	}
}

// scrapeIndex renders one index page and extracts the listing cards.
func (c *Crawler) scrapeIndex(pageURL string, page int) ([]cardData, error) {
	var cards []cardData

	err := c.retry.Do(fmt.Sprintf("%s-page-%d", c.src.Name, page), func() error {
		ctx, cancel := chromedp.NewContext(c.allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, pageTimeout)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(settleDelay),
			chromedp.Evaluate(`
				(function() {
					var out = [];
					var cards = document.querySelectorAll('div.unit-card, article.inventory-item');
					for (var i = 0; i < cards.length; i++) {
						var card = cards[i];
						var link = card.querySelector('a[href*="/trucks/"], a.unit-link');
						if (!link || !link.href) continue;

						var titleEl = card.querySelector('h3, .unit-title');
						var priceEl = card.querySelector('.unit-price, .price');
						var typeEl  = card.querySelector('.unit-type, .category-badge');

						var images = [];
						var imgs = card.querySelectorAll('img');
						for (var j = 0; j < imgs.length; j++) {
							if (imgs[j].src) images.push(imgs[j].src);
						}

						out.push({
							title:    titleEl ? titleEl.innerText.trim() : '',
							price:    priceEl ? priceEl.innerText.trim() : '',
							url:      link.href,
							typeHint: typeEl ? typeEl.innerText.trim() : '',
							images:   images
						});
					}
					return out;
				})()
			`, &cards),
		)
	})

	return cards, err
}

// scrapeDetail renders a detail page and fills the candidate's detail fields.
func (c *Crawler) scrapeDetail(pageURL string, cand *models.RawListingCandidate) error {
	var details detailData

	err := c.retry.Do(c.src.Name+"-detail", func() error {
		ctx, cancel := chromedp.NewContext(c.allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, pageTimeout)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(settleDelay),
			chromedp.Evaluate(`
				(function() {
					function text(sel) {
						var el = document.querySelector(sel);
						return el ? el.innerText.trim() : '';
					}

					var images = [];
					var imgs = document.querySelectorAll('.unit-gallery img, .photo-carousel img');
					for (var i = 0; i < imgs.length; i++) {
						if (imgs[i].src) images.push(imgs[i].src);
					}

					return {
						price:       text('.unit-price, .asking-price'),
						location:    text('.unit-location, .dealer-location'),
						condition:   text('.unit-condition'),
						vin:         text('.spec-vin, [data-spec="vin"]'),
						stock:       text('.spec-stock, [data-spec="stock"]'),
						mileage:     text('.spec-mileage, [data-spec="mileage"]'),
						description: text('.unit-description'),
						images:      images
					};
				})()
			`, &details),
		)
	})
	if err != nil {
		return err
	}

	if details.Price != "" {
		cand.RawPrice = details.Price
	}
	cand.RawLocation = details.Location
	cand.RawCondition = details.Condition
	cand.RawVIN = details.VIN
	cand.RawStock = details.Stock
	cand.RawMileage = details.Mileage
	cand.Description = details.Description
	if len(details.Images) > 0 {
		cand.ImageURLs = details.Images
	}

	return nil
}

// findChromeBinary locates the Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
