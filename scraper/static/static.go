// Package static crawls server-rendered dealer inventory sites with a plain
// HTTP client and an HTML parser. One implementation serves every static
// source; the per-site differences live entirely in the selector config.
package static

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/jaytaylor/html2text"

	"axles-ingest/config"
	"axles-ingest/models"
	"axles-ingest/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const requestTimeout = 30 * time.Second

// Crawler fetches index and detail pages for one static source.
type Crawler struct {
	src     *config.Source
	logger  *utils.Logger
	delay   time.Duration
	visited *utils.URLSet
	base    *colly.Collector
}

// New creates a Crawler for the given source with the given politeness delay.
func New(src *config.Source, delayMs int, logger *utils.Logger) *Crawler {
	base := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	base.SetRequestTimeout(requestTimeout)

	return &Crawler{
		src:     src,
		logger:  logger,
		delay:   time.Duration(delayMs) * time.Millisecond,
		visited: utils.NewURLSet(),
		base:    base,
	}
}

func (c *Crawler) Name() string           { return c.src.Name }
func (c *Crawler) Source() *config.Source { return c.src }
func (c *Crawler) Close() error           { return nil }

// FetchPage fetches one index page, then each not-yet-visited detail page it
// links to. A detail page that fails to fetch or parse is skipped; only an
// index fetch failure is reported to the caller.
func (c *Crawler) FetchPage(ctx context.Context, page int) ([]*models.RawListingCandidate, error) {
	pageURL := fmt.Sprintf(c.src.IndexURL, page)

	links, err := c.collectCardLinks(pageURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] index page %d: %w", c.src.Name, page, err)
	}

	c.logger.Debug("[%s] Page %d — %d cards", c.src.Name, page, len(links))

	candidates := make([]*models.RawListingCandidate, 0, len(links))
	for _, link := range links {
		if !c.visited.Add(link) {
			c.logger.Debug("[%s] Skipping already-visited %s", c.src.Name, link)
			continue
		}

		cand, err := c.fetchDetail(link, page)
		if err != nil {
			c.logger.Warn("[%s] Detail page skipped: %v", c.src.Name, err)
			continue
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// collectCardLinks reads one index page and returns the absolute detail-page
// URLs of every listing card on it.
func (c *Crawler) collectCardLinks(pageURL string) ([]string, error) {
	var links []string

	index := c.newCollector()
	index.OnHTML(c.src.Selectors.Card, func(e *colly.HTMLElement) {
		href := e.ChildAttr(c.src.Selectors.CardLink, "href")
		if href == "" && e.Name == "a" {
			href = e.Attr("href")
		}
		if href == "" {
			return
		}
		links = append(links, e.Request.AbsoluteURL(href))
	})

	if err := index.Visit(pageURL); err != nil {
		return nil, err
	}
	return links, nil
}

// fetchDetail reads one detail page into a raw candidate. The title selector
// is required; every other field defaults to empty when its selector misses.
func (c *Crawler) fetchDetail(link string, page int) (*models.RawListingCandidate, error) {
	cand := &models.RawListingCandidate{
		SourceURL:  link,
		PageNumber: page,
		ScrapedAt:  time.Now(),
	}

	detail := c.newCollector()
	detail.OnHTML("html", func(e *colly.HTMLElement) {
		sel := c.src.Selectors

		cand.Title = e.ChildText(sel.Title)
		cand.RawPrice = e.ChildText(sel.Price)
		cand.RawLocation = e.ChildText(sel.Location)
		cand.RawCondition = e.ChildText(sel.Condition)
		cand.TypeHint = e.ChildText(sel.TypeHint)
		cand.RawVIN = e.ChildText(sel.VIN)
		cand.RawStock = e.ChildText(sel.Stock)
		if sel.Mileage != "" {
			cand.RawMileage = e.ChildText(sel.Mileage)
		}
		for _, src := range e.ChildAttrs(sel.Images, "src") {
			cand.ImageURLs = append(cand.ImageURLs, e.Request.AbsoluteURL(src))
		}

		if sel.Description != "" {
			if frag, err := e.DOM.Find(sel.Description).Html(); err == nil && frag != "" {
				if text, err := html2text.FromString(frag, html2text.Options{TextOnly: true}); err == nil {
					cand.Description = text
				}
			}
		}
	})

	if err := detail.Visit(link); err != nil {
		return nil, fmt.Errorf("%s: %w", link, err)
	}
	if cand.Title == "" {
		return nil, fmt.Errorf("%s: title selector matched nothing", link)
	}
	return cand, nil
}

// newCollector clones the base collector and applies the politeness delay.
// Clones are per-request so a page fetch never sees callbacks registered by
// an earlier one.
func (c *Crawler) newCollector() *colly.Collector {
	col := c.base.Clone()
	_ = col.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       c.delay,
		RandomDelay: c.delay / 2,
	})
	return col
}
