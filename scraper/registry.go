package scraper

import (
	"fmt"
	"sort"

	"axles-ingest/config"
	"axles-ingest/scraper/browser"
	"axles-ingest/scraper/static"
	"axles-ingest/utils"
)

// New builds the crawler for a registered source. delayOverrideMs > 0 wins
// over both the per-source delay and the global default.
func New(name string, cfg *config.Config, logger *utils.Logger, delayOverrideMs int) (Crawler, error) {
	src, ok := config.Sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q — use -list to see registered sources", name)
	}

	delay := src.DelayMs
	if delay == 0 {
		delay = cfg.CrawlDelayMs
	}
	if delayOverrideMs > 0 {
		delay = delayOverrideMs
	}

	switch src.Engine {
	case config.EngineStatic:
		return static.New(src, delay, logger), nil
	case config.EngineBrowser:
		return browser.New(src, delay, cfg.ChromeBin, logger), nil
	default:
		return nil, fmt.Errorf("source %q has unknown engine %q", name, src.Engine)
	}
}

// Names returns the registered source names, sorted.
func Names() []string {
	names := make([]string, 0, len(config.Sources))
	for name := range config.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
