package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"axles-ingest/config"
	"axles-ingest/models"
	"axles-ingest/taxonomy"
	"axles-ingest/utils"
)

const (
	// maxImages caps how many photos a listing keeps; the first is primary.
	maxImages = 10

	// minPlausiblePrice rejects parsing noise (icon alt-text, axle counts)
	// masquerading as a price. Below this the listing is contact-for-price.
	minPlausiblePrice = 100
)

var (
	// yearRegexp matches a model year at the start of a title.
	yearRegexp = regexp.MustCompile(`^\s*((?:19|20)\d{2})\b`)
	// priceRegexp captures the first currency-like numeric token.
	priceRegexp = regexp.MustCompile(`\$?\s*([\d,]+(?:\.\d+)?)`)
	// vinRegexp matches a 17-character VIN; I, O and Q are not valid VIN
	// characters.
	vinRegexp = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
	// locationRegexp matches a "City, ST" pattern. The city is a run of
	// capitalized words so label text before it ("Located in ...") stays out.
	locationRegexp = regexp.MustCompile(`((?:[A-Z][A-Za-z.'-]*)(?: [A-Z][A-Za-z.'-]*)*),\s*([A-Z]{2})\b`)
	// mileageRegexp captures an odometer-looking number.
	mileageRegexp = regexp.MustCompile(`([\d,]+)\s*(?:mi|miles)?`)

	// excludedImageParts filters non-photo assets out of image candidates.
	excludedImageParts = []string{"logo", "icon", "placeholder"}
)

// Normalizer converts RawListingCandidates into typed NormalizedListings.
// Every sub-extraction tolerates missing input: a field that cannot be parsed
// becomes nil or empty, never an error.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one raw candidate. The source supplies the dealer's home
// city/state as the location fallback.
func (n *Normalizer) Normalize(raw *models.RawListingCandidate, src *config.Source) *models.NormalizedListing {
	title := normalizeText(raw.Title)
	year := parseYear(title)

	l := &models.NormalizedListing{
		Title:        title,
		Year:         year,
		Make:         taxonomy.MatchMake(title),
		VIN:          parseVIN(raw.RawVIN),
		StockNumber:  normalizeText(raw.RawStock),
		Price:        parsePrice(raw.RawPrice),
		Mileage:      parseMileage(raw.RawMileage),
		Condition:    parseCondition(raw.RawCondition, year),
		CategorySlug: taxonomy.MatchCategory(title + " " + raw.TypeHint),
		Description:  normalizeText(raw.Description),
		Images:       collectImages(raw.ImageURLs, raw.SourceURL),
		SourceURL:    raw.SourceURL,
	}
	l.Model = parseModel(title, year, l.Make)

	city, state := parseLocation(raw.RawLocation)
	if city == "" {
		city, state = src.DealerCity, src.DealerState
	}
	l.City, l.State = city, state

	return l
}

// parseYear extracts a 19xx/20xx model year from the start of the title.
func parseYear(title string) *int {
	m := yearRegexp.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}

// parseModel takes the first token after the year and make prefix, e.g.
// "2021 Peterbilt 579 Sleeper" → "579". Absent a recognized make there is no
// reliable boundary, so the model stays empty.
func parseModel(title string, year *int, mk string) string {
	if mk == "" {
		return ""
	}
	rest := title
	if year != nil {
		rest = strings.TrimSpace(yearRegexp.ReplaceAllString(rest, ""))
	}
	idx := strings.Index(strings.ToLower(rest), strings.ToLower(mk))
	if idx < 0 {
		return ""
	}
	rest = strings.TrimSpace(rest[idx+len(mk):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parsePrice extracts the first currency-like token. Values below the
// plausibility floor are treated as contact-for-price, not as data.
func parsePrice(raw string) *float64 {
	m := priceRegexp.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	if v < minPlausiblePrice {
		return nil
	}
	return &v
}

// parseCondition prefers an explicit cue from the page; otherwise "used",
// unless the model year says the unit cannot have been titled yet.
func parseCondition(raw string, year *int) models.Condition {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "new"):
		return models.ConditionNew
	case strings.Contains(lower, "used"):
		return models.ConditionUsed
	}
	if year != nil && *year >= time.Now().Year() {
		return models.ConditionNew
	}
	return models.ConditionUsed
}

// parseVIN pulls a valid 17-character VIN out of the text found near the VIN
// label, uppercasing it first so lowercase page text still matches.
func parseVIN(raw string) string {
	return vinRegexp.FindString(strings.ToUpper(raw))
}

// parseLocation matches a "City, ST" pattern; empty strings when absent.
func parseLocation(raw string) (city, state string) {
	m := locationRegexp.FindStringSubmatch(raw)
	if m == nil {
		return "", ""
	}
	return normalizeText(m[1]), m[2]
}

// parseMileage extracts an odometer reading; implausible zero stays nil.
func parseMileage(raw string) *int {
	m := mileageRegexp.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// collectImages filters asset noise, resolves relative URLs against the
// detail page, de-duplicates preserving first-seen order, and caps the list.
func collectImages(candidates []string, sourceURL string) []string {
	base, _ := url.Parse(sourceURL)

	seen := make(map[string]struct{})
	images := make([]string, 0, maxImages)

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || isExcludedImage(c) {
			continue
		}

		abs := c
		if base != nil {
			if ref, err := url.Parse(c); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}

		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		images = append(images, abs)
		if len(images) == maxImages {
			break
		}
	}
	return images
}

func isExcludedImage(u string) bool {
	lower := strings.ToLower(u)
	for _, part := range excludedImageParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// normalizeText strips leading/trailing whitespace and collapses internal
// whitespace.
func normalizeText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
