// Package taxonomy holds the fixed equipment category tree and the keyword
// tables used to map free-text listing titles onto it. The scraper variants
// each carried their own drifted copy of these tables; this is the one
// canonical version every source now shares.
package taxonomy

import (
	"sort"
	"strings"
)

// FallbackSlug is assigned when no keyword matches a listing's text.
const FallbackSlug = "specialty"

// Category is one row of the fixed taxonomy seeded into the catalog.
type Category struct {
	Slug   string
	Name   string
	Parent string // parent slug, "" for top level
}

// Categories returns the full taxonomy in seed order (parents first).
func Categories() []Category {
	return []Category{
		{Slug: "trucks", Name: "Trucks"},
		{Slug: "trailers", Name: "Trailers"},
		{Slug: "equipment", Name: "Heavy Equipment"},

		{Slug: "sleeper-trucks", Name: "Sleeper Trucks", Parent: "trucks"},
		{Slug: "day-cab-trucks", Name: "Day Cab Trucks", Parent: "trucks"},
		{Slug: "dump-trucks", Name: "Dump Trucks", Parent: "trucks"},
		{Slug: "box-trucks", Name: "Box Trucks", Parent: "trucks"},
		{Slug: "cab-chassis-trucks", Name: "Cab & Chassis Trucks", Parent: "trucks"},
		{Slug: "tow-trucks", Name: "Tow Trucks", Parent: "trucks"},

		{Slug: "dump-trailers", Name: "Dump Trailers", Parent: "trailers"},
		{Slug: "end-dump-trailers", Name: "End Dump Trailers", Parent: "trailers"},
		{Slug: "side-dump-trailers", Name: "Side Dump Trailers", Parent: "trailers"},
		{Slug: "bottom-dump-trailers", Name: "Bottom Dump Trailers", Parent: "trailers"},
		{Slug: "flatbed-trailers", Name: "Flatbed Trailers", Parent: "trailers"},
		{Slug: "drop-deck-trailers", Name: "Drop Deck Trailers", Parent: "trailers"},
		{Slug: "lowboy-trailers", Name: "Lowboy Trailers", Parent: "trailers"},
		{Slug: "dry-van-trailers", Name: "Dry Van Trailers", Parent: "trailers"},
		{Slug: "reefer-trailers", Name: "Reefer Trailers", Parent: "trailers"},
		{Slug: "hopper-grain-trailers", Name: "Hopper / Grain Trailers", Parent: "trailers"},
		{Slug: "tank-trailers", Name: "Tank Trailers", Parent: "trailers"},
		{Slug: "pneumatic-trailers", Name: "Pneumatic Trailers", Parent: "trailers"},
		{Slug: "livestock-trailers", Name: "Livestock Trailers", Parent: "trailers"},
		{Slug: "car-hauler-trailers", Name: "Car Hauler Trailers", Parent: "trailers"},
		{Slug: "gooseneck-trailers", Name: "Gooseneck Trailers", Parent: "trailers"},
		{Slug: "enclosed-trailers", Name: "Enclosed Trailers", Parent: "trailers"},
		{Slug: "utility-trailers", Name: "Utility Trailers", Parent: "trailers"},

		{Slug: "excavators", Name: "Excavators", Parent: "equipment"},
		{Slug: "skid-steers", Name: "Skid Steers", Parent: "equipment"},
		{Slug: "dozers", Name: "Dozers", Parent: "equipment"},
		{Slug: "backhoes", Name: "Backhoes", Parent: "equipment"},
		{Slug: "wheel-loaders", Name: "Wheel Loaders", Parent: "equipment"},

		{Slug: FallbackSlug, Name: "Specialty"},
	}
}

// rule maps one keyword to a category slug.
type rule struct {
	keyword string
	slug    string
}

// categoryRules is ordered longest keyword first at init. The ordering is
// load-bearing: "end dump" must win over "dump", "dump truck" over "truck".
var categoryRules = func() []rule {
	rules := []rule{
		{"end dump", "end-dump-trailers"},
		{"side dump", "side-dump-trailers"},
		{"belly dump", "bottom-dump-trailers"},
		{"bottom dump", "bottom-dump-trailers"},
		{"dump truck", "dump-trucks"},
		// Plain dump trailers ride on the bare keyword; a "dump trailer"
		// entry would out-length "end dump" and steal its titles.
		{"dump", "dump-trailers"},

		{"sleeper", "sleeper-trucks"},
		{"day cab", "day-cab-trucks"},
		{"daycab", "day-cab-trucks"},
		{"box truck", "box-trucks"},
		{"straight truck", "box-trucks"},
		{"cab chassis", "cab-chassis-trucks"},
		{"cab & chassis", "cab-chassis-trucks"},
		{"tow truck", "tow-trucks"},
		{"wrecker", "tow-trucks"},
		{"rollback", "tow-trucks"},

		{"drop deck", "drop-deck-trailers"},
		{"step deck", "drop-deck-trailers"},
		{"stepdeck", "drop-deck-trailers"},
		{"lowboy", "lowboy-trailers"},
		{"low boy", "lowboy-trailers"},
		{"flatbed", "flatbed-trailers"},
		{"flat bed", "flatbed-trailers"},
		{"dry van", "dry-van-trailers"},
		{"reefer", "reefer-trailers"},
		{"refrigerated", "reefer-trailers"},
		{"hopper", "hopper-grain-trailers"},
		{"grain trailer", "hopper-grain-trailers"},
		{"tanker", "tank-trailers"},
		{"tank trailer", "tank-trailers"},
		{"pneumatic", "pneumatic-trailers"},
		{"livestock", "livestock-trailers"},
		{"cattle trailer", "livestock-trailers"},
		{"car hauler", "car-hauler-trailers"},
		{"car carrier", "car-hauler-trailers"},
		{"gooseneck", "gooseneck-trailers"},
		{"enclosed", "enclosed-trailers"},
		{"cargo trailer", "enclosed-trailers"},
		{"utility trailer", "utility-trailers"},

		{"excavator", "excavators"},
		{"mini ex", "excavators"},
		{"skid steer", "skid-steers"},
		{"skidsteer", "skid-steers"},
		{"dozer", "dozers"},
		{"bulldozer", "dozers"},
		{"backhoe", "backhoes"},
		{"wheel loader", "wheel-loaders"},

		// Generic terms come last by length anyway, kept here for clarity.
		{"trailer", "trailers"},
		{"truck", "trucks"},
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].keyword) > len(rules[j].keyword)
	})
	return rules
}()

// MatchCategory returns the slug for the first (longest) keyword found as a
// case-insensitive substring of text, or FallbackSlug when nothing matches.
func MatchCategory(text string) string {
	lower := strings.ToLower(text)
	for _, r := range categoryRules {
		if strings.Contains(lower, r.keyword) {
			return r.slug
		}
	}
	return FallbackSlug
}

// knownMakes is ordered longest first so multi-word manufacturer names are
// tried before names they contain (e.g. "Western Star" before any "Star").
var knownMakes = func() []string {
	makes := []string{
		"Peterbilt", "Kenworth", "Freightliner", "International", "Mack",
		"Volvo", "Western Star", "Ford", "Chevrolet", "GMC", "Ram",
		"Isuzu", "Hino", "Sterling",
		"Great Dane", "Utility", "Wabash", "Fontaine", "Transcraft",
		"MAC Trailer", "East", "Travis", "Wilson", "Timpte", "Dorsey",
		"Vanguard", "Stoughton", "Hyundai Translead",
		"Big Tex", "PJ Trailers", "Load Trail", "Sure-Trac", "Felling",
		"Caterpillar", "John Deere", "Komatsu", "Bobcat", "Case",
		"Kubota", "New Holland", "Takeuchi",
	}
	sort.SliceStable(makes, func(i, j int) bool {
		return len(makes[i]) > len(makes[j])
	})
	return makes
}()

// MatchMake returns the canonical manufacturer name found in the title, or ""
// when none of the known makes appears. Longest names are tried first.
func MatchMake(title string) string {
	lower := strings.ToLower(title)
	for _, m := range knownMakes {
		if strings.Contains(lower, strings.ToLower(m)) {
			return m
		}
	}
	return ""
}
