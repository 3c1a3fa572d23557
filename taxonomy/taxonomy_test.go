package taxonomy

import "testing"

func TestMatchCategoryLongestKeywordWins(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		// "end dump" must beat the shorter "dump" even though both match.
		{"36ft Dump Trailer End Dump", "end-dump-trailers"},
		{"2019 Mack Granite Dump Truck", "dump-trucks"},
		{"14ft Dump Trailer", "dump-trailers"},
		{"Side Dump Trailer 40ft", "side-dump-trailers"},
		{"Belly Dump", "bottom-dump-trailers"},
		{"2021 Peterbilt 579 Sleeper", "sleeper-trucks"},
		{"2020 Freightliner Cascadia Day Cab", "day-cab-trucks"},
		{"53ft Dry Van", "dry-van-trailers"},
		{"48ft Step Deck Trailer", "drop-deck-trailers"},
		{"2018 Great Dane Reefer", "reefer-trailers"},
		{"Cat 320 Excavator", "excavators"},
		// Generic terms only when nothing more specific matches.
		{"Misc Truck", "trucks"},
		{"Custom Built Welding Rig", FallbackSlug},
		{"", FallbackSlug},
	}

	for _, tt := range tests {
		if got := MatchCategory(tt.title); got != tt.want {
			t.Errorf("MatchCategory(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}

func TestMatchCategoryCaseInsensitive(t *testing.T) {
	if got := MatchCategory("END DUMP TRAILER"); got != "end-dump-trailers" {
		t.Errorf("uppercase title: got %q, want end-dump-trailers", got)
	}
}

func TestMatchCategoryKeywordOrdering(t *testing.T) {
	// Property: every keyword pair where one is a substring of the other must
	// resolve to the longer keyword's category when both appear.
	for i, a := range categoryRules {
		for j := i + 1; j < len(categoryRules); j++ {
			b := categoryRules[j]
			if len(a.keyword) < len(b.keyword) {
				t.Fatalf("rules out of order: %q (len %d) before %q (len %d)",
					a.keyword, len(a.keyword), b.keyword, len(b.keyword))
			}
		}
	}
}

func TestMatchCategoryFallbackSeeded(t *testing.T) {
	found := false
	for _, c := range Categories() {
		if c.Slug == FallbackSlug {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback slug %q missing from seed taxonomy", FallbackSlug)
	}
}

func TestCategoriesParentsPrecedeChildren(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Categories() {
		if c.Parent != "" && !seen[c.Parent] {
			t.Errorf("category %q references parent %q before it is seeded", c.Slug, c.Parent)
		}
		seen[c.Slug] = true
	}
}

func TestMatchMake(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"2021 Peterbilt 579 Sleeper", "Peterbilt"},
		{"2019 WESTERN STAR 4900", "Western Star"},
		{"2022 Great Dane Everest Reefer", "Great Dane"},
		{"1998 Homemade Flatbed", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MatchMake(tt.title); got != tt.want {
			t.Errorf("MatchMake(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}
