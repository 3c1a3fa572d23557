// Package checkpoint persists crawl progress so a multi-hour crawl can be
// split across many process invocations. The recovery contract is
// rerun-plus-skip: the operator reruns the command and completed pages are
// never fetched again.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// state is the on-disk record, one file per source.
type state struct {
	CompletedPages []int     `json:"completed_pages"`
	ImportedTotal  int       `json:"imported_total"`
	LastRun        time.Time `json:"last_run"`
}

// Tracker owns the checkpoint file for one crawl source.
type Tracker struct {
	path  string
	pages map[int]struct{}
	st    state
}

// NewTracker creates a Tracker storing its checkpoint under dir, named after
// the source.
func NewTracker(dir, source string) *Tracker {
	return &Tracker{
		path:  filepath.Join(dir, source+".json"),
		pages: make(map[int]struct{}),
	}
}

// Load reads the persisted checkpoint. A missing file yields a fresh
// zero-state, not an error.
func (t *Tracker) Load() error {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checkpoint: read %q: %w", t.path, err)
	}

	if err := json.Unmarshal(data, &t.st); err != nil {
		return fmt.Errorf("checkpoint: parse %q: %w", t.path, err)
	}
	for _, p := range t.st.CompletedPages {
		t.pages[p] = struct{}{}
	}
	return nil
}

// ShouldSkip reports whether a page has already been completed by a previous
// run. The crawler must consult this before fetching.
func (t *Tracker) ShouldSkip(page int) bool {
	_, done := t.pages[page]
	return done
}

// RecordPageComplete marks a page done, adds its imported count to the running
// total, and persists immediately so a crash loses at most the in-flight page.
func (t *Tracker) RecordPageComplete(page, imported int) error {
	t.pages[page] = struct{}{}
	t.st.ImportedTotal += imported
	t.st.LastRun = time.Now()
	return t.save()
}

// ImportedTotal returns the cumulative imported count across all runs.
func (t *Tracker) ImportedTotal() int {
	return t.st.ImportedTotal
}

// CompletedPages returns how many pages have been completed across all runs.
func (t *Tracker) CompletedPages() int {
	return len(t.pages)
}

// LastRun returns the timestamp of the most recent persisted progress, zero
// if the source has never been crawled.
func (t *Tracker) LastRun() time.Time {
	return t.st.LastRun
}

// save writes the checkpoint atomically: a crash mid-write must not corrupt
// previously saved progress, so the new state goes to a temp file which then
// replaces the old one.
func (t *Tracker) save() error {
	pages := make([]int, 0, len(t.pages))
	for p := range t.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	t.st.CompletedPages = pages

	data, err := json.MarshalIndent(&t.st, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("checkpoint: create dir: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("checkpoint: replace %q: %w", t.path, err)
	}
	return nil
}
