package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrackerFreshState(t *testing.T) {
	tr := NewTracker(t.TempDir(), "heartland")
	if err := tr.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}

	if tr.ShouldSkip(1) {
		t.Error("fresh tracker should not skip any page")
	}
	if tr.ImportedTotal() != 0 {
		t.Errorf("fresh tracker imported total: got %d, want 0", tr.ImportedTotal())
	}
	if !tr.LastRun().IsZero() {
		t.Error("fresh tracker should have zero LastRun")
	}
}

func TestTrackerRecordAndResume(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracker(dir, "heartland")
	if err := tr.Load(); err != nil {
		t.Fatal(err)
	}
	for page, n := range map[int]int{1: 10, 2: 8, 3: 12} {
		if err := tr.RecordPageComplete(page, n); err != nil {
			t.Fatalf("RecordPageComplete(%d): %v", page, err)
		}
	}

	// A second tracker simulates the next process invocation.
	resumed := NewTracker(dir, "heartland")
	if err := resumed.Load(); err != nil {
		t.Fatal(err)
	}

	for _, page := range []int{1, 2, 3} {
		if !resumed.ShouldSkip(page) {
			t.Errorf("page %d should be skipped after resume", page)
		}
	}
	if resumed.ShouldSkip(4) {
		t.Error("page 4 was never completed, must not be skipped")
	}
	if resumed.ImportedTotal() != 30 {
		t.Errorf("imported total after resume: got %d, want 30", resumed.ImportedTotal())
	}
	if resumed.LastRun().IsZero() {
		t.Error("LastRun should survive resume")
	}
}

func TestTrackerPersistsImmediately(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracker(dir, "prairie")
	if err := tr.Load(); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordPageComplete(1, 5); err != nil {
		t.Fatal(err)
	}

	// The file must exist right after RecordPageComplete, not at shutdown.
	if _, err := os.Stat(filepath.Join(dir, "prairie.json")); err != nil {
		t.Fatalf("checkpoint file not written: %v", err)
	}
}

func TestTrackerSourcesAreIsolated(t *testing.T) {
	dir := t.TempDir()

	a := NewTracker(dir, "heartland")
	if err := a.Load(); err != nil {
		t.Fatal(err)
	}
	if err := a.RecordPageComplete(1, 3); err != nil {
		t.Fatal(err)
	}

	b := NewTracker(dir, "prairie")
	if err := b.Load(); err != nil {
		t.Fatal(err)
	}
	if b.ShouldSkip(1) {
		t.Error("checkpoints must be per-source")
	}
}

func TestTrackerLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracker(dir, "heartland")
	if err := tr.Load(); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordPageComplete(7, 1); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
