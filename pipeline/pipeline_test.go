package pipeline

import (
	"context"
	"errors"
	"testing"

	"axles-ingest/checkpoint"
	"axles-ingest/config"
	"axles-ingest/models"
	"axles-ingest/services"
	"axles-ingest/utils"
)

// fakeCrawler serves canned pages and records which page numbers were fetched.
type fakeCrawler struct {
	src     *config.Source
	pages   map[int][]*models.RawListingCandidate
	failOn  map[int]bool
	fetched []int
}

func (f *fakeCrawler) Name() string           { return f.src.Name }
func (f *fakeCrawler) Source() *config.Source { return f.src }
func (f *fakeCrawler) Close() error           { return nil }

func (f *fakeCrawler) FetchPage(_ context.Context, page int) ([]*models.RawListingCandidate, error) {
	f.fetched = append(f.fetched, page)
	if f.failOn[page] {
		return nil, errors.New("connection reset")
	}
	return f.pages[page], nil
}

// memStore is a minimal in-memory CatalogStore.
type memStore struct {
	nextID   int64
	dealers  map[string]int64
	listings []*models.CatalogListing
	images   []*models.ListingImage
}

func newMemStore() *memStore {
	return &memStore{dealers: map[string]int64{}}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) FindDealerByCompany(company string) (int64, bool, error) {
	id, ok := m.dealers[company]
	return id, ok, nil
}

func (m *memStore) CreateDealer(p *models.DealerProfile) (int64, error) {
	id := m.id()
	m.dealers[p.CompanyName] = id
	return id, nil
}

func (m *memStore) FindCategoryID(slug string) (int64, bool, error) {
	// Every slug resolves; the id encodes nothing these tests care about.
	return 1, true, nil
}

func (m *memStore) ListingExistsByTitle(dealerID int64, title string) (bool, error) {
	for _, l := range m.listings {
		if l.DealerID == dealerID && l.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListingExistsByVIN(vin string) (bool, error) {
	for _, l := range m.listings {
		if l.VIN == vin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListingExistsByStock(dealerID int64, stock string) (bool, error) {
	return false, nil
}

func (m *memStore) InsertListing(l *models.CatalogListing) (int64, error) {
	l.ID = m.id()
	m.listings = append(m.listings, l)
	return l.ID, nil
}

func (m *memStore) InsertImage(img *models.ListingImage) error {
	m.images = append(m.images, img)
	return nil
}

func (m *memStore) Close() error { return nil }

func testSource() *config.Source {
	return &config.Source{
		Name:          "heartland",
		DealerName:    "Heartland Trailer Sales",
		DealerCity:    "Grand Island",
		DealerState:   "NE",
		RequireImages: true,
	}
}

func candidate(title string, images ...string) *models.RawListingCandidate {
	return &models.RawListingCandidate{
		Title:     title,
		RawPrice:  "$25,000",
		ImageURLs: images,
		SourceURL: "https://dealer.example.com/listing/" + title,
	}
}

func newRunner(t *testing.T, crawler *fakeCrawler, store *memStore) (*Runner, *checkpoint.Tracker) {
	t.Helper()
	logger := utils.NewLogger(false)

	tracker := checkpoint.NewTracker(t.TempDir(), crawler.src.Name)
	if err := tracker.Load(); err != nil {
		t.Fatal(err)
	}

	return &Runner{
		Crawler:             crawler,
		Normalizer:          services.NewNormalizer(logger),
		Importer:            services.NewImporter(store, logger, crawler.src),
		Tracker:             tracker,
		Logger:              logger,
		MaxConsecutiveFails: 3,
	}, tracker
}

func TestRunEndToEnd(t *testing.T) {
	crawler := &fakeCrawler{
		src: testSource(),
		pages: map[int][]*models.RawListingCandidate{
			1: {candidate("2021 Peterbilt 579 Sleeper",
				"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg")},
		},
	}
	store := newMemStore()
	runner, tracker := newRunner(t, crawler, store)

	sum := runner.Run(context.Background())

	if sum.Imported != 1 || sum.Errors != 0 {
		t.Fatalf("summary: %+v", sum)
	}
	if len(store.listings) != 1 {
		t.Fatalf("catalog gained %d listings, want 1", len(store.listings))
	}
	l := store.listings[0]
	if l.Year == nil || *l.Year != 2021 || l.Make != "Peterbilt" {
		t.Errorf("normalized fields lost in transit: %+v", l)
	}
	if len(store.images) != 2 || !store.images[0].IsPrimary {
		t.Errorf("images: got %d, first primary=%v", len(store.images), store.images[0].IsPrimary)
	}
	if tracker.ImportedTotal() != 1 {
		t.Errorf("tracker cumulative: got %d, want 1", tracker.ImportedTotal())
	}
	if sum.FirstPageEmpty {
		t.Error("a drained source with results is not a first-page-empty run")
	}
}

func TestRunResumesWithoutRefetching(t *testing.T) {
	crawler := &fakeCrawler{
		src: testSource(),
		pages: map[int][]*models.RawListingCandidate{
			1: {candidate("A", "https://cdn.example.com/a.jpg")},
			2: {candidate("B", "https://cdn.example.com/b.jpg")},
			3: {candidate("C", "https://cdn.example.com/c.jpg")},
			4: {candidate("D", "https://cdn.example.com/d.jpg")},
		},
	}
	store := newMemStore()
	runner, tracker := newRunner(t, crawler, store)

	for _, page := range []int{1, 2, 3} {
		if err := tracker.RecordPageComplete(page, 1); err != nil {
			t.Fatal(err)
		}
	}

	sum := runner.Run(context.Background())

	// Pages 1-3 are checkpointed: zero fetch calls for them.
	for _, page := range crawler.fetched {
		if page <= 3 {
			t.Errorf("page %d was re-fetched despite checkpoint", page)
		}
	}
	if sum.PagesSkipped != 3 {
		t.Errorf("pages skipped: got %d, want 3", sum.PagesSkipped)
	}
	if sum.Imported != 1 {
		t.Errorf("imported: got %d, want 1 (page 4 only)", sum.Imported)
	}
}

func TestRunStopsAfterConsecutiveFailures(t *testing.T) {
	crawler := &fakeCrawler{
		src:    testSource(),
		failOn: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	store := newMemStore()
	runner, _ := newRunner(t, crawler, store)

	sum := runner.Run(context.Background())

	if len(crawler.fetched) != 3 {
		t.Errorf("fetch attempts: got %d, want 3 (threshold)", len(crawler.fetched))
	}
	if sum.Imported != 0 {
		t.Errorf("imported: got %d, want 0", sum.Imported)
	}
}

func TestRunSkipsFailedPageAndContinues(t *testing.T) {
	crawler := &fakeCrawler{
		src:    testSource(),
		failOn: map[int]bool{1: true},
		pages: map[int][]*models.RawListingCandidate{
			2: {candidate("B", "https://cdn.example.com/b.jpg")},
		},
	}
	store := newMemStore()
	runner, _ := newRunner(t, crawler, store)

	sum := runner.Run(context.Background())

	if sum.Imported != 1 {
		t.Errorf("a single page failure must not end the run; imported %d", sum.Imported)
	}
}

func TestRunFirstPageEmptyIsFlagged(t *testing.T) {
	crawler := &fakeCrawler{src: testSource()}
	store := newMemStore()
	runner, _ := newRunner(t, crawler, store)

	sum := runner.Run(context.Background())

	if !sum.FirstPageEmpty {
		t.Error("zero listings on the very first page must be flagged")
	}
}

func TestRunHonorsListingCap(t *testing.T) {
	crawler := &fakeCrawler{
		src: testSource(),
		pages: map[int][]*models.RawListingCandidate{
			1: {
				candidate("A", "https://cdn.example.com/a.jpg"),
				candidate("B", "https://cdn.example.com/b.jpg"),
			},
			2: {candidate("C", "https://cdn.example.com/c.jpg")},
		},
	}
	store := newMemStore()
	runner, _ := newRunner(t, crawler, store)
	runner.MaxListings = 2

	sum := runner.Run(context.Background())

	// The cap is checked at page boundaries: page 1 fills it, page 2 is
	// never fetched.
	if sum.Imported != 2 {
		t.Errorf("imported: got %d, want 2", sum.Imported)
	}
	for _, page := range crawler.fetched {
		if page == 2 {
			t.Error("page 2 fetched after the cap was reached")
		}
	}
}

func TestRunStopsOnCancellationBetweenPages(t *testing.T) {
	crawler := &fakeCrawler{
		src: testSource(),
		pages: map[int][]*models.RawListingCandidate{
			1: {candidate("A", "https://cdn.example.com/a.jpg")},
		},
	}
	store := newMemStore()
	runner, _ := newRunner(t, crawler, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := runner.Run(ctx)

	if len(crawler.fetched) != 0 {
		t.Errorf("no pages may be fetched after cancellation, got %v", crawler.fetched)
	}
	if sum.Imported != 0 {
		t.Errorf("imported: got %d, want 0", sum.Imported)
	}
}
