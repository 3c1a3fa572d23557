package storage

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"axles-ingest/models"
	"axles-ingest/taxonomy"
)

// PostgresStore implements CatalogStore against the marketplace database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migrations, seeds the
// category taxonomy, and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	if err := ps.seedCategories(); err != nil {
		return nil, fmt.Errorf("postgres: seed categories: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS dealer_identities (
			id            SERIAL PRIMARY KEY,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS dealer_profiles (
			id           SERIAL PRIMARY KEY,
			identity_id  INT NOT NULL REFERENCES dealer_identities(id),
			company_name TEXT UNIQUE NOT NULL,
			phone        TEXT NOT NULL DEFAULT '',
			city         TEXT NOT NULL DEFAULT '',
			state        VARCHAR(2) NOT NULL DEFAULT '',
			website      TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS categories (
			id        SERIAL PRIMARY KEY,
			slug      TEXT UNIQUE NOT NULL,
			name      TEXT NOT NULL,
			parent_id INT REFERENCES categories(id)
		);

		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			dealer_id    INT NOT NULL REFERENCES dealer_profiles(id),
			category_id  INT NOT NULL REFERENCES categories(id),
			title        TEXT NOT NULL,
			year         INT,
			make         TEXT NOT NULL DEFAULT '',
			model        TEXT NOT NULL DEFAULT '',
			vin          TEXT NOT NULL DEFAULT '',
			stock_number TEXT NOT NULL DEFAULT '',
			price        NUMERIC(12,2),
			mileage      INT,
			condition    VARCHAR(10) NOT NULL DEFAULT 'used',
			city         TEXT NOT NULL DEFAULT '',
			state        VARCHAR(2) NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'active',
			source_url   TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS listing_images (
			id         SERIAL PRIMARY KEY,
			listing_id INT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			url        TEXT NOT NULL,
			sort_index INT NOT NULL DEFAULT 0,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_listings_dealer_title ON listings(dealer_id, title);
		CREATE INDEX IF NOT EXISTS idx_listings_vin          ON listings(vin) WHERE vin <> '';
		CREATE INDEX IF NOT EXISTS idx_listings_stock        ON listings(dealer_id, stock_number) WHERE stock_number <> '';
		CREATE INDEX IF NOT EXISTS idx_listings_category     ON listings(category_id);
		CREATE INDEX IF NOT EXISTS idx_images_listing        ON listing_images(listing_id);
	`)
	return err
}

// seedCategories inserts the fixed taxonomy, parents first so children can
// reference them. Reruns are no-ops thanks to the slug conflict clause.
func (ps *PostgresStore) seedCategories() error {
	for _, c := range taxonomy.Categories() {
		var parent interface{}
		if c.Parent != "" {
			var pid int64
			err := ps.db.QueryRow(`SELECT id FROM categories WHERE slug = $1`, c.Parent).Scan(&pid)
			if err != nil {
				return fmt.Errorf("parent %q for %q: %w", c.Parent, c.Slug, err)
			}
			parent = pid
		}

		_, err := ps.db.Exec(`
			INSERT INTO categories (slug, name, parent_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO NOTHING
		`, c.Slug, c.Name, parent)
		if err != nil {
			return fmt.Errorf("seed %q: %w", c.Slug, err)
		}
	}
	return nil
}

// FindDealerByCompany looks up a dealer profile by company name.
func (ps *PostgresStore) FindDealerByCompany(company string) (int64, bool, error) {
	var id int64
	err := ps.db.QueryRow(
		`SELECT id FROM dealer_profiles WHERE company_name = $1`, company,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find dealer %q: %w", company, err)
	}
	return id, true, nil
}

// CreateDealer provisions an authentication identity and profile row in one
// transaction. The identity gets a synthetic email derived from the company
// name and a random bcrypt-hashed credential; dealers claim the account later
// through a reset flow outside this pipeline.
func (ps *PostgresStore) CreateDealer(p *models.DealerProfile) (int64, error) {
	email := p.Email
	if email == "" {
		email = syntheticEmail(p.CompanyName)
	}

	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return 0, fmt.Errorf("postgres: generate credential: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("postgres: hash credential: %w", err)
	}

	tx, err := ps.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	var identityID int64
	err = tx.QueryRow(`
		INSERT INTO dealer_identities (email, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, email, string(hash)).Scan(&identityID)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert identity: %w", err)
	}

	var profileID int64
	err = tx.QueryRow(`
		INSERT INTO dealer_profiles (identity_id, company_name, phone, city, state, website)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, identityID, p.CompanyName, p.Phone, p.City, p.State, p.Website).Scan(&profileID)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit dealer: %w", err)
	}
	return profileID, nil
}

// FindCategoryID resolves a slug to its category id.
func (ps *PostgresStore) FindCategoryID(slug string) (int64, bool, error) {
	var id int64
	err := ps.db.QueryRow(`SELECT id FROM categories WHERE slug = $1`, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find category %q: %w", slug, err)
	}
	return id, true, nil
}

// ListingExistsByTitle checks the (dealer, title) duplicate key.
func (ps *PostgresStore) ListingExistsByTitle(dealerID int64, title string) (bool, error) {
	var exists bool
	err := ps.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM listings WHERE dealer_id = $1 AND title = $2)
	`, dealerID, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: listing by title: %w", err)
	}
	return exists, nil
}

// ListingExistsByVIN checks the VIN duplicate key across all dealers.
func (ps *PostgresStore) ListingExistsByVIN(vin string) (bool, error) {
	var exists bool
	err := ps.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM listings WHERE vin = $1)
	`, vin).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: listing by vin: %w", err)
	}
	return exists, nil
}

// ListingExistsByStock checks the per-dealer stock number duplicate key.
func (ps *PostgresStore) ListingExistsByStock(dealerID int64, stock string) (bool, error) {
	var exists bool
	err := ps.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM listings WHERE dealer_id = $1 AND stock_number = $2)
	`, dealerID, stock).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: listing by stock: %w", err)
	}
	return exists, nil
}

// InsertListing writes one catalog row and returns its id.
func (ps *PostgresStore) InsertListing(l *models.CatalogListing) (int64, error) {
	status := l.Status
	if status == "" {
		status = "active"
	}

	var id int64
	err := ps.db.QueryRow(`
		INSERT INTO listings (
			dealer_id, category_id, title, year, make, model, vin,
			stock_number, price, mileage, condition, city, state,
			description, status, source_url
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id
	`, l.DealerID, l.CategoryID, l.Title, l.Year, l.Make, l.Model, l.VIN,
		l.StockNumber, l.Price, l.Mileage, string(l.Condition), l.City, l.State,
		l.Description, status, l.SourceURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert listing: %w", err)
	}
	return id, nil
}

// InsertImage attaches one image row to a listing.
func (ps *PostgresStore) InsertImage(img *models.ListingImage) error {
	_, err := ps.db.Exec(`
		INSERT INTO listing_images (listing_id, url, sort_index, is_primary)
		VALUES ($1, $2, $3, $4)
	`, img.ListingID, img.URL, img.SortIndex, img.IsPrimary)
	if err != nil {
		return fmt.Errorf("postgres: insert image: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// syntheticEmail derives a stable placeholder address from a company name.
func syntheticEmail(company string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_', r == '.':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(company))
	slug = strings.Trim(strings.ReplaceAll(slug, "--", "-"), "-")
	if slug == "" {
		slug = "dealer"
	}
	return slug + "@dealers.axlesai.com"
}
