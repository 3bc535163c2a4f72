package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Product is an analyzed product with its serialized analysis result.
type Product struct {
	ID        string
	Name      string
	Analysis  string // JSON-encoded analysis result
	CreatedAt time.Time
}

// Listing records one publish of a product to a marketplace.
type Listing struct {
	ID                   int64
	ProductID            string
	Platform             string
	MarketplaceProductID string
	ProductURL           string
	Title                string
	Price                int
	CreatedAt            time.Time
}

// Store defines the persistence interface.
type Store interface {
	SaveProduct(p *Product) error
	GetProduct(id string) (*Product, error)
	SaveListing(l *Listing) error
	ListingsForProduct(productID string) ([]Listing, error)

	// Marketplace credential methods. Payloads are encrypted at rest.
	SetCredential(platform string, payload []byte) error
	GetCredential(platform string) ([]byte, error)

	Close() error
}

// SQLiteStore implements Store using SQLite with encrypted credentials.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based store. The encryptionKey is
// used to encrypt/decrypt marketplace credential payloads.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			analysis TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			marketplace_product_id TEXT NOT NULL,
			product_url TEXT NOT NULL,
			title TEXT NOT NULL,
			price INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS credentials (
			platform TEXT PRIMARY KEY,
			encrypted_payload TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SaveProduct stores or updates a product.
func (s *SQLiteStore) SaveProduct(p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO products (id, name, analysis, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			analysis = excluded.analysis
	`, p.ID, p.Name, p.Analysis, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	return nil
}

// GetProduct retrieves a product by ID. Returns nil, nil if not found.
func (s *SQLiteStore) GetProduct(id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Product{ID: id}
	err := s.db.QueryRow(
		"SELECT name, analysis, created_at FROM products WHERE id = ?",
		id,
	).Scan(&p.Name, &p.Analysis, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// SaveListing stores one publish record.
func (s *SQLiteStore) SaveListing(l *Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT INTO listings (product_id, platform, marketplace_product_id, product_url, title, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ProductID, l.Platform, l.MarketplaceProductID, l.ProductURL, l.Title, l.Price, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		l.ID = id
	}
	return nil
}

// ListingsForProduct retrieves all publish records for a product.
func (s *SQLiteStore) ListingsForProduct(productID string) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, product_id, platform, marketplace_product_id, product_url, title, price, created_at
		FROM listings WHERE product_id = ? ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Platform, &l.MarketplaceProductID, &l.ProductURL, &l.Title, &l.Price, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// SetCredential stores an encrypted credential payload for a platform.
func (s *SQLiteStore) SetCredential(platform string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt(payload, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO credentials (platform, encrypted_payload, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(platform) DO UPDATE SET
			encrypted_payload = excluded.encrypted_payload,
			last_updated = excluded.last_updated
	`, platform, encrypted, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// GetCredential retrieves and decrypts a credential payload.
// Returns nil, nil if no credential is stored for the platform.
func (s *SQLiteStore) GetCredential(platform string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encrypted string
	err := s.db.QueryRow(
		"SELECT encrypted_payload FROM credentials WHERE platform = ?",
		platform,
	).Scan(&encrypted)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	payload, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential: %w", err)
	}

	return payload, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
