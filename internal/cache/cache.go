// Package cache stores provider responses in a local sqlite database so repeated
// runs over the same season do not refetch historical data.
//
// Entries are keyed by request URL. Schema changes are applied with embedded
// migrations when the cache is opened.
package cache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the cache directory.
const FileName = "responses.db"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache is a persistent response cache backed by sqlite.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open creates the cache directory if needed, opens the database and applies migrations.
// A ttl of 0 keeps entries forever.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load cache migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Closing m would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("cache migration failed: %w", err)
	}
	return nil
}

// Get returns the cached body for key. Expired entries are reported as missing.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64
	err := c.db.QueryRow(`SELECT body, fetched_at FROM responses WHERE key = ?`, key).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (c *Cache) Put(key string, body []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO responses (key, body, fetched_at) VALUES (?, ?, ?)`,
		key, body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
