package headlessblog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/headlessblog/content"
)

// Store wraps a SQLite database holding the last good copy of everything
// fetched from the content service, plus processed banner images.
type Store struct {
	db *sql.DB
}

// Banner is a resized banner image ready to serve.
type Banner struct {
	UID       string
	SourceURL string
	JPEG      []byte
	Width     int
	Height    int
	CreatedAt time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the snapshot writer run alongside page reads; the busy
	// timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    uid TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    body TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
    key TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS banners (
    uid TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    jpeg BLOB NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
`)
	return err
}

// SaveDocument upserts the snapshot of a document.
func (s *Store) SaveDocument(d content.RawDocument) error {
	if d.UID == "" {
		return fmt.Errorf("save document: empty uid")
	}
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO documents (uid, type, body, fetched_at) VALUES (?, ?, ?, ?)`,
		d.UID, d.Type, string(body), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetDocument returns the snapshot of a document, or ErrNotFound.
func (s *Store) GetDocument(uid string) (content.RawDocument, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM documents WHERE uid = ?`, uid).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return content.RawDocument{}, ErrNotFound
	}
	if err != nil {
		return content.RawDocument{}, err
	}
	var d content.RawDocument
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return content.RawDocument{}, fmt.Errorf("decode document %s: %w", uid, err)
	}
	return d, nil
}

// CountDocuments returns how many documents have a snapshot.
func (s *Store) CountDocuments() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// SavePage upserts the snapshot of a query page under key.
func (s *Store) SavePage(key string, p content.RawPage) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO pages (key, body, fetched_at) VALUES (?, ?, ?)`,
		key, string(body), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetPage returns the snapshot of a query page, or ErrNotFound.
func (s *Store) GetPage(key string) (content.RawPage, time.Time, error) {
	var body, fetched string
	err := s.db.QueryRow(`SELECT body, fetched_at FROM pages WHERE key = ?`, key).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return content.RawPage{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return content.RawPage{}, time.Time{}, err
	}
	var p content.RawPage
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return content.RawPage{}, time.Time{}, fmt.Errorf("decode page %s: %w", key, err)
	}
	at, _ := time.Parse(time.RFC3339, fetched)
	return p, at, nil
}

// SaveBanner upserts a processed banner.
func (s *Store) SaveBanner(b Banner) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO banners (uid, source_url, jpeg, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.UID, b.SourceURL, b.JPEG, b.Width, b.Height, b.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// GetBanner returns the processed banner for uid, or ErrNotFound.
func (s *Store) GetBanner(uid string) (Banner, error) {
	var b Banner
	var created string
	err := s.db.QueryRow(`SELECT uid, source_url, jpeg, width, height, created_at FROM banners WHERE uid = ?`, uid).
		Scan(&b.UID, &b.SourceURL, &b.JPEG, &b.Width, &b.Height, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Banner{}, ErrNotFound
	}
	if err != nil {
		return Banner{}, err
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return b, nil
}

// DeleteBanners drops every processed banner, forcing them to be rebuilt.
func (s *Store) DeleteBanners() error {
	_, err := s.db.Exec(`DELETE FROM banners`)
	return err
}
