package headlessblog

import (
	"time"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/feed"
)

// SiteConfig holds all configuration for a headlessblog site.
type SiteConfig struct {
	Name        string // Site name (default "spacetraveling")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite snapshot path (default "data/content.db")

	ContentAPIURL      string // Required: content service API root
	ContentAccessToken string // Content service access token, if the repository is private

	PageSize      int           // Posts per listing page (default 5)
	MaxPages      int           // Pages walked for sitemap and feed (default 20)
	CacheTTL      time.Duration // Content cache TTL (default 5min)
	ViewTTL       time.Duration // Lifetime of a page view's "load more" state (default 30min)
	RedisURL      string        // Keep view state in Redis instead of memory when set
	PrewarmPosts  bool          // Fetch the newest posts at startup (default true via cmd)
	MoreRateLimit int           // "load more" requests per client IP per minute (default 120)

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	WebhookSecret string // Secret expected in content service webhooks; empty disables the webhook
	CursorSecret  string // Seals "load more" cursors (default SessionSecret)
	CookieSecure  bool   // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.PageSize <= 0 {
		c.PageSize = 5
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.ViewTTL <= 0 {
		c.ViewTTL = 30 * time.Minute
	}
	if c.MoreRateLimit <= 0 {
		c.MoreRateLimit = 120
	}
	if c.CursorSecret == "" {
		c.CursorSecret = c.SessionSecret
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithSource replaces the HTTP content client, e.g. with a fake in tests.
func WithSource(src content.Source) Option {
	return func(a *App) {
		a.Source = src
	}
}

// WithViewStore replaces the page-view state store.
func WithViewStore(s feed.Store) Option {
	return func(a *App) {
		a.Views = s
	}
}

// WithStore sets an already opened snapshot store.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
