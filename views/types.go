package views

import "time"

// SiteConfig holds the site-wide settings templates need.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "spacetraveling")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, absolute
	JSONLD      string
	NoIndex     bool
}

// DashboardStats is what the admin dashboard reports.
type DashboardStats struct {
	CachedDocuments   int
	SnapshotDocuments int
	ListingFetched    time.Time
	ListingStale      bool
	OpenViews         int // -1 when the view store cannot count
}
