package views

import (
	"github.com/a-h/templ"
)

// HTMXSrc is the htmx build the pages load. The CSP in the server middleware
// allows this origin.
const HTMXSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Layout wraps body in the document shell: head metadata, the site header
// and the main container.
func Layout(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		title := cfg.Name
		if meta.Title != "" {
			title = meta.Title + " | " + cfg.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		h.raw(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8" />`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1" />`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title>`)
		if desc != "" {
			h.raw(`<meta name="description" content="`)
			h.text(desc)
			h.raw(`" />`)
		}
		if meta.NoIndex {
			h.raw(`<meta name="robots" content="noindex" />`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical" href="`)
			h.text(meta.URL)
			h.raw(`" /><meta property="og:url" content="`)
			h.text(meta.URL)
			h.raw(`" />`)
		}
		h.raw(`<meta property="og:title" content="`)
		h.text(title)
		h.raw(`" /><meta property="og:type" content="`)
		h.text(ogType)
		h.raw(`" /><meta property="og:site_name" content="`)
		h.text(cfg.Name)
		h.raw(`" />`)
		if desc != "" {
			h.raw(`<meta property="og:description" content="`)
			h.text(desc)
			h.raw(`" />`)
		}
		if meta.Image != "" {
			h.raw(`<meta property="og:image" content="`)
			h.text(meta.Image)
			h.raw(`" />`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml" title="`)
		h.text(cfg.Name)
		h.raw(`" href="/feed.xml" />`)
		h.raw(`<link rel="stylesheet" href="/public/site.css" />`)
		h.raw(`<script src="`, HTMXSrc, `" defer></script>`)
		if meta.JSONLD != "" {
			// encoding/json escapes <, > and & so the block cannot close the script.
			h.raw(`<script type="application/ld+json">`)
			h.raw(meta.JSONLD)
			h.raw(`</script>`)
		}
		h.raw(`</head><body>`)
		h.component(Header(cfg))
		h.raw(`<main class="container">`)
		h.component(body)
		h.raw(`</main></body></html>`)
	})
}

// Header is the site header with the logo linking home.
func Header(cfg SiteConfig) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<header class="header"><div class="container"><a href="/" class="logo">`)
		h.text(cfg.Name)
		h.raw(`<span>.</span></a></div></header>`)
	})
}
