package headlessblog

import "github.com/eringen/headlessblog/views"

// viewConfig is the slice of SiteConfig the templates see.
func (c SiteConfig) viewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}
