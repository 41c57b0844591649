package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/headlessblog/post"
)

var monthsPT = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatDate renders t as "dd mmm yyyy" with Portuguese month abbreviations,
// e.g. "15 mar 2021". A nil time renders as "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02") + " " + monthsPT[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// ReadingLabel formats a reading time in minutes.
func ReadingLabel(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsoluteURL prefixes a site-relative path with the canonical site URL.
func AbsoluteURL(cfg SiteConfig, p string) string {
	return strings.TrimRight(cfg.URL, "/") + p
}

// MoreURL is the htmx endpoint that loads the page after next for view.
func MoreURL(view string, next string) string {
	q := url.Values{}
	q.Set("view", view)
	q.Set("cursor", next)
	return "/more/?" + q.Encode()
}

// BannerPath is the local proxy path for a post's banner.
func BannerPath(id string) string {
	return "/media/banner/" + url.PathEscape(id)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, d post.Detail) string {
	postURL := buildURL(cfg.URL, "post", d.ID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": d.Title,
		"url":      postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if d.Subtitle != "" {
		data["description"] = d.Subtitle
	}
	if d.PublishedAt != nil {
		data["datePublished"] = d.PublishedAt.Format(time.RFC3339)
	}
	author := d.Author
	if author == "" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if d.BannerURL != "" {
		data["image"] = AbsoluteURL(cfg, BannerPath(d.ID))
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
