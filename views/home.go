package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/headlessblog/post"
)

const (
	// PostsID is the element "load more" appends into.
	PostsID = "posts"
	// MoreID wraps the load-more control and is swapped out-of-band.
	MoreID = "more"
)

// Home renders the full listing page for one page view.
func Home(cfg SiteConfig, meta PageMeta, view string, posts []post.Summary, next string) templ.Component {
	return Layout(cfg, meta, HomePartial(view, posts, next))
}

// HomePartial is the listing without the document shell.
func HomePartial(view string, posts []post.Summary, next string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="posts" id="`, PostsID, `">`)
		if len(posts) == 0 {
			h.raw(`<p class="empty">Nenhum post publicado ainda.</p>`)
		}
		h.component(PostItems(posts))
		h.raw(`</section>`)
		h.component(MoreControl(view, next, false))
	})
}

// PostItems renders listing entries. "load more" responses consist of these
// followed by an out-of-band MoreControl.
func PostItems(posts []post.Summary) templ.Component {
	return component(func(h *htmlWriter) {
		for _, p := range posts {
			h.raw(`<article class="post-item">`)
			if p.ID != "" {
				h.raw(`<a href="`)
				h.text(p.Link())
				h.raw(`">`)
			}
			h.raw(`<h2>`)
			h.text(p.Title)
			h.raw(`</h2>`)
			if p.Subtitle != "" {
				h.raw(`<p>`)
				h.text(p.Subtitle)
				h.raw(`</p>`)
			}
			if p.ID != "" {
				h.raw(`</a>`)
			}
			h.component(postInfo(p, 0))
			h.raw(`</article>`)
		}
	})
}

func postInfo(p post.Summary, readingMinutes int) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="info">`)
		if p.PublishedAt != nil {
			h.raw(`<time datetime="`)
			h.text(p.PublishedAt.Format("2006-01-02"))
			h.raw(`">`)
			h.text(FormatDate(p.PublishedAt))
			h.raw(`</time>`)
		} else {
			h.raw(`<span class="no-date">sem data</span>`)
		}
		if p.Author != "" {
			h.raw(`<span class="author">`)
			h.text(p.Author)
			h.raw(`</span>`)
		}
		if readingMinutes > 0 {
			h.raw(`<span class="reading">`)
			h.text(ReadingLabel(readingMinutes))
			h.raw(`</span>`)
		}
		h.raw(`</div>`)
	})
}

// MoreControl renders the "load more" button for the page after next, or an
// empty placeholder once the listing is exhausted. With oob set it carries
// hx-swap-oob so it replaces the control already on the page.
func MoreControl(view, next string, oob bool) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="`, MoreID, `" class="more"`)
		if oob {
			h.raw(` hx-swap-oob="true"`)
		}
		h.raw(`>`)
		if next != "" {
			writeMoreButton(h, view, next, "Carregar mais posts")
		}
		h.raw(`</div>`)
	})
}

// LoadMoreFailed replaces the control with an inline notice and a retry
// button for the same page. The listing itself is left untouched.
func LoadMoreFailed(view, next string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="`, MoreID, `" class="more" hx-swap-oob="true">`)
		h.raw(`<p class="notice" role="alert">Não foi possível carregar mais posts.</p>`)
		writeMoreButton(h, view, next, "Tentar novamente")
		h.raw(`</div>`)
	})
}

// LoadMoreResult is the response body for a successful "load more".
func LoadMoreResult(view string, added []post.Summary, next string) templ.Component {
	return component(func(h *htmlWriter) {
		h.component(PostItems(added))
		h.component(MoreControl(view, next, true))
	})
}

func writeMoreButton(h *htmlWriter, view, next, label string) {
	h.raw(`<button type="button" class="load-more" hx-get="`)
	h.text(MoreURL(view, next))
	h.raw(`" hx-target="#`, PostsID, `" hx-swap="beforeend" hx-sync="this:drop">`)
	h.text(label)
	h.raw(`</button>`)
}
