package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/headlessblog/post"
	"github.com/eringen/headlessblog/richtext"
)

// Post renders the full detail page.
func Post(cfg SiteConfig, meta PageMeta, d post.Detail) templ.Component {
	return Layout(cfg, meta, PostPartial(d))
}

// PostPartial is the detail article without the document shell. It is also
// what the loading shell swaps in.
func PostPartial(d post.Detail) templ.Component {
	return component(func(h *htmlWriter) {
		if d.BannerURL != "" {
			h.raw(`<img class="banner" src="`)
			h.text(BannerPath(d.ID))
			h.raw(`" alt="`)
			h.text(d.Title)
			h.raw(`" />`)
		}
		h.raw(`<article class="post">`)
		h.raw(`<h1>`)
		h.text(d.Title)
		h.raw(`</h1>`)
		h.component(postInfo(d.Summary, post.ReadingTime(d)))
		for _, sec := range d.Content {
			h.raw(`<section class="post-section">`)
			if sec.Heading != "" {
				h.raw(`<h2>`)
				h.text(sec.Heading)
				h.raw(`</h2>`)
			}
			h.raw(`<div class="post-content">`)
			h.component(richtext.Render(sec.Body).Component())
			h.raw(`</div></section>`)
		}
		h.raw(`</article>`)
	})
}

// PostLoading is the shell served for a post that is not cached yet. htmx
// fetches the article as soon as the page loads.
func PostLoading(cfg SiteConfig, meta PageMeta, partialURL string) templ.Component {
	return Layout(cfg, meta, component(func(h *htmlWriter) {
		h.raw(`<div class="loading" hx-get="`)
		h.text(partialURL)
		h.raw(`" hx-trigger="load" hx-swap="outerHTML"><p>Carregando...</p></div>`)
	}))
}

// NotFound is the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Página não encontrada", NoIndex: true}, NotFoundPartial())
}

// NotFoundPartial is the 404 message without the document shell.
func NotFoundPartial() templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="error-page"><h1>404</h1><p>Esta página não existe.</p><a href="/">Voltar para o início</a></div>`)
	})
}

// ServerError is the 5xx page.
func ServerError(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Erro", NoIndex: true}, ServerErrorPartial())
}

// ServerErrorPartial is the 5xx message without the document shell.
func ServerErrorPartial() templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="error-page"><h1>Algo deu errado</h1><p>Não foi possível carregar esta página agora. Tente novamente em instantes.</p><a href="/">Voltar para o início</a></div>`)
	})
}
