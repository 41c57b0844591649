package views

import (
	"strconv"
	"time"

	"github.com/a-h/templ"
)

var adminMeta = PageMeta{Title: "Admin", NoIndex: true}

func csrfField(h *htmlWriter, token string) {
	h.raw(`<input type="hidden" name="_csrf" value="`)
	h.text(token)
	h.raw(`" />`)
}

// AdminLogin renders the password form.
func AdminLogin(cfg SiteConfig, failed bool, csrf string) templ.Component {
	return Layout(cfg, adminMeta, component(func(h *htmlWriter) {
		h.raw(`<section class="admin"><h1>Admin</h1>`)
		if failed {
			h.raw(`<p class="notice" role="alert">Senha incorreta.</p>`)
		}
		h.raw(`<form method="post" action="/admin/login/">`)
		csrfField(h, csrf)
		h.raw(`<label for="password">Senha</label>`)
		h.raw(`<input id="password" type="password" name="password" autocomplete="current-password" required />`)
		h.raw(`<button type="submit">Entrar</button></form></section>`)
	}))
}

// AdminDashboard shows cache state and the refresh and logout actions.
func AdminDashboard(cfg SiteConfig, stats DashboardStats, msg, csrf string) templ.Component {
	return Layout(cfg, adminMeta, component(func(h *htmlWriter) {
		h.raw(`<section class="admin"><h1>Admin</h1>`)
		if msg != "" {
			h.raw(`<p class="notice">`)
			h.text(msg)
			h.raw(`</p>`)
		}
		h.raw(`<dl class="stats">`)
		stat(h, "Posts em cache", strconv.Itoa(stats.CachedDocuments))
		stat(h, "Posts no snapshot", strconv.Itoa(stats.SnapshotDocuments))
		listing := "nunca"
		if !stats.ListingFetched.IsZero() {
			listing = stats.ListingFetched.Format(time.RFC3339)
		}
		if stats.ListingStale {
			listing += " (snapshot)"
		}
		stat(h, "Listagem carregada", listing)
		if stats.OpenViews >= 0 {
			stat(h, "Visualizações abertas", strconv.Itoa(stats.OpenViews))
		}
		h.raw(`</dl>`)
		h.raw(`<form method="post" action="/admin/refresh/">`)
		csrfField(h, csrf)
		h.raw(`<button type="submit">Atualizar conteúdo</button></form>`)
		h.raw(`<form method="post" action="/admin/logout/">`)
		csrfField(h, csrf)
		h.raw(`<button type="submit">Sair</button></form></section>`)
	}))
}

func stat(h *htmlWriter, label, value string) {
	h.raw(`<dt>`)
	h.text(label)
	h.raw(`</dt><dd>`)
	h.text(value)
	h.raw(`</dd>`)
}
