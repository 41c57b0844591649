package headlessblog

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/feed"
	"github.com/eringen/headlessblog/post"
	"github.com/eringen/headlessblog/views"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	first, err := a.Cache.FirstPage(ctx)
	if err != nil {
		return err
	}
	state := feed.Start(first)
	view := uuid.NewString()
	if state.HasMore() {
		if err := a.Views.Save(ctx, view, state); err != nil {
			// The more handler re-seeds unknown views, so the page still works.
			c.Logger().Warnf("save view %s: %v", view, err)
		}
	}

	cfg := a.Config.viewConfig()
	if isHTMX(c) && c.QueryParam("partial") == "home" {
		return Render(c, views.HomePartial(view, state.Posts, string(state.Next)))
	}
	meta := views.PageMeta{
		URL:    BuildURL(a.Config.URL),
		JSONLD: views.WebsiteJsonLD(cfg),
	}
	return Render(c, views.Home(cfg, meta, view, state.Posts, string(state.Next)))
}

// handleMore answers a "load more" click: it follows the cursor, feeds the
// result through the view's reducer and renders only the posts it added.
func (a *App) handleMore(c echo.Context) error {
	if !isHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if !a.moreLimiter.Allow(c.RealIP()) {
		return c.NoContent(http.StatusTooManyRequests)
	}
	ctx := c.Request().Context()
	cur := content.Cursor(c.QueryParam("cursor"))
	view := c.QueryParam("view")
	if _, err := uuid.Parse(view); err != nil {
		view = uuid.NewString()
	}
	if cur.Exhausted() {
		return Render(c, views.MoreControl(view, "", true))
	}

	// An expired or never stored view continues from the cursor the page
	// holds, but is only stored once that cursor has produced a page.
	stored := true
	state, err := a.Views.Load(ctx, view)
	switch {
	case errors.Is(err, feed.ErrViewNotFound):
		stored = false
		state = feed.State{Next: cur}
	case err != nil:
		return err
	}
	if state.Next != cur {
		return c.NoContent(http.StatusNoContent)
	}

	var ev feed.Event
	page, ferr := a.Source.Next(ctx, cur)
	switch {
	case errors.Is(ferr, content.ErrInvalidCursor):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	case ferr != nil:
		ev = feed.LoadFailed{From: cur, Err: ferr}
	default:
		ev = feed.PageLoaded{From: cur, Page: page}
	}

	var (
		next feed.State
		out  feed.Outcome
	)
	if stored {
		next, err = a.Views.Update(ctx, view, func(s feed.State) feed.State {
			n, o := feed.Reduce(s, ev)
			out = o
			return n
		})
		if errors.Is(err, feed.ErrViewNotFound) {
			stored = false
		} else if err != nil {
			return err
		}
	}
	if !stored {
		next, out = feed.Reduce(feed.State{Next: cur}, ev)
		if out.Kind == feed.Appended {
			if err := a.Views.Save(ctx, view, next); err != nil {
				return err
			}
		}
	}

	switch out.Kind {
	case feed.Appended:
		return Render(c, views.LoadMoreResult(view, out.Added, string(next.Next)))
	case feed.Exhausted:
		return Render(c, views.MoreControl(view, "", true))
	case feed.Failed:
		c.Logger().Warnf("load more for view %s: %v", view, out.Err)
		return Render(c, views.LoadMoreFailed(view, string(cur)))
	default:
		return c.NoContent(http.StatusNoContent)
	}
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	cfg := a.Config.viewConfig()
	partial := isHTMX(c) && c.QueryParam("partial") == "post"

	// Posts the listing already knows about but that were never fetched get
	// the loading shell; anything else is fetched now so unknown uids 404.
	if !partial && !a.Cache.Cached(slug) && a.Cache.Listed(slug) {
		meta := views.PageMeta{URL: PostURL(a.Config.URL, slug), OGType: "article"}
		return Render(c, views.PostLoading(cfg, meta, postPartialURL(slug)))
	}

	doc, err := a.Cache.Document(c.Request().Context(), slug)
	if err != nil {
		if partial {
			// The loading shell is already on screen with a 200; htmx only
			// swaps successful responses, so the error goes out as a fragment.
			if errors.Is(err, ErrNotFound) {
				return Render(c, views.NotFoundPartial())
			}
			c.Logger().Errorf("load post %s: %v", slug, err)
			return Render(c, views.ServerErrorPartial())
		}
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(cfg))
		}
		return err
	}

	d := post.MapDetail(doc)
	if partial {
		c.Response().Header().Set("HX-Trigger", "post-loaded")
		return Render(c, views.PostPartial(d))
	}
	return Render(c, views.Post(cfg, a.postMeta(d), d))
}

func (a *App) postMeta(d post.Detail) views.PageMeta {
	cfg := a.Config.viewConfig()
	meta := views.PageMeta{
		Title:       d.Title,
		Description: d.Subtitle,
		URL:         PostURL(a.Config.URL, d.ID),
		OGType:      "article",
		JSONLD:      views.BlogPostingJsonLD(cfg, d),
	}
	if d.BannerURL != "" {
		meta.Image = views.AbsoluteURL(cfg, views.BannerPath(d.ID))
	}
	return meta
}

func postPartialURL(slug string) string {
	return "/post/" + url.PathEscape(slug) + "/?partial=post"
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.AllSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.AllSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /more/\n\nSitemap: %s/sitemap.xml\n",
		strings.TrimRight(a.Config.URL, "/"))
	return c.String(http.StatusOK, body)
}

func handlePostRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleSiteCSS(c echo.Context) error {
	b, err := EmbeddedAssets.ReadFile("embedded/site.css")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", b)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	cfg := a.Config.viewConfig()
	he, ok := err.(*echo.HTTPError)
	if (ok && he.Code == http.StatusNotFound) || errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(cfg))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(cfg))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
