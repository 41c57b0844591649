package headlessblog

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/headlessblog/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.Config.viewConfig(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, views.AdminLogin(a.Config.viewConfig(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminRefresh drops everything cached and fetches the newest posts
// again. Snapshots stay, so a failed refresh still leaves pages servable.
func (a *App) handleAdminRefresh(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.Cache.Invalidate()
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	n, err := a.Cache.Prewarm(ctx)
	msg := fmt.Sprintf("Conteúdo atualizado: %d posts carregados.", n)
	if err != nil {
		c.Logger().Warnf("admin refresh: %v", err)
		msg = "Falha ao atualizar: " + err.Error()
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	cs := a.Cache.Stats()
	snap, err := a.Store.CountDocuments()
	if err != nil {
		return err
	}
	stats := views.DashboardStats{
		CachedDocuments:   cs.Documents,
		SnapshotDocuments: snap,
		ListingFetched:    cs.ListingFetched,
		ListingStale:      cs.ListingStale,
		OpenViews:         -1,
	}
	if counter, ok := a.Views.(interface{ Len() int }); ok {
		stats.OpenViews = counter.Len()
	}
	return Render(c, views.AdminDashboard(a.Config.viewConfig(), stats, msg, CsrfToken(c)))
}
