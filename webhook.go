package headlessblog

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// revalidateRequest is the body the content service posts when documents
// are published or unpublished.
type revalidateRequest struct {
	Secret string `json:"secret"`
	Type   string `json:"type"`
}

type revalidateResponse struct {
	Revalidated bool   `json:"revalidated"`
	Type        string `json:"type,omitempty"`
}

func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.WebhookSecret == "" {
		return echo.ErrNotFound
	}
	if !a.webhookLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}
	var req revalidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.Config.WebhookSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
	}
	a.Cache.Invalidate()
	c.Logger().Infof("content revalidated by webhook (%s)", req.Type)
	return c.JSON(http.StatusOK, revalidateResponse{Revalidated: true, Type: req.Type})
}
