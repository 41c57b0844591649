// Package headlessblog renders a blog whose posts live in a headless content
// service. It serves a paginated listing with in-page "load more", post pages
// rendered from rich text, RSS and a sitemap, and keeps a SQLite snapshot of
// everything fetched so pages survive content service outages.
package headlessblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/feed"
)

// App is the central application. It wires together the content source,
// cache, snapshot store, view-state store, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Source content.Source
	Cache  *ContentCache
	Views  feed.Store

	loginLimiter   *RateLimiter
	webhookLimiter *RateLimiter
	moreLimiter    *RateLimiter
	assetClient    *http.Client
	redis          *redis.Client
	staticDir      string
	ready          bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the stores, builds the content client and cache, and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo as an http.Handler.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("headlessblog: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("headlessblog: SessionSecret is required")
	}

	if a.Source == nil {
		if a.Config.ContentAPIURL == "" {
			return fmt.Errorf("headlessblog: ContentAPIURL is required")
		}
		client, err := content.NewClient(a.Config.ContentAPIURL,
			content.WithAccessToken(a.Config.ContentAccessToken),
			content.WithCursorKey([]byte(a.Config.CursorSecret)),
			content.WithLogger(slog.Default().With("component", "content")),
		)
		if err != nil {
			return fmt.Errorf("headlessblog: init content client: %w", err)
		}
		a.Source = client
		a.assetClient = client.HTTPClient()
	}
	if a.assetClient == nil {
		a.assetClient = &http.Client{Timeout: 15 * time.Second}
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("headlessblog: init store: %w", err)
		}
		a.Store = store
	}

	if a.Views == nil {
		views, err := a.newViewStore()
		if err != nil {
			return fmt.Errorf("headlessblog: init view store: %w", err)
		}
		a.Views = views
	}

	a.Cache = NewContentCache(a.Source, a.Store, a.Config.CacheTTL, a.Config.PageSize, a.Config.MaxPages, a.Echo.Logger)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.webhookLimiter = NewRateLimiter(30, time.Minute)
	a.moreLimiter = NewRateLimiter(a.Config.MoreRateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	a.ready = true
	return nil
}

func (a *App) newViewStore() (feed.Store, error) {
	if a.Config.RedisURL == "" {
		return feed.NewMemoryStore(a.Config.ViewTTL), nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("instrument redis: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.redis = rdb
	return feed.NewRedisStore(rdb, a.Config.ViewTTL), nil
}

// Start sets the app up, pre-fetches the newest posts and serves until the
// server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}

	if a.Config.PrewarmPosts {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := a.Cache.Prewarm(ctx)
		cancel()
		if err != nil {
			a.Echo.Logger.Warnf("prewarm failed, posts will load on first request: %v", err)
		} else {
			a.Echo.Logger.Infof("prewarmed %d posts", n)
		}
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/site.css", a.handleSiteCSS)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/more/", a.handleMore)
	e.GET("/post/", handlePostRedirect)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/media/banner/:slug", a.handleBanner)

	// Content service webhook
	e.POST("/api/revalidate", a.handleRevalidate)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/refresh/", a.handleAdminRefresh)
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
		a.webhookLimiter.Close()
		a.moreLimiter.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if m, ok := a.Views.(*feed.MemoryStore); ok {
		m.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
