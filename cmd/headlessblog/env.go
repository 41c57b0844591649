package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/headlessblog"
)

// loadDotEnv loads .env files with priority .env.local > .env. godotenv does
// not overwrite variables that are already set, so the real environment wins.
func loadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		if err := godotenv.Load(loaded...); err != nil {
			slog.Warn("could not load env file", "files", loaded, "error", err)
		}
	}
	return loaded
}

func configFromEnv() headlessblog.SiteConfig {
	return headlessblog.SiteConfig{
		Name:        os.Getenv("SITE_NAME"),
		URL:         os.Getenv("SITE_URL"),
		Description: headlessblog.EnvOr("SITE_DESCRIPTION", "Tudo sobre como é viajar pelo espaço."),
		Author:      os.Getenv("SITE_AUTHOR"),

		Addr:         os.Getenv("ADDR"),
		DatabasePath: os.Getenv("DATABASE_PATH"),

		ContentAPIURL:      headlessblog.MustEnv("CONTENT_API_URL"),
		ContentAccessToken: os.Getenv("CONTENT_ACCESS_TOKEN"),

		PageSize:      envInt("PAGE_SIZE", 0),
		CacheTTL:      envDuration("CACHE_TTL", 0),
		ViewTTL:       envDuration("VIEW_TTL", 0),
		RedisURL:      os.Getenv("REDIS_URL"),
		PrewarmPosts:  envBool("PREWARM_POSTS", true),
		MoreRateLimit: envInt("MORE_RATE_LIMIT", 0),
		CursorSecret:  os.Getenv("CURSOR_SECRET"),

		AdminPassword: headlessblog.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: headlessblog.MustEnv("ADMIN_SESSION_SECRET"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE", false),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("ignoring invalid boolean", "key", key, "value", v)
		return fallback
	}
	return b
}
