package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/headlessblog"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := run(false); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case "warm":
		if err := run(true); err != nil {
			slog.Error("warm failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("headlessblog %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run(warmOnly bool) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	if files := loadDotEnv(); len(files) > 0 {
		slog.Info("loaded env files", "files", files)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		tp, err := initTracer(ctx, endpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	app := headlessblog.New(configFromEnv())
	defer app.Close()

	if warmOnly {
		if err := app.Setup(); err != nil {
			return err
		}
		n, err := app.Cache.Prewarm(ctx)
		if err != nil {
			return err
		}
		slog.Info("snapshot warmed", "posts", n)
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`headlessblog - a blog rendered from a headless content service

Usage:
  headlessblog [command]

Commands:
  serve     Start the HTTP server (default)
  warm      Fetch the newest posts into the local snapshot and exit
  version   Print the headlessblog version
  help      Show this help message

Configuration is read from the environment, .env.local and .env.
Required: CONTENT_API_URL, ADMIN_PASSWORD, ADMIN_SESSION_SECRET.`)
}
