package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/intentd/internal/api"
	"github.com/mattjoyce/intentd/internal/auth"
	"github.com/mattjoyce/intentd/internal/config"
	"github.com/mattjoyce/intentd/internal/dispatch"
	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/intent"
	"github.com/mattjoyce/intentd/internal/link"
	"github.com/mattjoyce/intentd/internal/lock"
	"github.com/mattjoyce/intentd/internal/log"
	"github.com/mattjoyce/intentd/internal/session"
	"github.com/mattjoyce/intentd/internal/shell"
	"github.com/mattjoyce/intentd/internal/storage"
	"github.com/mattjoyce/intentd/internal/tui/watch"
	"github.com/mattjoyce/intentd/internal/webhook"
)

// eventHistory is how many events the hub keeps for Last-Event-ID replay.
const eventHistory = 256

// pipeline is the assembled dispatch path over one database.
type pipeline struct {
	hub        *events.Hub
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher
}

func newPipeline(cfg *config.Config, db *sql.DB, logger *slog.Logger) *pipeline {
	hub := events.NewHub(eventHistory)
	sessions := session.NewStore(db, logger)
	shellHub := shell.NewHub(hub, logger)
	platform := shell.Platform{NativeImageAttachment: cfg.Platform.NativeImageAttachment}

	d := dispatch.New(dispatch.Config{
		Scheme:          cfg.Intent.Scheme,
		Delay:           cfg.Dispatch.Delay,
		TeardownTimeout: cfg.Dispatch.TeardownTimeout,
	}, intent.DefaultRegistry(), sessions, shellHub, hub, dispatch.WithLogger(logger))
	dispatch.RouteDefaults(d, shellHub, platform)

	return &pipeline{hub: hub, sessions: sessions, dispatcher: d}
}

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("intentd starting", "version", version, "config", cfg.Path)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	p := newPipeline(cfg, db, log.Get())
	feed := link.NewFeed()
	driver := link.NewDriver(feed, p.dispatcher, log.Get())

	errCh := make(chan error, 3)

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("link driver: %w", err)
		}
	}()

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{
				Token:  t.Token,
				Scopes: t.Scopes,
			})
		}
		apiConfig := api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
			Tokens: tokens,
		}
		apiServer := api.New(apiConfig, api.Deps{
			Links:     feed,
			Inspector: p.dispatcher,
			Sessions:  p.sessions,
			Hub:       p.hub,
		}, log.Get())
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	if cfg.Webhooks != nil && len(cfg.Webhooks.Endpoints) > 0 {
		webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhooks, cfg.Tokens)
		if err != nil {
			logger.Error("failed to configure webhooks", "error", err)
			return 1
		}

		webhookServer := webhook.New(webhookConfig, feed, log.Get())
		go func() {
			if err := webhookServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("webhook: %w", err)
			}
		}()
		logger.Info("webhook server enabled", "listen", webhookConfig.Listen, "endpoints", len(webhookConfig.Endpoints))
	}

	logger.Info("intentd running (press Ctrl+C to stop)")

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		stop()
		code = 1
	}

	// The driver may be mid-link; it must stop scheduling before the drain.
	<-driverDone
	// Scheduled handlers are never cancelled; let them land before exit.
	p.dispatcher.Wait()
	logger.Info("intentd stopped")
	return code
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://127.0.0.1:8480", "intentd API URL")
	apiKey := fs.String("api-key", os.Getenv("INTENTD_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or INTENTD_API_KEY env var.")
		return 1
	}

	m := watch.New(*apiURL, *apiKey)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
