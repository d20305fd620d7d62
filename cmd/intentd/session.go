package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mattjoyce/intentd/internal/log"
	"github.com/mattjoyce/intentd/internal/session"
	"github.com/mattjoyce/intentd/internal/storage"
)

// openSessionStore loads config and opens the session store it points at.
func openSessionStore(ctx context.Context, configPath string) (*session.Store, func(), error) {
	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log.SetupWriter(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogFormat)
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return session.NewStore(db, log.Get()), func() { _ = db.Close() }, nil
}

func runSessionLogin(args []string) int {
	var configPath string

	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")

	handle, rest := splitPositional(args, nil)
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if handle == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentd session login <handle> [--config PATH]")
		return 1
	}

	ctx := context.Background()
	store, closeFn, err := openSessionStore(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeFn()

	sess, err := store.Login(ctx, handle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		return 1
	}
	fmt.Printf("Session %s started for %s\n", sess.ID, sess.Handle)
	return 0
}

func runSessionLogout(args []string) int {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, closeFn, err := openSessionStore(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeFn()

	n, err := store.Logout(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logout failed: %v\n", err)
		return 1
	}
	if n == 0 {
		fmt.Println("No active session")
		return 0
	}
	fmt.Printf("Revoked %d session(s)\n", n)
	return 0
}

func runSessionStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, closeFn, err := openSessionStore(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeFn()

	sess, err := store.Active(ctx)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		return 1
	}

	if *jsonOut {
		out := map[string]any{"active": sess != nil}
		if sess != nil {
			out["session"] = sess
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	if sess == nil {
		fmt.Println("No active session")
		return 0
	}
	fmt.Printf("Active session %s\n", sess.ID)
	fmt.Printf("  handle:  %s\n", sess.Handle)
	fmt.Printf("  since:   %s\n", sess.CreatedAt.Format(time.RFC3339))
	return 0
}
