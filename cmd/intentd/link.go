package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattjoyce/intentd/internal/dispatch"
	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/log"
	"github.com/mattjoyce/intentd/internal/storage"
)

// linkFlags are the boolean flags accepted after a link positional.
var linkFlags = map[string]bool{"json": true}

// linkOpenResult is the --json output of 'link open'.
type linkOpenResult struct {
	Outcome dispatch.Outcome `json:"outcome"`
	Events  []events.Event   `json:"events"`
}

func runLinkOpen(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")

	raw, rest := splitPositional(args, linkFlags)
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if raw == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentd link open <url> [--config PATH] [--json]")
		return 1
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	log.SetupWriter(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogFormat)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	p := newPipeline(cfg, db, log.Get())
	outcome, err := p.dispatcher.HandleLink(ctx, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Link rejected: %v\n", err)
		return 1
	}
	p.dispatcher.Wait()

	evs := p.hub.SnapshotSince(0)
	if jsonOut {
		data, _ := json.MarshalIndent(linkOpenResult{Outcome: outcome, Events: evs}, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("Outcome: %s\n", outcome)
	printEvents(os.Stdout, evs)
	return 0
}

func printEvents(w io.Writer, evs []events.Event) {
	for _, ev := range evs {
		fmt.Fprintf(w, "  %-20s %s\n", ev.Type, strings.TrimSpace(string(ev.Data)))
	}
}

// linkInspectResult is the --json output of 'link inspect'.
type linkInspectResult struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	IsIntent   bool   `json:"is_intent"`
	Kind       string `json:"kind,omitempty"`
	Params     any    `json:"params,omitempty"`
	Payload    any    `json:"payload,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runLinkInspect(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")

	raw, rest := splitPositional(args, linkFlags)
	if err := fs.Parse(rest); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if raw == "" {
		fmt.Fprintln(os.Stderr, "Usage: intentd link inspect <url> [--config PATH] [--json]")
		return 1
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	log.SetupWriter(os.Stderr, cfg.Service.LogLevel, cfg.Service.LogFormat)

	// Inspection never touches the session gate or the shell.
	d := dispatch.New(dispatch.Config{Scheme: cfg.Intent.Scheme}, nil, nil, nil, nil)
	ins, inspectErr := d.Inspect(raw)

	result := linkInspectResult{
		Raw:        ins.Raw,
		Normalized: ins.Normalized,
		IsIntent:   ins.IsIntent,
	}
	if ins.IsIntent {
		result.Kind = string(ins.Intent.Kind)
		result.Params = ins.Intent.Params
		result.Payload = ins.Payload
	}
	if inspectErr != nil {
		result.Error = inspectErr.Error()
	}

	if jsonOut {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Raw:        %s\n", result.Raw)
		fmt.Printf("Normalized: %s\n", result.Normalized)
		switch {
		case inspectErr != nil:
			fmt.Printf("Error:      %s\n", result.Error)
		case !result.IsIntent:
			fmt.Println("Intent:     none")
		default:
			fmt.Printf("Intent:     %s\n", result.Kind)
			payload, _ := json.Marshal(result.Payload)
			fmt.Printf("Payload:    %s\n", payload)
		}
	}

	if inspectErr != nil {
		return 1
	}
	return 0
}
