package main

import (
	"fmt"
	"os"
	"strings"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "link":
		os.Exit(runLinkNoun(args))
	case "session":
		os.Exit(runSessionNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("intentd version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`intentd - Deep-link intent dispatcher

Usage:
  intentd <noun> <action> [flags]

Core Resources (Nouns):
  system    Service lifecycle and monitoring
  link      Incoming deep links
  session   The authenticated user session
  config    Configuration and integrity

System Commands:
  system start        Start the dispatcher service in foreground
  system watch        Live TUI over the event stream

Link Commands:
  link open <url>     Run a link through the pipeline once
  link inspect <url>  Show how a link parses without dispatching

Session Commands:
  session login <handle>   Start a session
  session logout           End the active session
  session status           Show the active session

Config Commands:
  config check        Validate syntax, policy, and integrity (--strict)
  config lock         Authorize current state (update integrity hash)
  config show         Print the resolved configuration (secrets redacted)
  config get <path>   Read a single value from the resolved configuration

General:
  version             Show version information
  help                Show this help message

Use 'intentd <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runLinkNoun(args []string) int {
	if len(args) < 1 {
		printLinkNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printLinkNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "open":
		if hasHelpFlag(actionArgs) {
			printLinkOpenHelp()
			return 0
		}
		return runLinkOpen(actionArgs)
	case "inspect":
		if hasHelpFlag(actionArgs) {
			printLinkInspectHelp()
			return 0
		}
		return runLinkInspect(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown link action: %s\n", action)
		return 1
	}
}

func runSessionNoun(args []string) int {
	if len(args) < 1 {
		printSessionNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSessionNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "login":
		if hasHelpFlag(actionArgs) {
			printSessionLoginHelp()
			return 0
		}
		return runSessionLogin(actionArgs)
	case "logout":
		if hasHelpFlag(actionArgs) {
			printSessionLogoutHelp()
			return 0
		}
		return runSessionLogout(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSessionStatusHelp()
			return 0
		}
		return runSessionStatus(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown session action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "get":
		if hasHelpFlag(actionArgs) {
			printConfigGetHelp()
			return 0
		}
		return runConfigGet(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

// splitPositional separates the first non-flag argument from the rest so
// flags may follow it, as in 'intentd link open <url> --json'.
func splitPositional(args []string, boolFlags map[string]bool) (string, []string) {
	var positional string
	var rest []string
	expectValue := false
	for _, arg := range args {
		switch {
		case expectValue:
			rest = append(rest, arg)
			expectValue = false
		case len(arg) > 1 && arg[0] == '-':
			rest = append(rest, arg)
			name := trimFlag(arg)
			if !boolFlags[name] && !strings.Contains(arg, "=") {
				expectValue = true
			}
		case positional == "":
			positional = arg
		default:
			rest = append(rest, arg)
		}
	}
	return positional, rest
}

func trimFlag(arg string) string {
	name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	return name
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: intentd system <action>")
	fmt.Fprintln(w, "Actions: start, watch")
}

func printLinkNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: intentd link <action> <url> [flags]")
	fmt.Fprintln(w, "Actions: open, inspect")
}

func printSessionNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: intentd session <action> [flags]")
	fmt.Fprintln(w, "Actions: login, logout, status")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: intentd config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show, get")
}

func printSystemStartHelp() {
	fmt.Println("Usage: intentd system start [--config PATH]")
	fmt.Println("Start the dispatcher, API and webhook listeners in the foreground.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: intentd system watch [flags]")
	fmt.Println()
	fmt.Println("Live view of links, dispatches and shell commands.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --api-url URL    API URL (default: http://127.0.0.1:8480)")
	fmt.Println("  --api-key KEY    Bearer token with events:ro (default: $INTENTD_API_KEY)")
}

func printLinkOpenHelp() {
	fmt.Println("Usage: intentd link open <url> [--config PATH] [--json]")
	fmt.Println("Run a link through the full pipeline once and print the resulting events.")
}

func printLinkInspectHelp() {
	fmt.Println("Usage: intentd link inspect <url> [--config PATH] [--json]")
	fmt.Println("Normalize, extract and validate a link without dispatching it.")
}

func printSessionLoginHelp() {
	fmt.Println("Usage: intentd session login <handle> [--config PATH]")
	fmt.Println("Start a session for handle, replacing any active one.")
}

func printSessionLogoutHelp() {
	fmt.Println("Usage: intentd session logout [--config PATH]")
	fmt.Println("Revoke the active session.")
}

func printSessionStatusHelp() {
	fmt.Println("Usage: intentd session status [--config PATH] [--json]")
	fmt.Println("Show the active session, if any.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: intentd config check [--config PATH] [--format human|json] [--strict] [--json]")
	fmt.Println("Validate configuration syntax, policy, and integrity.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: intentd config lock [--config PATH] [-v|--verbose] [--dry-run]")
	fmt.Println("Authorize current configuration state by regenerating the integrity hash.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: intentd config show [path] [--config PATH] [--json]")
	fmt.Println("Show the resolved configuration or one node of it. Secrets are redacted.")
}

func printConfigGetHelp() {
	fmt.Println("Usage: intentd config get <path> [--config PATH] [--json]")
	fmt.Println("Read a single value from the resolved configuration.")
}
