package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	// Drain concurrently so large outputs cannot fill the pipe and block run.
	stdoutCh := make(chan []byte)
	stderrCh := make(chan []byte)
	go func() { b, _ := io.ReadAll(stdoutR); stdoutCh <- b }()
	go func() { b, _ := io.ReadAll(stderrR); stderrCh <- b }()

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes := <-stdoutCh
	stderrBytes := <-stderrCh

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

// writeTestConfig writes a config.yaml whose state lives in dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := "service:\n  log_level: error\n" +
		"state:\n  path: " + filepath.Join(dir, "intentd.db") + "\n" +
		"dispatch:\n  delay: 10ms\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

const composeLink = "bluesky://intent/compose?text=hello%20world"

type openOutput struct {
	Outcome string `json:"outcome"`
	Events  []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	} `json:"events"`
}

func (o openOutput) types() []string {
	out := make([]string, 0, len(o.Events))
	for _, ev := range o.Events {
		out = append(out, ev.Type)
	}
	return out
}

func runOpenJSON(t *testing.T, configPath string) openOutput {
	t.Helper()
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runLinkOpen([]string{composeLink, "--config", configPath, "--json"})
	})
	if code != 0 {
		t.Fatalf("runLinkOpen() code = %d, stderr: %s", code, stderr)
	}
	var out openOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("link open output is not JSON: %v\n%s", err, stdout)
	}
	return out
}

func TestLinkOpenWithoutSessionIsDropped(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out := runOpenJSON(t, configPath)
	if out.Outcome != "dropped" {
		t.Fatalf("outcome = %q, want dropped", out.Outcome)
	}
	want := []string{"link.received", "intent.dropped"}
	if got := out.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestSessionLifecycleGatesLinkOpen(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runSessionNoun([]string{"login", "alice.bsky.social", "--config", configPath})
	})
	if code != 0 {
		t.Fatalf("session login code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "started for alice.bsky.social") {
		t.Fatalf("stdout missing login confirmation: %s", stdout)
	}

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runSessionNoun([]string{"status", "--config", configPath})
	})
	if code != 0 || !strings.Contains(stdout, "handle:  alice.bsky.social") {
		t.Fatalf("session status code = %d, stdout: %s", code, stdout)
	}

	out := runOpenJSON(t, configPath)
	if out.Outcome != "scheduled" {
		t.Fatalf("outcome = %q, want scheduled", out.Outcome)
	}
	got := strings.Join(out.types(), ",")
	for _, typ := range []string{"shell.close_all", "intent.scheduled", "shell.open_composer", "intent.dispatched"} {
		if !strings.Contains(got, typ) {
			t.Fatalf("events %s missing %s", got, typ)
		}
	}
	for _, ev := range out.Events {
		if ev.Type == "shell.open_composer" && !strings.Contains(string(ev.Data), `"text":"hello world"`) {
			t.Fatalf("composer request = %s, want decoded text", ev.Data)
		}
	}

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runSessionNoun([]string{"logout", "--config", configPath})
	})
	if code != 0 || !strings.Contains(stdout, "Revoked 1 session(s)") {
		t.Fatalf("session logout code = %d, stdout: %s", code, stdout)
	}

	if out := runOpenJSON(t, configPath); out.Outcome != "dropped" {
		t.Fatalf("outcome after logout = %q, want dropped", out.Outcome)
	}
}

func TestLinkOpenRejectsParserError(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runLinkOpen([]string{"bluesky://intent/compose%zz", "--config", configPath})
	})
	if code != 1 {
		t.Fatalf("runLinkOpen() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Link rejected") {
		t.Fatalf("stderr missing rejection: %s", stderr)
	}
}

func TestLinkInspect(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	tests := []struct {
		name     string
		link     string
		isIntent bool
		kind     string
	}{
		{"compose", composeLink, true, "compose"},
		{"https link", "https://bsky.app/profile/alice", false, ""},
		{"unknown kind", "bluesky://intent/share?text=x", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := captureOutputWithExitCode(t, func() int {
				return runLinkInspect([]string{tt.link, "--json", "--config", configPath})
			})
			if code != 0 {
				t.Fatalf("runLinkInspect() code = %d, stderr: %s", code, stderr)
			}
			var res linkInspectResult
			if err := json.Unmarshal([]byte(stdout), &res); err != nil {
				t.Fatalf("inspect output is not JSON: %v\n%s", err, stdout)
			}
			if res.IsIntent != tt.isIntent || res.Kind != tt.kind {
				t.Fatalf("inspect = %+v, want is_intent=%v kind=%q", res, tt.isIntent, tt.kind)
			}
		})
	}
}

func TestRunConfigLockVerboseDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir)

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath, "-v", "--dry-run"})
	})
	if code != 0 {
		t.Fatalf("runConfigLock() code = %d, stderr: %s", code, stderr)
	}

	hashPattern := regexp.MustCompile(`HASH config\.yaml: [a-f0-9]{64}`)
	if !hashPattern.MatchString(stdout) {
		t.Fatalf("stdout missing valid hash output: %s", stdout)
	}
	if !strings.Contains(stdout, "Dry run completed") {
		t.Fatalf("stdout missing dry-run summary: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestRunConfigLockThenTamperFailsCheck(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir)

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigLock([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigLock() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Successfully locked configuration") {
		t.Fatalf("stdout missing success summary: %s", stdout)
	}

	code, _, _ = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("config check after lock code = %d, want 0", code)
	}

	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("platform:\n  native_image_attachment: true\n")
	_ = f.Close()

	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 1 {
		t.Fatalf("config check after tamper code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Configuration INVALID") {
		t.Fatalf("stderr missing invalid report: %s", stderr)
	}
}

func TestRunConfigGetRedactsSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configYAML := "state:\n  path: " + filepath.Join(tmpDir, "intentd.db") + "\n" +
		"api:\n  enabled: true\n  auth:\n    api_key: supersecret\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigGet([]string{"api.auth.api_key", "--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigGet() code = %d, stderr: %s", code, stderr)
	}
	if strings.Contains(stdout, "supersecret") || !strings.Contains(stdout, "[redacted]") {
		t.Fatalf("api key not redacted: %s", stdout)
	}

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runConfigGet([]string{"intent.scheme", "--config", configPath})
	})
	if code != 0 || strings.TrimSpace(stdout) != "bluesky" {
		t.Fatalf("intent.scheme = %q (code %d), want bluesky", stdout, code)
	}
}

func TestSplitPositional(t *testing.T) {
	tests := []struct {
		args     []string
		wantPos  string
		wantRest []string
	}{
		{[]string{"url", "--json"}, "url", []string{"--json"}},
		{[]string{"--json", "url"}, "url", []string{"--json"}},
		{[]string{"--config", "c.yaml", "url"}, "url", []string{"--config", "c.yaml"}},
		{[]string{"--config=c.yaml", "url", "--json"}, "url", []string{"--config=c.yaml", "--json"}},
		{[]string{"--json"}, "", []string{"--json"}},
	}

	for _, tt := range tests {
		pos, rest := splitPositional(tt.args, linkFlags)
		if pos != tt.wantPos || !reflect.DeepEqual(rest, tt.wantRest) {
			t.Errorf("splitPositional(%v) = %q, %v; want %q, %v", tt.args, pos, rest, tt.wantPos, tt.wantRest)
		}
	}
}

func TestRunNounActionHelp(t *testing.T) {
	tests := []struct {
		run  func([]string) int
		args []string
		want string
	}{
		{runSystemNoun, []string{"start", "--help"}, "Usage: intentd system start"},
		{runSystemNoun, []string{"watch", "--help"}, "Usage: intentd system watch"},
		{runLinkNoun, []string{"open", "-h"}, "Usage: intentd link open"},
		{runLinkNoun, []string{"inspect", "--help"}, "Usage: intentd link inspect"},
		{runSessionNoun, []string{"login", "--help"}, "Usage: intentd session login"},
		{runConfigNoun, []string{"check", "--help"}, "Usage: intentd config check"},
		{runConfigNoun, []string{"--help"}, "Usage: intentd config <action>"},
	}

	for _, tt := range tests {
		code, stdout, stderr := captureOutputWithExitCode(t, func() int {
			return tt.run(tt.args)
		})
		if code != 0 {
			t.Fatalf("%v code = %d, stderr: %s", tt.args, code, stderr)
		}
		if !strings.Contains(stdout, tt.want) {
			t.Fatalf("%v stdout missing %q: %s", tt.args, tt.want, stdout)
		}
	}
}

func TestPrintUsageUsesActionTerminology(t *testing.T) {
	_, stdout, _ := captureOutputWithExitCode(t, func() int {
		printUsage()
		return 0
	})
	if !strings.Contains(stdout, "intentd <noun> <action> [flags]") {
		t.Fatalf("usage missing action terminology: %s", stdout)
	}
}

func TestUnknownActionFails(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runLinkNoun([]string{"frobnicate"})
	})
	if code != 1 || !strings.Contains(stderr, "Unknown link action") {
		t.Fatalf("code = %d, stderr: %s", code, stderr)
	}
}

func TestRunConfigCheckStrictFailsOnWarnings(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	// The test config has no ingress and a 10ms delay, both warnings.
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath})
	})
	if code != 0 {
		t.Fatalf("runConfigCheck() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "WARN  [ingress]") || !strings.Contains(stdout, "WARN  [dispatch]") {
		t.Fatalf("stdout missing warnings: %s", stdout)
	}

	code, _, _ = captureOutputWithExitCode(t, func() int {
		return runConfigCheck([]string{"--config", configPath, "--strict"})
	})
	if code != 2 {
		t.Fatalf("runConfigCheck(--strict) code = %d, want 2", code)
	}
}
