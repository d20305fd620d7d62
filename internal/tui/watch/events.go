package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/shell"
)

// ShellState is the last command each shell capability received.
type ShellState struct {
	CloseAlls    int
	LastComposer *shell.ComposerRequest
}

func updateShellState(s *ShellState, e events.Event) {
	switch e.Type {
	case events.TypeShellCloseAll:
		s.CloseAlls++
	case events.TypeShellOpenCompose:
		var req shell.ComposerRequest
		if err := json.Unmarshal(e.Data, &req); err == nil {
			s.LastComposer = &req
		}
	}
}

func renderShell(s ShellState, theme Theme, width int) string {
	innerWidth := width - 4

	composer := theme.Dim.Render("  no composer opened yet")
	if c := s.LastComposer; c != nil {
		text := theme.Dim.Render("(no text)")
		if c.Text != nil {
			text = truncate(*c.Text, innerWidth-30)
		}
		composer = fmt.Sprintf("  composer: %s  images: %d", text, len(c.ImageURIs))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("SHELL"),
		fmt.Sprintf("  close-all sent: %d", s.CloseAlls),
		composer,
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch {
	case e.Type == events.TypeIntentDispatched:
		typeStyle = theme.StatusOK
	case e.Type == events.TypeIntentScheduled:
		typeStyle = theme.StatusRunning
	case e.Type == events.TypeIntentDropped:
		typeStyle = theme.StatusDropped
	case strings.HasPrefix(e.Type, "shell."):
		typeStyle = theme.Highlight
	default:
		typeStyle = theme.Dim
	}

	return fmt.Sprintf("%s %s %s", ts, typeStyle.Render(fmt.Sprintf("%-20s", e.Type)), extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string
	if id, ok := data["link_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}
	for _, key := range []string{"kind", "reason", "trigger", "error", "handle"} {
		if v, ok := data[key].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}

	if len(parts) == 0 {
		return truncate(string(e.Data), 60)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
