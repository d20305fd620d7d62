package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/intentd/internal/events"
)

// HealthState tracks daemon health from /healthz polling and the event stream.
type HealthState struct {
	Status        string
	UptimeSeconds int64
	Connected     bool
	LastCheck     time.Time
}

// SessionState mirrors the daemon's session.
type SessionState struct {
	Known  bool
	Active bool
	Handle string
}

// activityDots is how many dots the activity meter shows.
const activityDots = 5

// activityLevel maps time since the last event to lit dots; one dot fades
// every two seconds.
func activityLevel(lastEvent, now time.Time) int {
	if lastEvent.IsZero() {
		return 0
	}
	lit := activityDots - int(now.Sub(lastEvent)/(2*time.Second))
	if lit < 0 {
		return 0
	}
	if lit > activityDots {
		return activityDots
	}
	return lit
}

func renderActivity(level int, theme Theme) string {
	var b strings.Builder
	for i := 0; i < activityDots; i++ {
		if i < level {
			b.WriteString(theme.ActivityOn.Render("●"))
		} else {
			b.WriteString(theme.ActivityOff.Render("○"))
		}
	}
	return b.String()
}

func renderHeader(health HealthState, sess SessionState, lastEvent, now time.Time, theme Theme, width int) string {
	innerWidth := width - 4

	statusText := theme.StatusOK.Render("HEALTHY")
	if !health.Connected {
		statusText = theme.StatusFailed.Render("CONNECTING")
	} else if health.Status != "ok" && health.Status != "" {
		statusText = theme.StatusFailed.Render("DEGRADED")
	}

	sessionText := theme.Dim.Render("unknown")
	switch {
	case sess.Known && sess.Active:
		sessionText = theme.StatusOK.Render("signed in as " + sess.Handle)
	case sess.Known:
		sessionText = theme.StatusDropped.Render("signed out (intents are dropped)")
	}

	lastEventStr := "never"
	if !lastEvent.IsZero() {
		lastEventStr = fmt.Sprintf("%s ago", now.Sub(lastEvent).Round(time.Second))
	}

	clock := theme.Dim.Render(now.Format("15:04:05"))
	titleText := " INTENTD WATCH"
	pad := innerWidth - lipgloss.Width(titleText) - lipgloss.Width(clock) - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	statsLine := fmt.Sprintf(" %s  ⏱ %s  Session: %s",
		statusText,
		formatDuration(time.Duration(health.UptimeSeconds)*time.Second),
		sessionText,
	)
	activityLine := fmt.Sprintf(" Last event: %s %s",
		lastEventStr,
		renderActivity(activityLevel(lastEvent, now), theme),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine, activityLine)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func updateSessionState(s *SessionState, e events.Event) {
	var d struct {
		Active bool   `json:"active"`
		Handle string `json:"handle"`
	}
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return
	}
	*s = SessionState{Known: true, Active: d.Active, Handle: d.Handle}
}
