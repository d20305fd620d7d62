package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/intentd/internal/events"
)

// maxEventLog bounds the event stream kept for the viewport.
const maxEventLog = 200

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	// State
	health    HealthState
	session   SessionState
	links     map[string]*LinkState
	shell     ShellState
	eventLog  []events.Event
	lastID    int64
	lastEvent time.Time
	now       time.Time

	// Widgets
	table    table.Model
	viewport viewport.Model
	theme    Theme

	// Communication
	hubEvents chan events.Event

	// Error display
	lastError string
}

// New creates a new watch TUI model for the API at apiURL.
func New(apiURL, apiKey string) *Model {
	theme := NewDefaultTheme()
	return &Model{
		apiURL:    strings.TrimRight(apiURL, "/"),
		apiKey:    apiKey,
		links:     make(map[string]*LinkState),
		hubEvents: make(chan events.Event, 100),
		table:     newLinkTable(theme),
		viewport:  viewport.New(80, 8),
		theme:     theme,
		now:       time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL) },
		func() tea.Msg { return fetchSession(m.apiURL, m.apiKey) },
		tick(),
		tea.EnterAltScreen,
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case eventMsg:
		m.applyEvent(events.Event(msg))
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})

	case sessionMsg:
		m.session = SessionState{Known: true, Active: msg.Active, Handle: msg.Handle}

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		// The pending receiveNextEvent keeps reading the same channel, so the
		// new subscription feeds it.
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.lastID, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})
	}

	return m, nil
}

// applyEvent folds one hub event into every panel.
func (m *Model) applyEvent(e events.Event) {
	if e.ID > m.lastID {
		m.lastID = e.ID
	}
	m.lastEvent = e.At
	m.health.Connected = true
	m.lastError = ""

	m.eventLog = append(m.eventLog, e)
	if len(m.eventLog) > maxEventLog {
		m.eventLog = m.eventLog[len(m.eventLog)-maxEventLog:]
	}

	updateLinkState(m.links, e)
	updateShellState(&m.shell, e)
	if e.Type == events.TypeSessionChanged {
		updateSessionState(&m.session, e)
	}

	m.table.SetRows(linkRows(m.links, m.theme))
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	lines := make([]string, len(m.eventLog))
	for i, e := range m.eventLog {
		lines[i] = formatEvent(e, m.theme)
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize() {
	inner := m.width - 6
	if inner < 20 {
		inner = 20
	}
	m.table.SetColumns(linkColumns(inner))
	m.table.SetWidth(inner)

	// header (5) + shell (5) + table border/title (4) + help (1) + margins (2)
	free := m.height - 17
	if free < 6 {
		free = 6
	}
	m.table.SetHeight(free / 2)
	m.viewport.Width = inner
	m.viewport.Height = free - free/2
	m.refreshViewport()
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing intentd watch..."
	}

	innerWidth := m.width - 4
	header := renderHeader(m.health, m.session, m.lastEvent, m.now, m.theme, m.width)

	linksPanel := m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("LINKS"),
		m.table.View(),
	))
	shellPanel := renderShell(m.shell, m.theme, m.width)

	stream := m.theme.Dim.Render("  Waiting for events...")
	if len(m.eventLog) > 0 {
		stream = m.viewport.View()
	}
	streamPanel := m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("EVENT STREAM"),
		stream,
	))

	parts := []string{header, linksPanel, shellPanel, streamPanel}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError)))
	}
	parts = append(parts, lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [↑/↓] Links • [PgUp/PgDn] Events"))

	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
