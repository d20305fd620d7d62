package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/mattjoyce/intentd/internal/events"
)

// Stage is how far a link got through the pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageNoIntent   Stage = "no intent"
	StageDropped    Stage = "dropped"
	StageScheduled  Stage = "scheduled"
	StageDispatched Stage = "dispatched"
	StageFailed     Stage = "failed"
)

// LinkState is the watch view of one incoming link.
type LinkState struct {
	ID       string
	Link     string
	Kind     string
	Stage    Stage
	Detail   string
	Received time.Time
	Updated  time.Time
}

// maxTrackedLinks bounds how many links are kept in the table.
const maxTrackedLinks = 50

type linkEventData struct {
	LinkID  string `json:"link_id"`
	Link    string `json:"link"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Trigger string `json:"trigger"`
	Error   string `json:"error"`
	DelayMS int64  `json:"delay_ms"`

	TeardownTimeoutMS int64 `json:"teardown_timeout_ms"`
}

// updateLinkState folds a hub event into links. Non-link events are ignored.
func updateLinkState(links map[string]*LinkState, e events.Event) {
	var d linkEventData
	if err := json.Unmarshal(e.Data, &d); err != nil || d.LinkID == "" {
		return
	}

	ls, ok := links[d.LinkID]
	if !ok {
		if e.Type != events.TypeLinkReceived && !isIntentEvent(e.Type) {
			return
		}
		ls = &LinkState{ID: d.LinkID, Stage: StageReceived, Received: e.At}
		links[d.LinkID] = ls
		pruneLinks(links)
	}
	ls.Updated = e.At
	if d.Kind != "" {
		ls.Kind = d.Kind
	}

	switch e.Type {
	case events.TypeLinkReceived:
		ls.Link = d.Link
	case events.TypeIntentNone:
		ls.Stage = StageNoIntent
	case events.TypeIntentDropped:
		ls.Stage = StageDropped
		ls.Detail = d.Reason
	case events.TypeIntentScheduled:
		ls.Stage = StageScheduled
		if d.Trigger == "teardown" {
			ls.Detail = fmt.Sprintf("after teardown (max %dms)", d.TeardownTimeoutMS)
		} else {
			ls.Detail = fmt.Sprintf("in %dms", d.DelayMS)
		}
	case events.TypeIntentDispatched:
		ls.Stage = StageDispatched
		ls.Detail = d.Trigger
		if d.Error != "" {
			ls.Stage = StageFailed
			ls.Detail = d.Error
		}
	}
}

func isIntentEvent(t string) bool {
	switch t {
	case events.TypeIntentNone, events.TypeIntentDropped, events.TypeIntentScheduled, events.TypeIntentDispatched:
		return true
	}
	return false
}

func pruneLinks(links map[string]*LinkState) {
	for len(links) > maxTrackedLinks {
		var oldest *LinkState
		for _, ls := range links {
			if oldest == nil || ls.Received.Before(oldest.Received) {
				oldest = ls
			}
		}
		delete(links, oldest.ID)
	}
}

// sortedLinks returns links newest first.
func sortedLinks(links map[string]*LinkState) []*LinkState {
	out := make([]*LinkState, 0, len(links))
	for _, ls := range links {
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Received.Equal(out[j].Received) {
			return out[i].ID > out[j].ID
		}
		return out[i].Received.After(out[j].Received)
	})
	return out
}

func newLinkTable(theme Theme) table.Model {
	t := table.New(
		table.WithColumns(linkColumns(80)),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = theme.TableHeader
	s.Selected = theme.TableSelected
	t.SetStyles(s)
	return t
}

func linkColumns(width int) []table.Column {
	linkWidth := width - 2 - 8 - 12 - 10 - 24 - 10
	if linkWidth < 12 {
		linkWidth = 12
	}
	return []table.Column{
		{Title: "ST", Width: 2},
		{Title: "ID", Width: 8},
		{Title: "Stage", Width: 12},
		{Title: "Kind", Width: 10},
		{Title: "Detail", Width: 24},
		{Title: "Link", Width: linkWidth},
	}
}

func linkRows(links map[string]*LinkState, theme Theme) []table.Row {
	sorted := sortedLinks(links)
	rows := make([]table.Row, 0, len(sorted))
	for _, ls := range sorted {
		id := ls.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, table.Row{
			stageSymbol(ls.Stage, theme),
			id,
			string(ls.Stage),
			ls.Kind,
			ls.Detail,
			ls.Link,
		})
	}
	return rows
}

func stageSymbol(s Stage, theme Theme) string {
	switch s {
	case StageScheduled:
		return theme.StatusRunning.Render("◉")
	case StageDispatched:
		return theme.StatusOK.Render("●")
	case StageFailed:
		return theme.StatusFailed.Render("∅")
	case StageDropped:
		return theme.StatusDropped.Render("◌")
	default:
		return theme.Dim.Render("○")
	}
}
