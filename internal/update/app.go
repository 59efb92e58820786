package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"dayflow/internal/views"
)

func (m *Model) initBubbleComponents() {
	m.backlogList = list.New([]list.Item{}, list.NewDefaultDelegate(), 58, 12)
	m.backlogList.Title = "Backlog"
	m.backlogList.SetShowHelp(false)
	m.backlogList.SetFilteringEnabled(false)

	cols := []table.Column{
		{Title: "Change", Width: 8},
		{Title: "Key", Width: 18},
		{Title: "Title", Width: 26},
	}
	m.syncTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(8))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.capacityGauge = progress.New(progress.WithDefaultGradient())
	m.helpModel = help.New()
	m.helpViewport = viewport.New(50, 10)
}

func (m *Model) syncBubbleData() {
	items := make([]list.Item, 0, len(m.Backlog.Items))
	for _, item := range m.Backlog.Items {
		desc := fmt.Sprintf("%dm | %s | %s", item.Minutes, item.Priority, item.Energy)
		items = append(items, listItem{title: item.Title, description: desc})
	}
	m.backlogList.SetItems(items)
	if len(items) > 0 && m.Backlog.Cursor < len(items) {
		m.backlogList.Select(m.Backlog.Cursor)
	}

	rows := make([]table.Row, 0, len(m.Sync.Entries))
	for _, e := range m.Sync.Entries {
		rows = append(rows, table.Row{strings.ToUpper(e.Kind), e.Key, e.Title})
	}
	m.syncTable.SetRows(rows)
	if len(rows) > 0 && m.Sync.Cursor < len(rows) {
		m.syncTable.SetCursor(m.Sync.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	pct := 0.0
	if m.Plan.Capacity.TotalMinutes > 0 {
		pct = float64(m.Plan.Capacity.UsedMinutes) / float64(m.Plan.Capacity.TotalMinutes)
	}
	if pct > 1 {
		pct = 1
	}
	_ = m.capacityGauge.SetPercent(pct)

	if m.HelpVisible {
		m.helpViewport.SetContent(views.RenderMarkdown(helpMarkdown(m.CurrentView)))
	}
}

func (m Model) handlePlanKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		if m.Plan.Cursor > 0 {
			m.Plan.Cursor--
		}
	case "down", "j":
		if m.Plan.Cursor < len(m.Plan.Items)-1 {
			m.Plan.Cursor++
		}
	case "left", "h":
		m.shiftPlanDate(-1)
	case "right", "l":
		m.shiftPlanDate(1)
	case "c":
		if item, ok := m.currentPlanItem(); ok && item.Kind == "task" {
			m.callBackend(func(b Backend) error { return b.ToggleTaskDone(item.ID) },
				fmt.Sprintf("toggled done: %s", item.Title))
			m.reloadPlan()
		}
	case "L":
		if item, ok := m.currentPlanItem(); ok && item.Kind == "task" {
			m.callBackend(func(b Backend) error { return b.ToggleTaskLock(item.ID) },
				fmt.Sprintf("toggled lock: %s", item.Title))
			m.reloadPlan()
		}
	case "x":
		if item, ok := m.currentPlanItem(); ok && item.Kind == "event" {
			m.callBackend(func(b Backend) error { return b.DismissEvent(item.ID) },
				fmt.Sprintf("dismissed: %s", item.Title))
			m.reloadPlan()
		}
	}
	return m
}

func (m *Model) shiftPlanDate(days int) {
	if m.backend == nil || m.Plan.Date == "" {
		return
	}
	next, err := addDays(m.Plan.Date, days)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Plan.Date = next
	m.Plan.Cursor = 0
	m.reloadPlan()
}

func (m Model) currentPlanItem() (PlanItem, bool) {
	if m.Plan.Cursor < 0 || m.Plan.Cursor >= len(m.Plan.Items) {
		return PlanItem{}, false
	}
	return m.Plan.Items[m.Plan.Cursor], true
}

func (m Model) handleBacklogKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		if m.Backlog.Cursor > 0 {
			m.Backlog.Cursor--
		}
	case "down", "j":
		if m.Backlog.Cursor < len(m.Backlog.Items)-1 {
			m.Backlog.Cursor++
		}
	case " ":
		if item, ok := m.currentBacklogItem(); ok {
			m.Backlog.Selected[item.ID] = !m.Backlog.Selected[item.ID]
		}
	case "p":
		m.runAutoSchedule("selected")
	case "P":
		m.runAutoSchedule("backlog")
	}
	return m
}

func (m Model) currentBacklogItem() (BacklogItem, bool) {
	if m.Backlog.Cursor < 0 || m.Backlog.Cursor >= len(m.Backlog.Items) {
		return BacklogItem{}, false
	}
	return m.Backlog.Items[m.Backlog.Cursor], true
}

func (m *Model) runAutoSchedule(scope string) {
	if m.backend == nil {
		m.Status = StatusBar{Text: "no backend configured", IsError: true}
		return
	}
	if scope == "selected" {
		ids := make([]string, 0, len(m.Backlog.Selected))
		for id, on := range m.Backlog.Selected {
			if on {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			m.Status = StatusBar{Text: "no backlog items selected", IsError: true}
			return
		}
		scope = strings.Join(ids, ",")
	}
	summary, err := m.backend.AutoSchedule(scope, m.Plan.Date)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return
	}
	m.Status = StatusBar{Text: summary, IsError: false}
	m.reloadPlan()
	m.reloadBacklog()
}

func (m Model) handleSyncKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Sync.Cursor > 0 {
			m.Sync.Cursor--
		}
	case "down", "j":
		if m.Sync.Cursor < len(m.Sync.Entries)-1 {
			m.Sync.Cursor++
		}
	case " ":
		if m.Sync.Cursor >= 0 && m.Sync.Cursor < len(m.Sync.Entries) {
			m.Sync.Entries[m.Sync.Cursor].Selected = !m.Sync.Entries[m.Sync.Cursor].Selected
		}
	case "A":
		for i := range m.Sync.Entries {
			m.Sync.Entries[i].Selected = true
		}
	case "s":
		return m.startSyncFetch(m.Sync.Source)
	case "a":
		m.applySyncSelection()
	}
	return m, nil
}

func (m Model) startSyncFetch(source string) (Model, tea.Cmd) {
	if m.backend == nil {
		m.Status = StatusBar{Text: "no backend configured", IsError: true}
		return m, nil
	}
	if m.Sync.Running {
		return m, nil
	}
	m.Sync.Running = true
	m.Status = StatusBar{Text: "fetching calendar changes", IsError: false}
	backend := m.backend
	fetch := func() tea.Msg {
		entries, err := backend.SyncDiff(source)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return SetSyncEntriesMsg{Source: source, Entries: entries}
	}
	return m, tea.Batch(m.syncSpinner.Tick, fetch)
}

func (m *Model) applySyncSelection() {
	if m.backend == nil {
		m.Status = StatusBar{Text: "no backend configured", IsError: true}
		return
	}
	selected := make([]SyncEntry, 0, len(m.Sync.Entries))
	for _, e := range m.Sync.Entries {
		if e.Selected {
			selected = append(selected, e)
		}
	}
	if len(selected) == 0 {
		m.Status = StatusBar{Text: "no sync entries selected", IsError: true}
		return
	}
	summary, err := m.backend.ApplySync(m.Sync.Source, selected)
	if err != nil {
		// Entries stay listed so the selection can be retried.
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		if summary != "" {
			m.Sync.LastResult = summary
		}
		return
	}
	if summary != "" {
		m.Sync.LastResult = summary
		m.Status = StatusBar{Text: summary, IsError: false}
	}
	remaining := make([]SyncEntry, 0, len(m.Sync.Entries))
	for _, e := range m.Sync.Entries {
		if !e.Selected {
			remaining = append(remaining, e)
		}
	}
	m.Sync.Entries = remaining
	m.Sync.Cursor = 0
	m.reloadPlan()
}

func (m *Model) callBackend(op func(Backend) error, okMessage string) {
	if m.backend == nil {
		m.Status = StatusBar{Text: "no backend configured", IsError: true}
		return
	}
	if err := op(m.backend); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return
	}
	m.Status = StatusBar{Text: okMessage, IsError: false}
}
