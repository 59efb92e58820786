package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"dayflow/internal/views"
)

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.syncBubbleData()

	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Plan:
			m.CurrentView = ViewPlan
			m.reloadPlan()
			return m, nil
		case m.Keys.Backlog:
			m.CurrentView = ViewBacklog
			m.reloadBacklog()
			return m, nil
		case m.Keys.Sync:
			m.CurrentView = ViewSync
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewPlan:
			return m.handlePlanKey(typed), nil
		case ViewBacklog:
			return m.handleBacklogKey(typed), nil
		case ViewSync:
			return m.handleSyncKey(typed)
		}
	case spinner.TickMsg:
		if m.Sync.Running {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		m.Sync.Running = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case SetPlanMsg:
		m.Plan = typed.Plan
		return m, nil
	case SetBacklogMsg:
		m.Backlog.Items = typed.Items
		m.Backlog.Cursor = 0
		return m, nil
	case SetSyncEntriesMsg:
		m.Sync.Running = false
		m.Sync.Source = typed.Source
		m.Sync.Entries = typed.Entries
		m.Sync.Cursor = 0
		if len(typed.Entries) == 0 {
			m.Status = StatusBar{Text: "calendar up to date", IsError: false}
		} else {
			m.Status = StatusBar{Text: fmt.Sprintf("%d pending change(s)", len(typed.Entries)), IsError: false}
		}
		return m, nil
	case SyncAppliedMsg:
		m.Sync.LastResult = typed.Summary
		m.Status = StatusBar{Text: typed.Summary, IsError: false}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewPlan:
		leftPane = m.renderPlanView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewBacklog:
		leftPane = m.renderBacklogView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewSync:
		leftPane = m.renderSyncView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	}

	header := fmt.Sprintf("dayflow | view: %s", m.CurrentView)
	if m.Plan.Date != "" {
		header += " | date: " + m.Plan.Date
	}

	return views.RenderApp(views.AppData{
		Header:      header,
		LeftPane:    leftPane,
		RightPane:   rightPane,
		StatusLine:  statusLine(m.Status),
		StatusError: m.Status.IsError,
		Footer: fmt.Sprintf("keys: %s plan | %s backlog | %s sync | / cmd | %s help | %s quit",
			m.Keys.Plan, m.Keys.Backlog, m.Keys.Sync, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderPlanView() string {
	items := make([]views.PlanItemData, 0, len(m.Plan.Items))
	selectedID := ""
	if item, ok := m.currentPlanItem(); ok {
		selectedID = item.ID
	}
	for _, item := range m.Plan.Items {
		items = append(items, views.PlanItemData{
			ID:        item.ID,
			Title:     item.Title,
			Time:      item.Time,
			Minutes:   item.Minutes,
			Kind:      item.Kind,
			Energy:    item.Energy,
			Locked:    item.Locked,
			Completed: item.Completed,
			Dismissed: item.Dismissed,
		})
	}
	return views.RenderPlanPanel(views.PlanPanelData{
		Date: m.Plan.Date,
		Capacity: views.CapacityData{
			TotalMinutes:     m.Plan.Capacity.TotalMinutes,
			UsedMinutes:      m.Plan.Capacity.UsedMinutes,
			AvailableMinutes: m.Plan.Capacity.AvailableMinutes,
			PercentUsed:      m.Plan.Capacity.PercentUsed,
			Level:            string(m.Plan.Capacity.Level),
			Intention:        string(m.Plan.Capacity.Intention),
			GaugeView:        m.capacityGauge.View(),
		},
		Items:      items,
		SelectedID: selectedID,
	})
}

func (m Model) renderBacklogView() string {
	items := make([]views.BacklogItemData, 0, len(m.Backlog.Items))
	selectedID := ""
	if item, ok := m.currentBacklogItem(); ok {
		selectedID = item.ID
	}
	for _, item := range m.Backlog.Items {
		items = append(items, views.BacklogItemData{
			ID:       item.ID,
			Title:    item.Title,
			Minutes:  item.Minutes,
			Priority: item.Priority,
			Energy:   item.Energy,
			Windows:  item.Windows,
			Selected: m.Backlog.Selected[item.ID],
		})
	}
	return views.RenderBacklogPanel(views.BacklogPanelData{
		ListView:   m.backlogList.View(),
		Items:      items,
		SelectedID: selectedID,
	})
}

func (m Model) renderSyncView() string {
	entries := make([]views.SyncEntryData, 0, len(m.Sync.Entries))
	for _, e := range m.Sync.Entries {
		entries = append(entries, views.SyncEntryData{
			Kind:     e.Kind,
			Key:      e.Key,
			Title:    e.Title,
			Detail:   e.Detail,
			Selected: e.Selected,
		})
	}
	return views.RenderSyncPanel(views.SyncPanelData{
		Source:     m.Sync.Source,
		TableView:  m.syncTable.View(),
		Entries:    entries,
		Cursor:     m.Sync.Cursor,
		Running:    m.Sync.Running,
		SpinnerV:   m.syncSpinner.View(),
		LastResult: m.Sync.LastResult,
	})
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func statusLine(s StatusBar) string {
	if s.Text == "" {
		return ""
	}
	if s.IsError {
		return "status: error: " + s.Text
	}
	return "status: " + s.Text
}

func isKnownView(v View) bool {
	switch v {
	case ViewPlan, ViewBacklog, ViewSync:
		return true
	default:
		return false
	}
}
