package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"dayflow/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
		MarkdownView: m.helpViewport.View(),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Plan, Action: "switch to Plan"},
		{Key: m.Keys.Backlog, Action: "switch to Backlog"},
		{Key: m.Keys.Sync, Action: "switch to Sync"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewPlan:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "h/l", Action: "previous/next day"},
			{Key: "c", Action: "toggle task done"},
			{Key: "L", Action: "lock/unlock task"},
			{Key: "x", Action: "dismiss event"},
		}
	case ViewBacklog:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "space", Action: "toggle select"},
			{Key: "p", Action: "auto-schedule selected"},
			{Key: "P", Action: "auto-schedule backlog"},
		}
	case ViewSync:
		return []KeyBinding{
			{Key: "s", Action: "fetch calendar changes"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "space", Action: "toggle entry"},
			{Key: "A", Action: "select all entries"},
			{Key: "a", Action: "apply selection"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}

func helpMarkdown(v View) string {
	switch v {
	case ViewSync:
		return "# Sync review\n\nFetched changes are grouped into **new**, **updated**, and " +
			"**deleted**. Only selected entries are applied; the rest stay pending."
	case ViewBacklog:
		return "# Backlog\n\nAuto-scheduling places selected tasks by priority, then energy " +
			"fit, then order. Tasks that fit nowhere inside the horizon stay in the backlog."
	default:
		return "# Plan\n\nThe timeline shows scheduled tasks and calendar events for one day. " +
			"Capacity reflects the recorded energy level and intention."
	}
}
