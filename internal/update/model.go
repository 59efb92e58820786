// Package update holds the bubbletea model and message loop for the
// interactive planner.
package update

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"dayflow/internal/model"
)

type View string

const (
	ViewPlan    View = "Plan"
	ViewBacklog View = "Backlog"
	ViewSync    View = "Sync"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Plan    string
	Backlog string
	Sync    string
	Help    string
	Quit    string
}

// PlanItem is one row on the day timeline, either a scheduled task or
// a calendar event.
type PlanItem struct {
	ID        string
	Title     string
	Time      string
	Minutes   int
	Kind      string
	Energy    string
	Locked    bool
	Completed bool
	Dismissed bool
}

type PlanState struct {
	Date     string
	Items    []PlanItem
	Capacity CapacityInfo
	Cursor   int
}

type CapacityInfo struct {
	TotalMinutes     int
	UsedMinutes      int
	AvailableMinutes int
	PercentUsed      int
	Level            model.DailyLevel
	Intention        model.Intention
}

type BacklogItem struct {
	ID       string
	Title    string
	Minutes  int
	Priority string
	Energy   string
	Windows  string
}

type BacklogState struct {
	Items    []BacklogItem
	Cursor   int
	Selected map[string]bool
}

// SyncEntry is one pending calendar change awaiting review.
type SyncEntry struct {
	Kind     string
	Key      string
	Title    string
	Detail   string
	Selected bool
}

type SyncState struct {
	Source     string
	Entries    []SyncEntry
	Cursor     int
	Running    bool
	LastResult string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Backend is the seam between the message loop and the scheduling and
// persistence layers. A nil backend leaves the UI browsable with
// whatever state it already holds.
type Backend interface {
	LoadPlan(date string) (PlanState, error)
	LoadBacklog() ([]BacklogItem, error)
	AddTask(title string) (string, error)
	AutoSchedule(scope, date string) (string, error)
	RecordEnergy(date string, level model.DailyLevel, intention model.Intention, note string) (string, error)
	SyncDiff(source string) ([]SyncEntry, error)
	ApplySync(source string, entries []SyncEntry) (string, error)
	DismissEvent(id string) error
	ToggleTaskDone(id string) error
	ToggleTaskLock(id string) error
	Today() string
}

type Model struct {
	CurrentView View
	Plan        PlanState
	Backlog     BacklogState
	Sync        SyncState
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	backend     Backend

	backlogList   list.Model
	syncTable     table.Model
	commandInput  textinput.Model
	syncSpinner   spinner.Model
	capacityGauge progress.Model
	helpModel     help.Model
	helpViewport  viewport.Model
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type SetPlanMsg struct {
	Plan PlanState
}

type SetBacklogMsg struct {
	Items []BacklogItem
}

type SetSyncEntriesMsg struct {
	Source  string
	Entries []SyncEntry
}

type SyncAppliedMsg struct {
	Summary string
}

func NewModel() Model {
	m := Model{
		CurrentView: ViewPlan,
		Backlog: BacklogState{
			Selected: make(map[string]bool),
		},
		Keys: GlobalKeyMap{
			Plan:    "1",
			Backlog: "2",
			Sync:    "3",
			Help:    "?",
			Quit:    "q",
		},
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func NewModelWithBackend(backend Backend) Model {
	m := NewModel()
	m.backend = backend
	if backend != nil {
		m.Plan.Date = backend.Today()
		m.reloadPlan()
		m.reloadBacklog()
	}
	m.syncBubbleData()
	return m
}

func (m *Model) reloadPlan() {
	if m.backend == nil {
		return
	}
	plan, err := m.backend.LoadPlan(m.Plan.Date)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return
	}
	if plan.Cursor == 0 && m.Plan.Cursor < len(plan.Items) {
		plan.Cursor = m.Plan.Cursor
	}
	m.Plan = plan
}

func (m *Model) reloadBacklog() {
	if m.backend == nil {
		return
	}
	items, err := m.backend.LoadBacklog()
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return
	}
	m.Backlog.Items = items
	if m.Backlog.Cursor >= len(items) {
		m.Backlog.Cursor = 0
	}
	for id := range m.Backlog.Selected {
		found := false
		for _, item := range items {
			if item.ID == id {
				found = true
				break
			}
		}
		if !found {
			delete(m.Backlog.Selected, id)
		}
	}
}
