package update

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"dayflow/internal/model"
)

type fakeBackend struct {
	plan       PlanState
	backlog    []BacklogItem
	syncOut    []SyncEntry
	syncErr    error
	applyErr   error
	applied    []SyncEntry
	dismissed  []string
	done       []string
	locked     []string
	added      []string
	scheduled  []string
	energySet  []string
	planErr    error
	applyCount int
}

func (f *fakeBackend) LoadPlan(date string) (PlanState, error) {
	if f.planErr != nil {
		return PlanState{}, f.planErr
	}
	plan := f.plan
	plan.Date = date
	return plan, nil
}

func (f *fakeBackend) LoadBacklog() ([]BacklogItem, error) { return f.backlog, nil }

func (f *fakeBackend) AddTask(title string) (string, error) {
	f.added = append(f.added, title)
	f.backlog = append(f.backlog, BacklogItem{ID: "new", Title: title, Minutes: 30})
	return title, nil
}

func (f *fakeBackend) AutoSchedule(scope, date string) (string, error) {
	f.scheduled = append(f.scheduled, scope+"@"+date)
	return "scheduled 1 task(s)", nil
}

func (f *fakeBackend) RecordEnergy(date string, level model.DailyLevel, intention model.Intention, note string) (string, error) {
	f.energySet = append(f.energySet, date+"="+string(level))
	return "energy recorded", nil
}

func (f *fakeBackend) SyncDiff(source string) ([]SyncEntry, error) {
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.syncOut, nil
}

func (f *fakeBackend) ApplySync(source string, entries []SyncEntry) (string, error) {
	f.applyCount++
	if f.applyErr != nil {
		return "", f.applyErr
	}
	f.applied = append(f.applied, entries...)
	return "applied changes", nil
}

func (f *fakeBackend) DismissEvent(id string) error {
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakeBackend) ToggleTaskDone(id string) error {
	f.done = append(f.done, id)
	return nil
}

func (f *fakeBackend) ToggleTaskLock(id string) error {
	f.locked = append(f.locked, id)
	return nil
}

func (f *fakeBackend) Today() string { return "2026-03-02" }

func testBackend() *fakeBackend {
	return &fakeBackend{
		plan: PlanState{
			Items: []PlanItem{
				{ID: "t1", Title: "Deep work", Time: "09:00", Minutes: 90, Kind: "task", Energy: "high"},
				{ID: "e1", Title: "Standup", Time: "11:00", Minutes: 15, Kind: "event", Energy: "low"},
			},
			Capacity: CapacityInfo{TotalMinutes: 780, UsedMinutes: 105, AvailableMinutes: 675, PercentUsed: 13,
				Level: model.DailyMedium, Intention: model.IntentionBalance},
		},
		backlog: []BacklogItem{
			{ID: "b1", Title: "Write report", Minutes: 60, Priority: "high", Energy: "medium"},
			{ID: "b2", Title: "Email sweep", Minutes: 20, Priority: "low", Energy: "low"},
		},
	}
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel()
	if m.CurrentView != ViewPlan {
		t.Fatalf("expected default view %q, got %q", ViewPlan, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
}

func TestNewModelWithBackendLoadsInitialState(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	if m.Plan.Date != "2026-03-02" {
		t.Fatalf("expected today's plan date, got %q", m.Plan.Date)
	}
	if len(m.Plan.Items) != 2 || len(m.Backlog.Items) != 2 {
		t.Fatalf("initial load incomplete: plan=%d backlog=%d", len(m.Plan.Items), len(m.Backlog.Items))
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	next := updated.(Model)
	if next.CurrentView != ViewBacklog {
		t.Fatalf("expected backlog view, got %q", next.CurrentView)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	next = updated.(Model)
	if next.CurrentView != ViewSync {
		t.Fatalf("expected sync view, got %q", next.CurrentView)
	}
}

func TestPlanKeysActOnCursorItem(t *testing.T) {
	backend := testBackend()
	m := NewModelWithBackend(backend)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	next := updated.(Model)
	if len(backend.done) != 1 || backend.done[0] != "t1" {
		t.Fatalf("expected done toggle for t1, got %v", backend.done)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if len(backend.dismissed) != 1 || backend.dismissed[0] != "e1" {
		t.Fatalf("expected dismissal of e1, got %v", backend.dismissed)
	}
	_ = updated
}

func TestDismissIgnoresTasks(t *testing.T) {
	backend := testBackend()
	m := NewModelWithBackend(backend)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if len(backend.dismissed) != 0 {
		t.Fatalf("dismiss must not apply to tasks: %v", backend.dismissed)
	}
}

func TestPlanDateNavigation(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	next := updated.(Model)
	if next.Plan.Date != "2026-03-03" {
		t.Fatalf("expected next day, got %q", next.Plan.Date)
	}
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	next = updated.(Model)
	if next.Plan.Date != "2026-03-02" {
		t.Fatalf("expected previous day, got %q", next.Plan.Date)
	}
}

func TestBacklogSelectAndSchedule(t *testing.T) {
	backend := testBackend()
	m := NewModelWithBackend(backend)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	next := updated.(Model)

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeySpace})
	next = updated.(Model)
	if !next.Backlog.Selected["b1"] {
		t.Fatalf("expected b1 selected: %+v", next.Backlog.Selected)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	next = updated.(Model)
	if len(backend.scheduled) != 1 || !strings.HasPrefix(backend.scheduled[0], "b1@") {
		t.Fatalf("expected schedule call for b1, got %v", backend.scheduled)
	}
	if next.Status.IsError {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}
}

func TestScheduleSelectedWithoutSelectionErrors(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	next := updated.(Model)

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	next = updated.(Model)
	if !next.Status.IsError {
		t.Fatalf("expected error status, got %+v", next.Status)
	}
}

func TestSyncFetchAndApply(t *testing.T) {
	backend := testBackend()
	backend.syncOut = []SyncEntry{
		{Kind: "new", Key: "E1", Title: "Offsite"},
		{Kind: "deleted", Key: "E2", Title: "Cancelled 1:1"},
	}
	m := NewModelWithBackend(backend)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	next := updated.(Model)

	updated, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	next = updated.(Model)
	if !next.Sync.Running {
		t.Fatal("expected sync fetch running")
	}
	if cmd == nil {
		t.Fatal("expected fetch command")
	}

	updated, _ = next.Update(SetSyncEntriesMsg{Entries: backend.syncOut})
	next = updated.(Model)
	if next.Sync.Running {
		t.Fatal("expected fetch finished")
	}
	if len(next.Sync.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(next.Sync.Entries))
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeySpace})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	next = updated.(Model)
	if backend.applyCount != 1 || len(backend.applied) != 1 || backend.applied[0].Key != "E1" {
		t.Fatalf("expected apply of E1 only, got %+v", backend.applied)
	}
	if len(next.Sync.Entries) != 1 || next.Sync.Entries[0].Key != "E2" {
		t.Fatalf("expected E2 to remain pending, got %+v", next.Sync.Entries)
	}
}

func TestSyncApplyErrorKeepsEntries(t *testing.T) {
	backend := testBackend()
	backend.applyErr = errors.New("events table locked")
	m := NewModelWithBackend(backend)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	next := updated.(Model)

	entries := []SyncEntry{
		{Kind: "new", Key: "E1", Title: "Offsite"},
		{Kind: "updated", Key: "E2", Title: "Moved 1:1"},
	}
	updated, _ = next.Update(SetSyncEntriesMsg{Entries: entries})
	next = updated.(Model)

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'A'}})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	next = updated.(Model)

	if backend.applyCount != 1 {
		t.Fatalf("expected one apply attempt, got %d", backend.applyCount)
	}
	if !next.Status.IsError {
		t.Fatalf("expected error status, got %+v", next.Status)
	}
	if len(next.Sync.Entries) != 2 {
		t.Fatalf("expected entries kept for retry, got %+v", next.Sync.Entries)
	}

	backend.applyErr = nil
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	next = updated.(Model)
	if len(backend.applied) != 2 || len(next.Sync.Entries) != 0 {
		t.Fatalf("retry failed: applied=%+v remaining=%+v", backend.applied, next.Sync.Entries)
	}
}

func TestSyncFetchErrorSurfaces(t *testing.T) {
	backend := testBackend()
	backend.syncErr = errors.New("feed unreachable")
	m := NewModelWithBackend(backend)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	next := updated.(Model)

	updated, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	next = updated.(Model)
	if cmd == nil {
		t.Fatal("expected fetch command")
	}

	updated, _ = next.Update(AppErrorMsg{Err: backend.syncErr})
	next = updated.(Model)
	if next.Sync.Running || !next.Status.IsError {
		t.Fatalf("expected surfaced error, got %+v", next.Status)
	}
}

func TestPaletteCommandAddsTask(t *testing.T) {
	backend := testBackend()
	m := NewModelWithBackend(backend)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next := updated.(Model)
	if !next.Palette.Active {
		t.Fatal("expected palette active")
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("add water the plants")})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)

	if len(backend.added) != 1 || backend.added[0] != "water the plants" {
		t.Fatalf("expected added task, got %v", backend.added)
	}
	if next.CurrentView != ViewBacklog {
		t.Fatalf("expected switch to backlog, got %q", next.CurrentView)
	}
	if next.Palette.Active {
		t.Fatal("expected palette closed after execute")
	}
}

func TestPaletteEnergyCommand(t *testing.T) {
	backend := testBackend()
	m := NewModelWithBackend(backend)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next := updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("energy low intent:recovery")})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)

	if len(backend.energySet) != 1 || backend.energySet[0] != "2026-03-02=low" {
		t.Fatalf("expected energy record, got %v", backend.energySet)
	}
	if next.Status.IsError {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}
}

func TestPaletteBadCommandSetsErrorStatus(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next := updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("frobnicate")})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)
	if !next.Status.IsError {
		t.Fatalf("expected error status, got %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m := NewModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m := NewModelWithBackend(testBackend())
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	if !strings.Contains(out, "view: Plan") {
		t.Fatalf("expected view text in output: %q", out)
	}
	if !strings.Contains(out, "2026-03-02") {
		t.Fatalf("expected plan date in output: %q", out)
	}
	if !strings.Contains(out, "status: all good") {
		t.Fatalf("expected status in output: %q", out)
	}
}
