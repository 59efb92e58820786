package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"dayflow/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var teaCmd tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			title, addErr := m.backend.AddTask(a.Title)
			if addErr != nil {
				return commands.Result{}, addErr
			}
			m.CurrentView = ViewBacklog
			m.reloadBacklog()
			return commands.Result{Message: fmt.Sprintf("added to backlog: %s", title)}, nil
		},
		Plan: func(a commands.PlanArgs) (commands.Result, error) {
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			date := a.Date
			if date == "" {
				date = m.Plan.Date
			}
			summary, planErr := m.backend.AutoSchedule(a.Scope, date)
			if planErr != nil {
				return commands.Result{}, planErr
			}
			m.CurrentView = ViewPlan
			m.Plan.Date = date
			m.reloadPlan()
			m.reloadBacklog()
			return commands.Result{Message: summary}, nil
		},
		Sync: func(a commands.SyncArgs) (commands.Result, error) {
			m.CurrentView = ViewSync
			m.Sync.Source = a.Source
			var next Model
			next, teaCmd = m.startSyncFetch(a.Source)
			m = next
			return commands.Result{Message: "sync fetch started"}, nil
		},
		Energy: func(a commands.EnergyArgs) (commands.Result, error) {
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			date := m.Plan.Date
			if date == "" {
				date = m.backend.Today()
			}
			summary, recErr := m.backend.RecordEnergy(date, a.Level, a.Intention, a.Note)
			if recErr != nil {
				return commands.Result{}, recErr
			}
			m.reloadPlan()
			return commands.Result{Message: summary}, nil
		},
		Dismiss: func(a commands.DismissArgs) (commands.Result, error) {
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			if dismissErr := m.backend.DismissEvent(a.EventID); dismissErr != nil {
				return commands.Result{}, dismissErr
			}
			m.reloadPlan()
			return commands.Result{Message: fmt.Sprintf("dismissed event %s", a.EventID)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
	}
	return m, teaCmd
}
