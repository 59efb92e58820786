package views

import (
	"fmt"
	"strings"
)

type PlanItemData struct {
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

type CapacityData struct {
	TotalMinutes     int
	UsedMinutes      int
	AvailableMinutes int
	PercentUsed      int
	Level            string
	Intention        string
	GaugeView        string
}

type PlanPanelData struct {
	Date       string
	Capacity   CapacityData
	Items      []PlanItemData
	SelectedID string
}

type BacklogItemData struct {
	ID       string
	Title    string
	Minutes  int
	Priority string
	Energy   string
	Windows  string
	Selected bool
}

type BacklogPanelData struct {
	ListView   string
	Items      []BacklogItemData
	SelectedID string
}

type SyncEntryData struct {
	Kind     string
	Key      string
	Title    string
	Detail   string
	Selected bool
}

type SyncPanelData struct {
	Source     string
	TableView  string
	Entries    []SyncEntryData
	Cursor     int
	Running    bool
	SpinnerV   string
	LastResult string
}

type HelpPanelData struct {
	CurrentView  string
	Bindings     []string
	HelpView     string
	MarkdownView string
}

func RenderPlanPanel(data PlanPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("plan: %s\n", data.Date))
	b.WriteString(RenderCapacityLine(data.Capacity) + "\n")
	b.WriteString("actions: [j/k]move [c]done [L]lock [x]dismiss [h/l]day\n")
	if len(data.Items) == 0 {
		b.WriteString("(nothing scheduled)")
		return strings.TrimSpace(b.String())
	}
	for _, item := range data.Items {
		cursor := " "
		if data.SelectedID == item.ID {
			cursor = ">"
		}
		mark := " "
		switch {
		case item.Dismissed:
			mark = "~"
		case item.Completed:
			mark = "x"
		case item.Locked:
			mark = "!"
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s %-6s %s (%dm, %s)\n",
			cursor, mark, item.Time, strings.ToUpper(item.Kind), item.Title, item.Minutes, item.Energy))
	}
	return strings.TrimSpace(b.String())
}

func RenderCapacityLine(data CapacityData) string {
	level := data.Level
	if level == "" {
		level = "medium"
	}
	intention := data.Intention
	if intention == "" {
		intention = "balance"
	}
	line := fmt.Sprintf("capacity: %dm used / %dm total, %dm free (%d%%) | energy: %s, %s",
		data.UsedMinutes, data.TotalMinutes, data.AvailableMinutes, data.PercentUsed, level, intention)
	if data.GaugeView != "" {
		line += "\n" + data.GaugeView
	}
	return line
}

func RenderBacklogPanel(data BacklogPanelData) string {
	var b strings.Builder
	b.WriteString("backlog:\n")
	b.WriteString("actions: [j/k]move [space]select [p]plan-selected [P]plan-all\n")
	b.WriteString(data.ListView + "\n")
	if len(data.Items) == 0 {
		b.WriteString("(backlog empty)")
		return strings.TrimSpace(b.String())
	}
	for _, item := range data.Items {
		cursor := " "
		if data.SelectedID == item.ID {
			cursor = ">"
		}
		sel := " "
		if item.Selected {
			sel = "*"
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s (%dm, %s/%s)", cursor, sel, item.Title, item.Minutes, item.Priority, item.Energy))
		if item.Windows != "" {
			b.WriteString(" windows:" + item.Windows)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderSyncPanel(data SyncPanelData) string {
	var b strings.Builder
	b.WriteString("sync review:\n")
	if data.Source != "" {
		b.WriteString(fmt.Sprintf("source: %s\n", data.Source))
	}
	b.WriteString("actions: [s]fetch [space]toggle [A]all [a]apply\n")
	if data.Running {
		b.WriteString("fetching: " + data.SpinnerV + "\n")
	}
	b.WriteString(data.TableView + "\n")

	grouped := map[string][]SyncEntryData{}
	for _, e := range data.Entries {
		grouped[e.Kind] = append(grouped[e.Kind], e)
	}
	for _, kind := range []string{"new", "updated", "deleted"} {
		entries := grouped[kind]
		if len(entries) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s:\n", kind))
		for i, e := range entries {
			cursor := " "
			if globalIndex(data.Entries, kind, i) == data.Cursor {
				cursor = ">"
			}
			sel := " "
			if e.Selected {
				sel = "*"
			}
			b.WriteString(fmt.Sprintf("%s [%s] %s %s", cursor, sel, e.Key, e.Title))
			if e.Detail != "" {
				b.WriteString(" | " + e.Detail)
			}
			b.WriteString("\n")
		}
	}
	if len(data.Entries) == 0 && !data.Running {
		b.WriteString("(no pending changes, press s to fetch)")
	}
	if data.LastResult != "" {
		b.WriteString("\nlast apply: " + data.LastResult)
	}
	return strings.TrimSpace(b.String())
}

func globalIndex(entries []SyncEntryData, kind string, nth int) int {
	seen := 0
	for i, e := range entries {
		if e.Kind != kind {
			continue
		}
		if seen == nth {
			return i
		}
		seen++
	}
	return -1
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString("help:\n")
	b.WriteString(strings.ToLower(data.CurrentView) + " view:\n")
	b.WriteString(strings.Join(data.Bindings, "\n") + "\n")
	if data.HelpView != "" {
		b.WriteString(data.HelpView + "\n")
	}
	if data.MarkdownView != "" {
		b.WriteString(data.MarkdownView)
	}
	return strings.TrimSpace(b.String())
}
