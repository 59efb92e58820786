package planner

import (
	"testing"

	"dayflow/internal/model"
)

func backlogTask(id string, minutes int, prio model.Priority, order int) model.Task {
	return model.Task{
		ID: id, Title: id, DurationMinutes: minutes,
		Priority: prio, Energy: model.EnergyMedium, OrderIndex: order,
	}
}

func TestAutoSchedulePartitionsCandidates(t *testing.T) {
	tasks := []model.Task{
		backlogTask("a", 60, model.PriorityHigh, 0),
		backlogTask("b", 60, model.PriorityLow, 1),
		backlogTask("c", 60, model.PriorityMedium, 2),
	}
	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, tasks, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if got := len(res.Scheduled) + len(res.Unscheduled); got != len(tasks) {
		t.Fatalf("partition size %d, want %d", got, len(tasks))
	}
	seen := make(map[string]int)
	for _, task := range append(res.Scheduled, res.Unscheduled...) {
		seen[task.ID]++
	}
	for _, task := range tasks {
		if seen[task.ID] != 1 {
			t.Fatalf("task %s appears %d times", task.ID, seen[task.ID])
		}
	}
}

func TestAutoScheduleOrdersByPriorityThenEnergyThenIndex(t *testing.T) {
	tasks := []model.Task{
		backlogTask("low", 60, model.PriorityLow, 0),
		backlogTask("high-heavy", 60, model.PriorityHigh, 1),
		backlogTask("high-light", 60, model.PriorityHigh, 2),
	}
	tasks[1].Energy = model.EnergyHigh
	tasks[2].Energy = model.EnergyLow

	// On a low-energy day the light high-priority task fits and goes first.
	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, tasks, nil, model.DailyLow, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	byID := make(map[string]model.Task)
	for _, task := range res.Scheduled {
		byID[task.ID] = task
	}
	if byID["high-light"].ScheduledTime != "09:00" {
		t.Fatalf("high-light at %q, want 09:00", byID["high-light"].ScheduledTime)
	}
	if byID["high-heavy"].ScheduledTime != "10:00" {
		t.Fatalf("high-heavy at %q, want 10:00", byID["high-heavy"].ScheduledTime)
	}
	if byID["low"].ScheduledTime != "11:00" {
		t.Fatalf("low at %q, want 11:00", byID["low"].ScheduledTime)
	}
}

func TestAutoScheduleKeepsLockedTasksInPlace(t *testing.T) {
	locked := scheduledTask("locked", "09:00", 120)
	locked.Locked = true
	tasks := []model.Task{locked, backlogTask("free", 60, model.PriorityMedium, 0)}

	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, tasks, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	for _, task := range res.Scheduled {
		if task.ID == "locked" {
			t.Fatal("locked task must not be rescheduled")
		}
		if task.ID == "free" && task.ScheduledTime != "11:00" {
			t.Fatalf("free task at %q, want 11:00 (after locked block)", task.ScheduledTime)
		}
	}
}

func TestAutoScheduleSelectedLeavesOthersAlone(t *testing.T) {
	anchored := scheduledTask("anchored", "09:00", 60)
	tasks := []model.Task{anchored, backlogTask("target", 30, model.PriorityMedium, 0)}

	res, err := AutoScheduleSelected(testConfig(), testDate, map[string]bool{"target": true}, tasks, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 || res.Scheduled[0].ID != "target" {
		t.Fatalf("expected only target scheduled, got %+v", res.Scheduled)
	}
	if res.Scheduled[0].ScheduledTime != "10:00" {
		t.Fatalf("target at %q, want 10:00", res.Scheduled[0].ScheduledTime)
	}
}

func TestAutoScheduleBacklogDoesNotMoveTimeline(t *testing.T) {
	placed := scheduledTask("placed", "10:00", 60)
	tasks := []model.Task{placed, backlogTask("gap", 60, model.PriorityMedium, 0)}

	res, err := AutoScheduleBacklog(testConfig(), testDate, tasks, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 || res.Scheduled[0].ID != "gap" {
		t.Fatalf("expected only the backlog task scheduled, got %+v", res.Scheduled)
	}
	if res.Scheduled[0].ScheduledTime != "09:00" {
		t.Fatalf("gap at %q, want 09:00", res.Scheduled[0].ScheduledTime)
	}
}

func TestAutoScheduleWindowRestrictedTaskStaysInWindow(t *testing.T) {
	task := backlogTask("am-only", 60, model.PriorityMedium, 0)
	task.Windows = []model.Window{model.WindowMorning}

	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, []model.Task{task}, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 {
		t.Fatalf("expected scheduled, got %+v", res)
	}
	got, err := model.ParseClock(res.Scheduled[0].ScheduledTime)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	if got < 9*60 || got >= 12*60 {
		t.Fatalf("morning-restricted task placed at %s", res.Scheduled[0].ScheduledTime)
	}
}

func TestAutoScheduleEscalatesWindowsThenWholeDay(t *testing.T) {
	// The morning is walled off, so the window constraint cannot hold.
	wall := scheduledTask("wall", "09:00", 180)
	wall.Locked = true
	task := backlogTask("am-only", 60, model.PriorityMedium, 0)
	task.Windows = []model.Window{model.WindowMorning}

	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, []model.Task{wall, task}, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 {
		t.Fatalf("expected escalated placement, got %+v", res)
	}
	if res.Scheduled[0].ScheduledTime != "12:00" {
		t.Fatalf("escalated slot %q, want 12:00", res.Scheduled[0].ScheduledTime)
	}
}

func TestAutoScheduleDefersToNextDayWhenDayIsFull(t *testing.T) {
	wall := scheduledTask("wall", "00:00", 24*60)
	wall.Locked = true
	task := backlogTask("spill", 60, model.PriorityMedium, 0)

	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, []model.Task{wall, task}, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 {
		t.Fatalf("expected next-day placement, got %+v", res)
	}
	if res.Scheduled[0].ScheduledDate != "2026-03-03" {
		t.Fatalf("placed on %q, want 2026-03-03", res.Scheduled[0].ScheduledDate)
	}
}

func TestAutoScheduleReportsUnplaceableTasks(t *testing.T) {
	cfg := testConfig()
	cfg.HorizonDays = 1

	walls := make([]model.Task, 0, 2)
	for i, d := range []string{testDate, "2026-03-03"} {
		wall := model.Task{
			ID: "wall" + string(rune('a'+i)), Title: "wall", DurationMinutes: 24 * 60,
			Priority: model.PriorityMedium, Energy: model.EnergyMedium,
			ScheduledTime: "00:00", ScheduledDate: d, Locked: true,
		}
		walls = append(walls, wall)
	}
	task := backlogTask("doomed", 60, model.PriorityMedium, 0)

	res, err := AutoScheduleAllUnlocked(cfg, testDate, append(walls, task), nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Unscheduled) != 1 || res.Unscheduled[0].ID != "doomed" {
		t.Fatalf("expected doomed unscheduled, got %+v", res.Unscheduled)
	}
	if res.Unscheduled[0].IsScheduled() {
		t.Fatal("unscheduled task must keep its original empty slot")
	}
}

func TestAutoScheduleIgnoresCompletedTasks(t *testing.T) {
	done := scheduledTask("done", "09:00", 60)
	done.Completed = true
	task := backlogTask("next", 60, model.PriorityMedium, 0)

	res, err := AutoScheduleAllUnlocked(testConfig(), testDate, []model.Task{done, task}, nil, model.DailyMedium, dayBefore)
	if err != nil {
		t.Fatalf("auto schedule: %v", err)
	}
	if len(res.Scheduled) != 1 || res.Scheduled[0].ID != "next" {
		t.Fatalf("expected only next scheduled, got %+v", res.Scheduled)
	}
	// A completed task is not an obstacle either.
	if res.Scheduled[0].ScheduledTime != "09:00" {
		t.Fatalf("next at %q, want 09:00", res.Scheduled[0].ScheduledTime)
	}
}
