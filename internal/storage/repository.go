package storage

import (
	"context"
	"errors"

	"dayflow/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// TaskListFilter narrows ListTasks. Zero value lists everything in
// backlog order.
type TaskListFilter struct {
	ScheduledDate string
	BacklogOnly   bool
	Limit         int
	Offset        int
}

// EventListFilter narrows ListEvents.
type EventListFilter struct {
	Source       string
	ExternalOnly bool
	Limit        int
	Offset       int
}

// Repository is the persistence collaborator the rest of the app talks
// to. The scheduling and sync engines never touch it directly; callers
// feed them in-memory collections read through here.
type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
	BulkUpdateTasks(ctx context.Context, tasks []model.Task) error

	CreateEvent(ctx context.Context, in model.CalendarEvent) error
	GetEvent(ctx context.Context, id string) (model.CalendarEvent, error)
	UpdateEvent(ctx context.Context, in model.CalendarEvent) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventListFilter) ([]model.CalendarEvent, error)

	// Bulk event operations; these also satisfy the sync reconciler's
	// store contract.
	AddEvents(ctx context.Context, events []model.CalendarEvent) error
	UpdateEvents(ctx context.Context, events []model.CalendarEvent) error
	RemoveEvents(ctx context.Context, ids []string) error

	UpsertDailyEnergy(ctx context.Context, in model.DailyEnergy) error
	GetDailyEnergy(ctx context.Context, date string) (model.DailyEnergy, error)
	ListDailyEnergy(ctx context.Context, limit, offset int) ([]model.DailyEnergy, error)
}
