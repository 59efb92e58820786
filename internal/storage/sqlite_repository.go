package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dayflow/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, completed, scheduled_time, scheduled_date, duration_minutes, priority, energy, motivation, windows, locked, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, boolInt(in.Completed), nullString(in.ScheduledTime), nullString(in.ScheduledDate),
		in.DurationMinutes, string(in.Priority), string(in.Energy), string(in.Motivation),
		joinWindows(in.Windows), boolInt(in.Locked), in.OrderIndex,
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, completed = ?, scheduled_time = ?, scheduled_date = ?, duration_minutes = ?, priority = ?, energy = ?, motivation = ?, windows = ?, locked = ?, order_index = ?
		WHERE id = ?`,
		in.Title, boolInt(in.Completed), nullString(in.ScheduledTime), nullString(in.ScheduledDate),
		in.DurationMinutes, string(in.Priority), string(in.Energy), string(in.Motivation),
		joinWindows(in.Windows), boolInt(in.Locked), in.OrderIndex, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

const taskSelect = `SELECT id, title, completed, scheduled_time, scheduled_date, duration_minutes, priority, energy, motivation, windows, locked, order_index FROM tasks`

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := taskSelect
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.ScheduledDate != "" {
		clauses = append(clauses, "scheduled_date = ?")
		args = append(args, filter.ScheduledDate)
	}
	if filter.BacklogOnly {
		clauses = append(clauses, "scheduled_date IS NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY order_index ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// BulkUpdateTasks writes a batch of task updates in one transaction, the
// usual follow-up to an auto-schedule pass.
func (r *SQLiteRepository) BulkUpdateTasks(ctx context.Context, tasks []model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, in := range tasks {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, completed = ?, scheduled_time = ?, scheduled_date = ?, duration_minutes = ?, priority = ?, energy = ?, motivation = ?, windows = ?, locked = ?, order_index = ?
			WHERE id = ?`,
			in.Title, boolInt(in.Completed), nullString(in.ScheduledTime), nullString(in.ScheduledDate),
			in.DurationMinutes, string(in.Priority), string(in.Energy), string(in.Motivation),
			joinWindows(in.Windows), boolInt(in.Locked), in.OrderIndex, in.ID,
		)
		if execErr == nil {
			execErr = checkRowsAffected(res)
		}
		if execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update task %s: %w", in.ID, execErr)
		}
	}
	return tx.Commit()
}

const eventSelect = `SELECT id, title, start_at, end_at, external, external_id, source, location, energy, energy_drain, dismissed FROM events`

func (r *SQLiteRepository) CreateEvent(ctx context.Context, in model.CalendarEvent) error {
	if in.ID == "" {
		in.ID = NewID()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, title, start_at, end_at, external, external_id, source, location, energy, energy_drain, dismissed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, mustTime(in.Start), mustTime(in.End), boolInt(in.External),
		in.ExternalID, in.Source, in.Location, string(in.Energy), nullInt(in.EnergyDrain), boolInt(in.Dismissed),
	)
	return err
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (model.CalendarEvent, error) {
	row := r.db.QueryRowContext(ctx, eventSelect+` WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CalendarEvent{}, ErrNotFound
		}
		return model.CalendarEvent{}, err
	}
	return ev, nil
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, in model.CalendarEvent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, start_at = ?, end_at = ?, external = ?, external_id = ?, source = ?, location = ?, energy = ?, energy_drain = ?, dismissed = ?
		WHERE id = ?`,
		in.Title, mustTime(in.Start), mustTime(in.End), boolInt(in.External),
		in.ExternalID, in.Source, in.Location, string(in.Energy), nullInt(in.EnergyDrain), boolInt(in.Dismissed), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, filter EventListFilter) ([]model.CalendarEvent, error) {
	query := eventSelect
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.ExternalOnly {
		clauses = append(clauses, "external = 1")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CalendarEvent, 0)
	for rows.Next() {
		ev, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddEvents(ctx context.Context, events []model.CalendarEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, in := range events {
		if in.ID == "" {
			in.ID = NewID()
		}
		if _, execErr := tx.ExecContext(ctx, `
			INSERT INTO events (id, title, start_at, end_at, external, external_id, source, location, energy, energy_drain, dismissed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.Title, mustTime(in.Start), mustTime(in.End), boolInt(in.External),
			in.ExternalID, in.Source, in.Location, string(in.Energy), nullInt(in.EnergyDrain), boolInt(in.Dismissed),
		); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("add event %s: %w", in.ExternalID, execErr)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) UpdateEvents(ctx context.Context, events []model.CalendarEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, in := range events {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE events
			SET title = ?, start_at = ?, end_at = ?, external = ?, external_id = ?, source = ?, location = ?, energy = ?, energy_drain = ?, dismissed = ?
			WHERE id = ?`,
			in.Title, mustTime(in.Start), mustTime(in.End), boolInt(in.External),
			in.ExternalID, in.Source, in.Location, string(in.Energy), nullInt(in.EnergyDrain), boolInt(in.Dismissed), in.ID,
		)
		if execErr == nil {
			execErr = checkRowsAffected(res)
		}
		if execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update event %s: %w", in.ID, execErr)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) RemoveEvents(ctx context.Context, ids []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, execErr := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("remove event %s: %w", id, execErr)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) UpsertDailyEnergy(ctx context.Context, in model.DailyEnergy) error {
	if in.Intention == "" {
		in.Intention = model.IntentionBalance
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_energy (date, level, intention, note)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET level = excluded.level, intention = excluded.intention, note = excluded.note`,
		in.Date, string(in.Level), string(in.Intention), in.Note,
	)
	return err
}

func (r *SQLiteRepository) GetDailyEnergy(ctx context.Context, date string) (model.DailyEnergy, error) {
	row := r.db.QueryRowContext(ctx, `SELECT date, level, intention, note FROM daily_energy WHERE date = ?`, date)
	var out model.DailyEnergy
	var level, intention string
	if err := row.Scan(&out.Date, &level, &intention, &out.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DailyEnergy{}, ErrNotFound
		}
		return model.DailyEnergy{}, err
	}
	out.Level = model.DailyLevel(level)
	out.Intention = model.Intention(intention)
	return out, nil
}

func (r *SQLiteRepository) ListDailyEnergy(ctx context.Context, limit, offset int) ([]model.DailyEnergy, error) {
	args := make([]any, 0, 2)
	query := `SELECT date, level, intention, note FROM daily_energy ORDER BY date DESC` + applyPagination(&args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DailyEnergy, 0)
	for rows.Next() {
		var item model.DailyEnergy
		var level, intention string
		if scanErr := rows.Scan(&item.Date, &level, &intention, &item.Note); scanErr != nil {
			return nil, scanErr
		}
		item.Level = model.DailyLevel(level)
		item.Intention = model.Intention(intention)
		out = append(out, item)
	}
	return out, rows.Err()
}

// NewID returns a random hex identifier for tasks and events.
func NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("storage: read random id: %v", err))
	}
	return hex.EncodeToString(buf)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func joinWindows(windows []model.Window) string {
	if len(windows) == 0 {
		return ""
	}
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, string(w))
	}
	return strings.Join(parts, ",")
}

func splitWindows(v string) []model.Window {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]model.Window, 0, len(parts))
	for _, p := range parts {
		out = append(out, model.Window(p))
	}
	return out
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var completed, locked int
	var scheduledTime, scheduledDate sql.NullString
	var priority, energyLevel, motivation, windows string
	if err := s.Scan(&out.ID, &out.Title, &completed, &scheduledTime, &scheduledDate, &out.DurationMinutes, &priority, &energyLevel, &motivation, &windows, &locked, &out.OrderIndex); err != nil {
		return model.Task{}, err
	}
	out.Completed = completed == 1
	out.Locked = locked == 1
	out.ScheduledTime = scheduledTime.String
	out.ScheduledDate = scheduledDate.String
	out.Priority = model.Priority(priority)
	out.Energy = model.EnergyLevel(energyLevel)
	out.Motivation = model.Motivation(motivation)
	out.Windows = splitWindows(windows)
	return out, nil
}

func scanEvent(s scanner) (model.CalendarEvent, error) {
	var out model.CalendarEvent
	var start, end, energyLevel string
	var external, dismissed int
	var drain sql.NullInt64
	if err := s.Scan(&out.ID, &out.Title, &start, &end, &external, &out.ExternalID, &out.Source, &out.Location, &energyLevel, &drain, &dismissed); err != nil {
		return model.CalendarEvent{}, err
	}
	startAt, err := time.Parse(sqliteTimeLayout, start)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	endAt, err := time.Parse(sqliteTimeLayout, end)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	out.Start = startAt
	out.End = endAt
	out.External = external == 1
	out.Dismissed = dismissed == 1
	out.Energy = model.EventEnergy(energyLevel)
	if drain.Valid {
		v := int(drain.Int64)
		out.EnergyDrain = &v
	}
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
