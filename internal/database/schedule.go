package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

// ErrInvalidEntry is returned when an entry would break the schedule invariants.
var ErrInvalidEntry = errors.New("invalid schedule entry")

// ScheduleOrder selects the list ordering.
type ScheduleOrder string

const (
	OrderByDayOfWeek ScheduleOrder = "dayOfWeek"
	OrderByStartTime ScheduleOrder = "startTime"
	OrderByCreatedAt ScheduleOrder = "createdAt"
)

var orderClauses = map[ScheduleOrder]string{
	OrderByDayOfWeek: "day_of_week, start_time, id",
	OrderByStartTime: "start_time, day_of_week, id",
	OrderByCreatedAt: "created_at, id",
}

// ScheduleFilter narrows ListScheduleEntries. A nil Active lists every entry.
type ScheduleFilter struct {
	Active  *bool
	OrderBy ScheduleOrder
}

// ScheduleEntryUpdate holds the fields to change; nil fields are kept.
type ScheduleEntryUpdate struct {
	DayOfWeek *int
	StartTime *string
	EndTime   *string
	IsActive  *bool
}

const entryColumns = `id, work_location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

// CreateScheduleEntry stores an active weekly rule. Times may be HH:MM or HH:MM:SS and are stored as HH:MM:SS.
func (db *DB) CreateScheduleEntry(ctx context.Context, locationID int64, dayOfWeek int, startTime, endTime string) (*model.ScheduleEntry, error) {
	start, end, err := normalizeEntry(dayOfWeek, startTime, endTime)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO schedule_entries (work_location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		locationID, dayOfWeek, start, end, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create schedule entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create schedule entry: %w", err)
	}
	return db.GetScheduleEntry(ctx, id)
}

// GetScheduleEntry returns an entry by id.
func (db *DB) GetScheduleEntry(ctx context.Context, id int64) (*model.ScheduleEntry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM schedule_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule entry %d: %w", id, err)
	}
	return e, nil
}

// UpdateScheduleEntry applies a partial update and returns the stored entry.
func (db *DB) UpdateScheduleEntry(ctx context.Context, id int64, upd ScheduleEntryUpdate) (*model.ScheduleEntry, error) {
	current, err := db.GetScheduleEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	day, start, end, active := current.DayOfWeek, current.StartTime, current.EndTime, current.IsActive
	if upd.DayOfWeek != nil {
		day = *upd.DayOfWeek
	}
	if upd.StartTime != nil {
		start = *upd.StartTime
	}
	if upd.EndTime != nil {
		end = *upd.EndTime
	}
	if upd.IsActive != nil {
		active = *upd.IsActive
	}

	start, end, err = normalizeEntry(day, start, end)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE schedule_entries
		SET day_of_week = ?, start_time = ?, end_time = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		day, start, end, active, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule entry %d: %w", id, err)
	}
	return db.GetScheduleEntry(ctx, id)
}

// ListScheduleEntries returns a location's entries.
func (db *DB) ListScheduleEntries(ctx context.Context, locationID int64, filter ScheduleFilter) ([]model.ScheduleEntry, error) {
	order, ok := orderClauses[filter.OrderBy]
	if !ok {
		order = orderClauses[OrderByDayOfWeek]
	}

	query := `SELECT ` + entryColumns + ` FROM schedule_entries WHERE work_location_id = ?`
	args := []any{locationID}
	if filter.Active != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY ` + order

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteScheduleEntry removes an entry permanently.
func (db *DB) DeleteScheduleEntry(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("schedule entry %d: %w", id, ErrNotFound)
	}
	return nil
}

// ToggleDay switches a weekday on or off for a location. Turning a day on
// reactivates its oldest entry (updating its hours when given) or creates one,
// and deactivates any other entry of that day. Turning it off deactivates
// every entry of the day; nothing is deleted. The returned entry is nil when
// a day without entries is turned off.
func (db *DB) ToggleDay(ctx context.Context, locationID int64, dayOfWeek int, active bool, startTime, endTime string) (*model.ScheduleEntry, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidEntry, dayOfWeek)
	}

	var id int64
	err := db.QueryRowContext(ctx, `
		SELECT id FROM schedule_entries
		WHERE work_location_id = ? AND day_of_week = ?
		ORDER BY id LIMIT 1`,
		locationID, dayOfWeek,
	).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find entry for day %d: %w", dayOfWeek, err)
	}
	exists := err == nil
	now := time.Now()

	if !active {
		if _, err := db.ExecContext(ctx, `
			UPDATE schedule_entries SET is_active = 0, updated_at = ?
			WHERE work_location_id = ? AND day_of_week = ?`,
			now, locationID, dayOfWeek,
		); err != nil {
			return nil, fmt.Errorf("deactivate day %d: %w", dayOfWeek, err)
		}
		if !exists {
			return nil, nil
		}
		return db.GetScheduleEntry(ctx, id)
	}

	var entry *model.ScheduleEntry
	if exists {
		upd := ScheduleEntryUpdate{IsActive: &active}
		if startTime != "" {
			upd.StartTime = &startTime
		}
		if endTime != "" {
			upd.EndTime = &endTime
		}
		entry, err = db.UpdateScheduleEntry(ctx, id, upd)
	} else {
		entry, err = db.CreateScheduleEntry(ctx, locationID, dayOfWeek, startTime, endTime)
	}
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE schedule_entries SET is_active = 0, updated_at = ?
		WHERE work_location_id = ? AND day_of_week = ? AND id <> ? AND is_active = 1`,
		now, locationID, dayOfWeek, entry.ID,
	); err != nil {
		return nil, fmt.Errorf("deactivate duplicates for day %d: %w", dayOfWeek, err)
	}
	return entry, nil
}

// ReplaceSchedule swaps a location's entries for entries in one transaction.
func (db *DB) ReplaceSchedule(ctx context.Context, locationID int64, entries []model.ScheduleEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE work_location_id = ?`, locationID); err != nil {
		return fmt.Errorf("clear schedule for location %d: %w", locationID, err)
	}

	now := time.Now()
	for _, e := range entries {
		start, end, err := normalizeEntry(e.DayOfWeek, e.StartTime, e.EndTime)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries (work_location_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			locationID, e.DayOfWeek, start, end, e.IsActive, now, now,
		); err != nil {
			return fmt.Errorf("insert schedule entry for location %d: %w", locationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule for location %d: %w", locationID, err)
	}
	return nil
}

// DaySchedules returns a location's active entries in display form.
func (db *DB) DaySchedules(ctx context.Context, locationID int64) ([]model.DaySchedule, error) {
	active := true
	entries, err := db.ListScheduleEntries(ctx, locationID, ScheduleFilter{Active: &active, OrderBy: OrderByDayOfWeek})
	if err != nil {
		return nil, err
	}
	return schedule.ToDisplayForm(entries), nil
}

func normalizeEntry(dayOfWeek int, startTime, endTime string) (string, string, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return "", "", fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidEntry, dayOfWeek)
	}
	start, err := schedule.NormalizeClock(startTime)
	if err != nil {
		return "", "", fmt.Errorf("%w: start_time: %v", ErrInvalidEntry, err)
	}
	end, err := schedule.NormalizeEndClock(endTime)
	if err != nil {
		return "", "", fmt.Errorf("%w: end_time: %v", ErrInvalidEntry, err)
	}
	if start >= end {
		return "", "", fmt.Errorf("%w: start_time %s must be before end_time %s", ErrInvalidEntry, start, end)
	}
	return start, end, nil
}

func scanEntry(s rowScanner) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	err := s.Scan(&e.ID, &e.WorkLocationID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
