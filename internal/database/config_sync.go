package database

import (
	"context"
	"fmt"
	"time"

	"vetagenda/internal/config"
	"vetagenda/internal/model"
)

// SyncLocationsFromConfig applies locations.yaml to the database.
// It upserts locations, replaces their weekly schedules, and marks missing locations inactive.
func (db *DB) SyncLocationsFromConfig(ctx context.Context, cfg *config.LocationsConfig) error {
	if cfg == nil {
		return fmt.Errorf("locations config is nil")
	}

	seen := make(map[int64]struct{})
	for _, loc := range cfg.Locations {
		err := db.UpsertLocation(ctx, &model.WorkLocation{
			ID:       loc.ID,
			VetID:    loc.VetID,
			Name:     loc.Name,
			Street:   loc.Street,
			Number:   loc.Number,
			District: loc.District,
			City:     loc.City,
			State:    loc.State,
			ZipCode:  loc.ZipCode,
			IsActive: loc.IsActive,
		})
		if err != nil {
			return err
		}
		seen[loc.ID] = struct{}{}

		if err := db.ReplaceSchedule(ctx, loc.ID, loc.ScheduleEntries()); err != nil {
			return fmt.Errorf("sync location %d schedule: %w", loc.ID, err)
		}
	}

	// Deactivate locations that disappeared from config.
	rows, err := db.QueryContext(ctx, `SELECT id FROM work_locations WHERE is_active = 1`)
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now()
	for _, id := range stale {
		if _, err := db.ExecContext(ctx, `UPDATE work_locations SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("deactivate location %d: %w", id, err)
		}
	}

	return nil
}
