package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vetagenda/internal/model"
)

const locationColumns = `id, vet_id, name, street, number, district, city, state, zip_code, is_active, created_at, updated_at`

// UpsertLocation inserts or updates a location by id, preserving created_at.
func (db *DB) UpsertLocation(ctx context.Context, loc *model.WorkLocation) error {
	if loc == nil {
		return fmt.Errorf("location is nil")
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO work_locations (id, vet_id, name, street, number, district, city, state, zip_code, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT created_at FROM work_locations WHERE id = ?), ?), ?)
		ON CONFLICT(id) DO UPDATE SET
			vet_id = excluded.vet_id,
			name = excluded.name,
			street = excluded.street,
			number = excluded.number,
			district = excluded.district,
			city = excluded.city,
			state = excluded.state,
			zip_code = excluded.zip_code,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		loc.ID, loc.VetID, loc.Name, loc.Street, loc.Number, loc.District, loc.City, loc.State, loc.ZipCode,
		loc.IsActive, loc.ID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert location %d: %w", loc.ID, err)
	}
	return nil
}

// GetLocation returns a location by id.
func (db *DB) GetLocation(ctx context.Context, id int64) (*model.WorkLocation, error) {
	row := db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM work_locations WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get location %d: %w", id, err)
	}
	return loc, nil
}

// ListActiveLocations returns active locations ordered by id.
func (db *DB) ListActiveLocations(ctx context.Context) ([]model.WorkLocation, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+locationColumns+` FROM work_locations WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []model.WorkLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

// DeactivateLocation marks a location inactive. Its schedule is kept.
func (db *DB) DeactivateLocation(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE work_locations SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("deactivate location %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(s rowScanner) (*model.WorkLocation, error) {
	var l model.WorkLocation
	err := s.Scan(
		&l.ID, &l.VetID, &l.Name, &l.Street, &l.Number, &l.District, &l.City, &l.State, &l.ZipCode,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
