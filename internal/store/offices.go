package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fire/internal/domain"
)

// CreateOffice inserts an office and returns its id.
func (q *Queries) CreateOffice(ctx context.Context, o *domain.Office) (int64, error) {
	lat, lon := locationColumns(o.Location)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO offices (name, address, latitude, longitude) VALUES (?, ?, ?, ?)`,
		o.Name, o.Address, lat, lon)
	if err != nil {
		return 0, fmt.Errorf("failed to insert office: %w", err)
	}
	return res.LastInsertId()
}

// GetOfficeByID fetches one office, nil if absent.
func (q *Queries) GetOfficeByID(ctx context.Context, id int64) (*domain.Office, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, address, latitude, longitude FROM offices WHERE id = ?`, id)
	return scanOffice(row)
}

// GetOfficeByName fetches an office by its unique name, nil if absent.
func (q *Queries) GetOfficeByName(ctx context.Context, name string) (*domain.Office, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, address, latitude, longitude FROM offices WHERE name = ?`, name)
	return scanOffice(row)
}

// ListOffices returns all offices ordered by id.
func (q *Queries) ListOffices(ctx context.Context) ([]domain.Office, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude FROM offices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	defer rows.Close()

	var out []domain.Office
	for rows.Next() {
		o, err := scanOfficeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan office: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListOfficesWithoutLocation returns offices whose coordinates are
// still unresolved.
func (q *Queries) ListOfficesWithoutLocation(ctx context.Context) ([]domain.Office, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude FROM offices
		WHERE latitude IS NULL OR longitude IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocated offices: %w", err)
	}
	defer rows.Close()

	var out []domain.Office
	for rows.Next() {
		o, err := scanOfficeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan office: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateOfficeLocation sets the office coordinates.
func (q *Queries) UpdateOfficeLocation(ctx context.Context, id int64, point *domain.GeoPoint) error {
	lat, lon := locationColumns(point)
	_, err := q.db.ExecContext(ctx, `
		UPDATE offices SET latitude = ?, longitude = ? WHERE id = ?`, lat, lon, id)
	if err != nil {
		return fmt.Errorf("failed to update office location: %w", err)
	}
	return nil
}

func scanOfficeRow(sc rowScanner) (*domain.Office, error) {
	var (
		o        domain.Office
		lat, lon sql.NullFloat64
	)
	if err := sc.Scan(&o.ID, &o.Name, &o.Address, &lat, &lon); err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		o.Location = &domain.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &o, nil
}

func scanOffice(row *sql.Row) (*domain.Office, error) {
	o, err := scanOfficeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan office: %w", err)
	}
	return o, nil
}
