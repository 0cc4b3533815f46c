package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fire/internal/domain"
)

const ticketColumns = `id, guid, gender, birth_date, description, attachments, segment,
	country, region, city, street, building, client_lat, client_lon, geo_status, created_at`

// CreateTicket inserts a ticket and returns its id.
func (q *Queries) CreateTicket(ctx context.Context, t *domain.Ticket) (int64, error) {
	var birthDate sql.NullTime
	if t.BirthDate != nil {
		birthDate = sql.NullTime{Time: *t.BirthDate, Valid: true}
	}
	lat, lon := locationColumns(t.Location)

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO tickets (guid, gender, birth_date, description, attachments, segment,
			country, region, city, street, building, client_lat, client_lon, geo_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.GUID, t.Gender, birthDate, t.Description, t.Attachments, string(t.Segment),
		t.Country, t.Region, t.City, t.Street, t.Building, lat, lon, string(t.GeoStatus))
	if err != nil {
		return 0, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return res.LastInsertId()
}

// GetTicketByID fetches one ticket, nil if absent.
func (q *Queries) GetTicketByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	return scanTicket(row)
}

// GetTicketByGUID fetches a ticket by its external identifier, nil if
// absent.
func (q *Queries) GetTicketByGUID(ctx context.Context, guid string) (*domain.Ticket, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE guid = ?`, guid)
	return scanTicket(row)
}

// ListTickets returns all tickets ordered by id.
func (q *Queries) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListUnprocessedTickets returns tickets that have no analysis yet,
// in arrival order. A stored analysis marks the ticket as processed:
// spam terminates there, and everything else gets its assignment in
// the same pipeline run.
func (q *Queries) ListUnprocessedTickets(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+prefixedTicketColumns+`
		FROM tickets t
		LEFT JOIN ticket_analytics an ON an.ticket_id = t.id
		WHERE an.id IS NULL
		ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// UpdateTicketGeo records the outcome of address resolution.
func (q *Queries) UpdateTicketGeo(ctx context.Context, id int64, point *domain.GeoPoint, status domain.GeoStatus) error {
	lat, lon := locationColumns(point)
	_, err := q.db.ExecContext(ctx, `
		UPDATE tickets SET client_lat = ?, client_lon = ?, geo_status = ? WHERE id = ?`,
		lat, lon, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update ticket geo: %w", err)
	}
	return nil
}

const prefixedTicketColumns = `t.id, t.guid, t.gender, t.birth_date, t.description, t.attachments, t.segment,
	t.country, t.region, t.city, t.street, t.building, t.client_lat, t.client_lon, t.geo_status, t.created_at`

func locationColumns(p *domain.GeoPoint) (lat, lon sql.NullFloat64) {
	if p != nil {
		lat = sql.NullFloat64{Float64: p.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: p.Longitude, Valid: true}
	}
	return lat, lon
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(sc rowScanner) (*domain.Ticket, error) {
	var (
		t         domain.Ticket
		gender    sql.NullString
		birthDate sql.NullTime
		desc      sql.NullString
		attach    sql.NullString
		segment   string
		country   sql.NullString
		region    sql.NullString
		city      sql.NullString
		street    sql.NullString
		building  sql.NullString
		lat, lon  sql.NullFloat64
		geoStatus string
	)
	err := sc.Scan(&t.ID, &t.GUID, &gender, &birthDate, &desc, &attach, &segment,
		&country, &region, &city, &street, &building, &lat, &lon, &geoStatus, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Gender = gender.String
	if birthDate.Valid {
		bd := birthDate.Time
		t.BirthDate = &bd
	}
	t.Description = desc.String
	t.Attachments = attach.String
	t.Segment = domain.ParseSegment(segment)
	t.Country = country.String
	t.Region = region.String
	t.City = city.String
	t.Street = street.String
	t.Building = building.String
	if lat.Valid && lon.Valid {
		t.Location = &domain.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	t.GeoStatus = domain.GeoStatus(geoStatus)
	return &t, nil
}

func scanTicket(row *sql.Row) (*domain.Ticket, error) {
	t, err := scanTicketRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	return t, nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicketRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
