package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fire/internal/domain"
)

// CreateAssignment records a routing decision. One assignment per
// ticket: a second insert fails on the unique constraint.
func (q *Queries) CreateAssignment(ctx context.Context, a *domain.Assignment) (int64, error) {
	var distance sql.NullFloat64
	if a.DistanceKm != nil {
		distance = sql.NullFloat64{Float64: *a.DistanceKm, Valid: true}
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO assignments (ticket_id, manager_id, office_id, distance_km,
			assignment_reason, fallback_used, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.TicketID, a.ManagerID, a.OfficeID, distance, a.Reason, a.FallbackUsed, a.AssignedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert assignment: %w", err)
	}
	return res.LastInsertId()
}

// GetAssignmentByTicket fetches a ticket's assignment, nil if absent.
func (q *Queries) GetAssignmentByTicket(ctx context.Context, ticketID int64) (*domain.Assignment, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, manager_id, office_id, distance_km, assignment_reason,
			fallback_used, assigned_at
		FROM assignments WHERE ticket_id = ?`, ticketID)

	a, err := scanAssignmentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	return a, nil
}

// ListAssignments returns all assignments ordered by ticket id.
func (q *Queries) ListAssignments(ctx context.Context) ([]domain.Assignment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, ticket_id, manager_id, office_id, distance_km, assignment_reason,
			fallback_used, assigned_at
		FROM assignments ORDER BY ticket_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignmentRow(sc rowScanner) (*domain.Assignment, error) {
	var (
		a        domain.Assignment
		distance sql.NullFloat64
		reason   sql.NullString
	)
	err := sc.Scan(&a.ID, &a.TicketID, &a.ManagerID, &a.OfficeID, &distance,
		&reason, &a.FallbackUsed, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	if distance.Valid {
		d := distance.Float64
		a.DistanceKm = &d
	}
	a.Reason = reason.String
	return &a, nil
}
