package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fire/internal/domain"
)

// Skills persist as a comma-separated list of codes.

// CreateManager inserts a manager and returns its id.
func (q *Queries) CreateManager(ctx context.Context, m *domain.Manager) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO managers (name, position, office_id, skills, current_load)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, string(m.Position), m.OfficeID, strings.Join(m.Skills.List(), ","), m.CurrentLoad)
	if err != nil {
		return 0, fmt.Errorf("failed to insert manager: %w", err)
	}
	return res.LastInsertId()
}

// GetManagerByID fetches one manager, nil if absent.
func (q *Queries) GetManagerByID(ctx context.Context, id int64) (*domain.Manager, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, position, office_id, skills, current_load FROM managers WHERE id = ?`, id)
	return scanManager(row)
}

// GetManagerByName fetches a manager by exact name, nil if absent.
func (q *Queries) GetManagerByName(ctx context.Context, name string) (*domain.Manager, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, position, office_id, skills, current_load FROM managers WHERE name = ?`, name)
	return scanManager(row)
}

// ListManagers returns all managers ordered by id.
func (q *Queries) ListManagers(ctx context.Context) ([]domain.Manager, error) {
	return q.listManagers(ctx, `
		SELECT id, name, position, office_id, skills, current_load FROM managers ORDER BY id`)
}

// ListManagersByOffice returns the managers of one office ordered by
// id.
func (q *Queries) ListManagersByOffice(ctx context.Context, officeID int64) ([]domain.Manager, error) {
	return q.listManagers(ctx, `
		SELECT id, name, position, office_id, skills, current_load FROM managers
		WHERE office_id = ? ORDER BY id`, officeID)
}

// IncrementManagerLoad bumps current_load by one.
func (q *Queries) IncrementManagerLoad(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE managers SET current_load = current_load + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment manager load: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("manager %d not found", id)
	}
	return nil
}

func (q *Queries) listManagers(ctx context.Context, query string, args ...any) ([]domain.Manager, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	var out []domain.Manager
	for rows.Next() {
		m, err := scanManagerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanManagerRow(sc rowScanner) (*domain.Manager, error) {
	var (
		m        domain.Manager
		position string
		skills   string
	)
	if err := sc.Scan(&m.ID, &m.Name, &position, &m.OfficeID, &skills, &m.CurrentLoad); err != nil {
		return nil, err
	}
	m.Position = domain.ParsePosition(position)
	if skills == "" {
		m.Skills = domain.NewSkillSet()
	} else {
		m.Skills = domain.NewSkillSet(strings.Split(skills, ",")...)
	}
	return &m, nil
}

func scanManager(row *sql.Row) (*domain.Manager, error) {
	m, err := scanManagerRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan manager: %w", err)
	}
	return m, nil
}
