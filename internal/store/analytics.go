package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fire/internal/domain"
)

// CreateAnalysis inserts the AI analysis for a ticket and returns its
// id. One analysis per ticket: a second insert fails on the unique
// constraint.
func (q *Queries) CreateAnalysis(ctx context.Context, a *domain.Analysis) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO ticket_analytics (ticket_id, ticket_type, sentiment, priority_score,
			language, summary, llm_model, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.TicketID, string(a.Type), string(a.Sentiment), a.PriorityScore,
		string(a.Language), a.Summary, a.ModelTag, a.ProcessedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return res.LastInsertId()
}

// GetAnalysisByTicket fetches a ticket's analysis, nil if absent.
func (q *Queries) GetAnalysisByTicket(ctx context.Context, ticketID int64) (*domain.Analysis, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, ticket_type, sentiment, priority_score, language,
			summary, llm_model, processed_at
		FROM ticket_analytics WHERE ticket_id = ?`, ticketID)

	a, err := scanAnalysisRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns all analyses ordered by ticket id.
func (q *Queries) ListAnalyses(ctx context.Context) ([]domain.Analysis, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, ticket_id, ticket_type, sentiment, priority_score, language,
			summary, llm_model, processed_at
		FROM ticket_analytics ORDER BY ticket_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysisRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// AnalyticsSummary aggregates the processed corpus for reporting.
type AnalyticsSummary struct {
	TotalTickets    int            `json:"total_tickets"`
	ProcessedCount  int            `json:"processed_count"`
	AssignedCount   int            `json:"assigned_count"`
	ByType          map[string]int `json:"by_type"`
	BySentiment     map[string]int `json:"by_sentiment"`
	ByLanguage      map[string]int `json:"by_language"`
	AveragePriority float64        `json:"average_priority"`
}

// Summary computes counts by type, sentiment and language plus the
// average priority.
func (q *Queries) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	s := &AnalyticsSummary{
		ByType:      make(map[string]int),
		BySentiment: make(map[string]int),
		ByLanguage:  make(map[string]int),
	}

	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`)
	if err := row.Scan(&s.TotalTickets); err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	row = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticket_analytics`)
	if err := row.Scan(&s.ProcessedCount); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	row = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments`)
	if err := row.Scan(&s.AssignedCount); err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	var avg sql.NullFloat64
	row = q.db.QueryRowContext(ctx, `SELECT AVG(priority_score) FROM ticket_analytics`)
	if err := row.Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average priority: %w", err)
	}
	s.AveragePriority = avg.Float64

	for _, group := range []struct {
		column string
		dest   map[string]int
	}{
		{"ticket_type", s.ByType},
		{"sentiment", s.BySentiment},
		{"language", s.ByLanguage},
	} {
		rows, err := q.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT %s, COUNT(*) FROM ticket_analytics GROUP BY %s`, group.column, group.column))
		if err != nil {
			return nil, fmt.Errorf("failed to group by %s: %w", group.column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s group: %w", group.column, err)
			}
			group.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return s, nil
}

// SegmentCounts groups tickets by client segment.
func (q *Queries) SegmentCounts(ctx context.Context) (map[string]int, error) {
	return q.countGroups(ctx, `SELECT segment, COUNT(*) FROM tickets GROUP BY segment`)
}

// OfficeAssignmentCounts counts assignments per office name.
func (q *Queries) OfficeAssignmentCounts(ctx context.Context) (map[string]int, error) {
	return q.countGroups(ctx, `
		SELECT o.name, COUNT(a.id)
		FROM offices o
		JOIN assignments a ON a.office_id = o.id
		GROUP BY o.name`)
}

// FallbackCount counts assignments made without a resolved address.
func (q *Queries) FallbackCount(ctx context.Context) (int, error) {
	var n int
	row := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments WHERE fallback_used = 1`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fallback assignments: %w", err)
	}
	return n, nil
}

func (q *Queries) countGroups(ctx context.Context, query string) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out[key] = count
	}
	return out, rows.Err()
}

// ManagerLoad is one row of the per-manager workload report.
type ManagerLoad struct {
	ManagerID       int64  `json:"manager_id"`
	Name            string `json:"name"`
	Position        string `json:"position"`
	OfficeName      string `json:"office_name"`
	CurrentLoad     int    `json:"current_load"`
	AssignmentCount int    `json:"assignment_count"`
}

// ManagerLoads reports each manager's configured load and actual
// assignment count, busiest first.
func (q *Queries) ManagerLoads(ctx context.Context) ([]ManagerLoad, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.position, o.name, m.current_load, COUNT(a.id)
		FROM managers m
		JOIN offices o ON o.id = m.office_id
		LEFT JOIN assignments a ON a.manager_id = m.id
		GROUP BY m.id, m.name, m.position, o.name, m.current_load
		ORDER BY m.current_load DESC, m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manager loads: %w", err)
	}
	defer rows.Close()

	var out []ManagerLoad
	for rows.Next() {
		var ml ManagerLoad
		if err := rows.Scan(&ml.ManagerID, &ml.Name, &ml.Position, &ml.OfficeName,
			&ml.CurrentLoad, &ml.AssignmentCount); err != nil {
			return nil, fmt.Errorf("failed to scan manager load: %w", err)
		}
		out = append(out, ml)
	}
	return out, rows.Err()
}

func scanAnalysisRow(sc rowScanner) (*domain.Analysis, error) {
	var (
		a          domain.Analysis
		ticketType string
		sentiment  string
		language   string
		model      sql.NullString
	)
	err := sc.Scan(&a.ID, &a.TicketID, &ticketType, &sentiment, &a.PriorityScore,
		&language, &a.Summary, &model, &a.ProcessedAt)
	if err != nil {
		return nil, err
	}
	a.Type = domain.ParseTicketType(ticketType)
	a.Sentiment = domain.ParseSentiment(sentiment)
	a.Language = domain.ParseLanguage(language)
	a.ModelTag = model.String
	return &a, nil
}
