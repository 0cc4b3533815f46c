package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetCounter returns the current counter for a pool key, zero when
// the key has never advanced.
func (q *Queries) GetCounter(ctx context.Context, rrKey string) (int64, error) {
	var counter int64
	row := q.db.QueryRowContext(ctx, `
		SELECT counter FROM round_robin_state WHERE rr_key = ?`, rrKey)
	if err := row.Scan(&counter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}
	return counter, nil
}

// AdvanceCounter atomically increments the counter for a pool key and
// returns the value BEFORE the increment. The single upsert statement
// makes concurrent advances race-free: every caller observes a
// distinct value.
func (q *Queries) AdvanceCounter(ctx context.Context, rrKey string) (int64, error) {
	var before int64
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO round_robin_state (rr_key, counter, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(rr_key) DO UPDATE SET
			counter = counter + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING counter - 1`, rrKey)
	if err := row.Scan(&before); err != nil {
		return 0, fmt.Errorf("failed to advance counter: %w", err)
	}
	return before, nil
}
