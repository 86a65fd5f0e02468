package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the counter kept in the single-row table <table>_sequence.
//
// Called with a [sql.Tx], the increment commits or rolls back together with the row that uses it,
// so a failed insert leaves no gap in "plan history" numbering.
func NextSequence(q querier, table string) (int, error) {
	var sequence int
	err := q.QueryRow(fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)).Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence table %s_sequence has no counter row", table)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
