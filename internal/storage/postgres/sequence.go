package postgres

import (
	"context"
	"database/sql"
)

// Sequence allocates reference numbers from the doctorate_reference_seq
// table. Inside a unit of work the increment rolls back with the command.
type Sequence struct {
	conn
}

func NewSequence(db *sql.DB) *Sequence {
	return &Sequence{conn: conn{db: db}}
}

func (s *Sequence) Next(ctx context.Context, scope string) (int64, error) {
	query := `
		INSERT INTO doctorate_reference_seq (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = doctorate_reference_seq.value + 1
		RETURNING value
	`
	var n int64
	if err := s.execer(ctx).QueryRowContext(ctx, query, scope).Scan(&n); err != nil {
		return 0, translate(err, "next reference")
	}
	return n, nil
}
