package postgres

import (
	"context"
	"database/sql"

	"compreg-backend/internal/repository"
)

type counterRepository struct {
	db DBTX
}

func NewCounterRepository(db DBTX) repository.CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) AcceptedCount(ctx context.Context, competitionID string) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx,
		`SELECT accepted_count FROM competition_counters WHERE competition_id = $1`,
		competitionID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *counterRepository) Increment(ctx context.Context, competitionID string) error {
	query := `INSERT INTO competition_counters (competition_id, accepted_count) VALUES ($1, 1)
	          ON CONFLICT (competition_id) DO UPDATE SET accepted_count = competition_counters.accepted_count + 1`
	_, err := r.db.ExecContext(ctx, query, competitionID)
	return err
}

func (r *counterRepository) Decrement(ctx context.Context, competitionID string) error {
	query := `UPDATE competition_counters SET accepted_count = GREATEST(accepted_count - 1, 0) WHERE competition_id = $1`
	_, err := r.db.ExecContext(ctx, query, competitionID)
	return err
}
