package postgres

import (
	"context"
	"encoding/json"
	"time"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/repository"
)

type historyRepository struct {
	db DBTX
}

func NewHistoryRepository(db DBTX) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	changed, err := json.Marshal(entry.ChangedFields)
	if err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	query := `INSERT INTO registration_history (competition_id, user_id, created_at, changed_fields, actor_type, actor_id, action)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		entry.CompetitionID, entry.UserID, entry.Timestamp, changed, entry.ActorType, entry.ActorID, entry.ActionLabel).
		Scan(&entry.ID)
}

func (r *historyRepository) ListByRegistration(ctx context.Context, competitionID string, userID int32) ([]domain.HistoryEntry, error) {
	query := `SELECT id, competition_id, user_id, created_at, changed_fields, actor_type, actor_id, action
	          FROM registration_history WHERE competition_id = $1 AND user_id = $2 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, competitionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var changed []byte
		if err := rows.Scan(&entry.ID, &entry.CompetitionID, &entry.UserID, &entry.Timestamp, &changed,
			&entry.ActorType, &entry.ActorID, &entry.ActionLabel); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changed, &entry.ChangedFields); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
