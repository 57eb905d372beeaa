package postgres

import (
	"context"
	"database/sql"

	"compreg-backend/internal/repository"
)

type waitingListRepository struct {
	db DBTX
}

func NewWaitingListRepository(db DBTX) repository.WaitingListRepository {
	return &waitingListRepository{db: db}
}

func (r *waitingListRepository) Entries(ctx context.Context, competitionID string) ([]int32, error) {
	query := `SELECT user_id FROM waiting_list_entries WHERE competition_id = $1 ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// Append inserts at the tail. A competitor re-entering the list never regains
// a prior position; if they are already present the insert is a no-op.
func (r *waitingListRepository) Append(ctx context.Context, competitionID string, userID int32) error {
	query := `INSERT INTO waiting_list_entries (competition_id, user_id, position)
	          SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM waiting_list_entries WHERE competition_id = $1
	          ON CONFLICT (competition_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, competitionID, userID)
	return err
}

// Remove deletes the entry and shifts everything behind it up by one within a
// single transaction, so readers never observe a gap. The shift relies on the
// deferred position uniqueness constraint; rows pass through each other's
// positions until commit.
func (r *waitingListRepository) Remove(ctx context.Context, competitionID string, userID int32) error {
	return inTx(ctx, r.db, func(q DBTX) error {
		var position int
		err := q.QueryRowContext(ctx,
			`DELETE FROM waiting_list_entries WHERE competition_id = $1 AND user_id = $2 RETURNING position`,
			competitionID, userID).Scan(&position)
		if err == sql.ErrNoRows {
			// Removing a non-member is a no-op.
			return nil
		}
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`UPDATE waiting_list_entries SET position = position - 1 WHERE competition_id = $1 AND position > $2`,
			competitionID, position)
		return err
	})
}

// MoveTo repositions an entry, clamping the target into [1, N] and shifting
// the entries in between by one. Like Remove, the shift collides with the
// moved entry's position until the deferred constraint check at commit.
func (r *waitingListRepository) MoveTo(ctx context.Context, competitionID string, userID int32, position int) error {
	return inTx(ctx, r.db, func(q DBTX) error {
		var current, size int
		err := q.QueryRowContext(ctx,
			`SELECT position, (SELECT COUNT(*) FROM waiting_list_entries WHERE competition_id = $1)
			 FROM waiting_list_entries WHERE competition_id = $1 AND user_id = $2`,
			competitionID, userID).Scan(&current, &size)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		if position < 1 {
			position = 1
		}
		if position > size {
			position = size
		}
		if position == current {
			return nil
		}

		if position < current {
			_, err = q.ExecContext(ctx,
				`UPDATE waiting_list_entries SET position = position + 1
				 WHERE competition_id = $1 AND position >= $2 AND position < $3`,
				competitionID, position, current)
		} else {
			_, err = q.ExecContext(ctx,
				`UPDATE waiting_list_entries SET position = position - 1
				 WHERE competition_id = $1 AND position > $2 AND position <= $3`,
				competitionID, current, position)
		}
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`UPDATE waiting_list_entries SET position = $3 WHERE competition_id = $1 AND user_id = $2`,
			competitionID, userID, position)
		return err
	})
}

// PositionOf returns the 1-based rank, or 0 when the competitor is not on the
// list.
func (r *waitingListRepository) PositionOf(ctx context.Context, competitionID string, userID int32) (int, error) {
	var position int
	err := r.db.QueryRowContext(ctx,
		`SELECT position FROM waiting_list_entries WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID).Scan(&position)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return position, nil
}
