package postgres

import (
	"context"
	"testing"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestStore_WithinTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitsWhenEveryStatementSucceeds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO registrations").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO waiting_list_entries").
			WithArgs("NationalOpen2026", int32(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = store.WithinTransaction(ctx, func(repos repository.Repositories) error {
			reg := &domain.Registration{
				CompetitionID: "NationalOpen2026",
				UserID:        5,
				Status:        domain.StatusWaitingList,
				EventIDs:      []string{"333"},
			}
			if err := repos.Registrations.Create(ctx, reg); err != nil {
				return err
			}
			return repos.WaitingList.Append(ctx, "NationalOpen2026", 5)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackEverythingOnFailure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO registrations").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO waiting_list_entries").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err = store.WithinTransaction(ctx, func(repos repository.Repositories) error {
			reg := &domain.Registration{
				CompetitionID: "NationalOpen2026",
				UserID:        5,
				Status:        domain.StatusWaitingList,
				EventIDs:      []string{"333"},
			}
			if err := repos.Registrations.Create(ctx, reg); err != nil {
				return err
			}
			return repos.WaitingList.Append(ctx, "NationalOpen2026", 5)
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListRemoveJoinsTheEnclosingTransaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		store := NewStore(db)

		// A single begin/commit pair: the gap-closing removal must not try
		// to open a nested transaction.
		mock.ExpectBegin()
		mock.ExpectQuery("DELETE FROM waiting_list_entries").
			WithArgs("NationalOpen2026", int32(5)).
			WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
		mock.ExpectExec("UPDATE waiting_list_entries SET position = position - 1").
			WithArgs("NationalOpen2026", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = store.WithinTransaction(ctx, func(repos repository.Repositories) error {
			return repos.WaitingList.Remove(ctx, "NationalOpen2026", 5)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
