package postgres

import (
	"context"
	"database/sql"

	"compreg-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.RegistrationRepository
	repository.WaitingListRepository
	repository.HistoryRepository
	repository.CounterRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		RegistrationRepository: NewRegistrationRepository(db),
		WaitingListRepository:  NewWaitingListRepository(db),
		HistoryRepository:      NewHistoryRepository(db),
		CounterRepository:      NewCounterRepository(db),
	}
}

// WithinTransaction runs fn with every repository bound to one transaction.
// fn returning an error rolls the whole transaction back.
func (s *Store) WithinTransaction(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	repos := repository.Repositories{
		Registrations: NewRegistrationRepository(tx),
		WaitingList:   NewWaitingListRepository(tx),
		History:       NewHistoryRepository(tx),
		Counters:      NewCounterRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	return tx.Commit()
}
