package repository

import (
	"context"

	"compreg-backend/internal/domain"
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	Get(ctx context.Context, competitionID string, userID int32) (*domain.Registration, error)
	// Update guards on the registration's version and returns
	// domain.ErrStorageConflict when the row moved underneath the caller.
	Update(ctx context.Context, reg *domain.Registration) error
	ListByCompetition(ctx context.Context, competitionID string, status domain.CompetingStatus) ([]domain.Registration, error)
	UpdatePayment(ctx context.Context, competitionID string, userID int32, payment domain.Payment) error
}

type WaitingListRepository interface {
	// Entries returns user ids in list order, position 1 first.
	Entries(ctx context.Context, competitionID string) ([]int32, error)
	Append(ctx context.Context, competitionID string, userID int32) error
	// Remove closes the gap behind the removed entry in the same
	// transaction. Removing an absent entry is a no-op.
	Remove(ctx context.Context, competitionID string, userID int32) error
	MoveTo(ctx context.Context, competitionID string, userID int32, position int) error
	PositionOf(ctx context.Context, competitionID string, userID int32) (int, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByRegistration(ctx context.Context, competitionID string, userID int32) ([]domain.HistoryEntry, error)
}

type CounterRepository interface {
	AcceptedCount(ctx context.Context, competitionID string) (int32, error)
	Increment(ctx context.Context, competitionID string) error
	Decrement(ctx context.Context, competitionID string) error
}

// Repositories bundles the repositories bound to a single transaction.
type Repositories struct {
	Registrations RegistrationRepository
	WaitingList   WaitingListRepository
	History       HistoryRepository
	Counters      CounterRepository
}

// TxRunner executes fn against one storage transaction. An error from fn
// rolls everything back, so multi-repository writes land atomically or not
// at all.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(Repositories) error) error
}
