// Package waitinglist maintains the per-competition ordered sequence of
// registrations currently waiting for a competing slot. Insertion order is
// authoritative; positions are dense 1-based ranks recomputed on removal.
package waitinglist

import (
	"context"

	"compreg-backend/internal/keymutex"
	"compreg-backend/internal/repository"
)

type Manager struct {
	repo  repository.WaitingListRepository
	locks *keymutex.KeyMutex
}

func NewManager(repo repository.WaitingListRepository) *Manager {
	return &Manager{
		repo:  repo,
		locks: keymutex.New(),
	}
}

// Append puts the competitor at the tail of the competition's list. A
// competitor who left the list earlier starts over at the tail; there is no
// position memory.
func (m *Manager) Append(ctx context.Context, competitionID string, userID int32) error {
	m.locks.Lock(competitionID)
	defer m.locks.Unlock(competitionID)
	return m.repo.Append(ctx, competitionID, userID)
}

// Remove takes the competitor off the list and closes the gap, shifting every
// entry behind them up by one. Removing an absent competitor is a no-op.
func (m *Manager) Remove(ctx context.Context, competitionID string, userID int32) error {
	m.locks.Lock(competitionID)
	defer m.locks.Unlock(competitionID)
	return m.repo.Remove(ctx, competitionID, userID)
}

// MoveTo repositions the competitor, clamping the target into the list bounds.
func (m *Manager) MoveTo(ctx context.Context, competitionID string, userID int32, position int) error {
	m.locks.Lock(competitionID)
	defer m.locks.Unlock(competitionID)
	return m.repo.MoveTo(ctx, competitionID, userID, position)
}

// PositionOf returns the 1-based rank, or 0 when the competitor is not
// currently on the list.
func (m *Manager) PositionOf(ctx context.Context, competitionID string, userID int32) (int, error) {
	m.locks.Lock(competitionID)
	defer m.locks.Unlock(competitionID)
	return m.repo.PositionOf(ctx, competitionID, userID)
}

// Entries returns the user ids in list order.
func (m *Manager) Entries(ctx context.Context, competitionID string) ([]int32, error) {
	m.locks.Lock(competitionID)
	defer m.locks.Unlock(competitionID)
	return m.repo.Entries(ctx, competitionID)
}
