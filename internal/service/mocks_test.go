package service

import (
	"context"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/payment"
	"compreg-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// stubTxRunner hands the shared mocks to the transactional section and
// counts commits and rollbacks.
type stubTxRunner struct {
	repos     repository.Repositories
	commits   int
	rollbacks int
}

func (s *stubTxRunner) WithinTransaction(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := fn(s.repos); err != nil {
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// MockRegistrationRepo
type MockRegistrationRepo struct {
	mock.Mock
}

func (m *MockRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}
func (m *MockRegistrationRepo) Get(ctx context.Context, competitionID string, userID int32) (*domain.Registration, error) {
	args := m.Called(ctx, competitionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) Update(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}
func (m *MockRegistrationRepo) ListByCompetition(ctx context.Context, competitionID string, status domain.CompetingStatus) ([]domain.Registration, error) {
	args := m.Called(ctx, competitionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Registration), args.Error(1)
}
func (m *MockRegistrationRepo) UpdatePayment(ctx context.Context, competitionID string, userID int32, pay domain.Payment) error {
	args := m.Called(ctx, competitionID, userID, pay)
	return args.Error(0)
}

// MockWaitingListRepo
type MockWaitingListRepo struct {
	mock.Mock
}

func (m *MockWaitingListRepo) Entries(ctx context.Context, competitionID string) ([]int32, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int32), args.Error(1)
}
func (m *MockWaitingListRepo) Append(ctx context.Context, competitionID string, userID int32) error {
	args := m.Called(ctx, competitionID, userID)
	return args.Error(0)
}
func (m *MockWaitingListRepo) Remove(ctx context.Context, competitionID string, userID int32) error {
	args := m.Called(ctx, competitionID, userID)
	return args.Error(0)
}
func (m *MockWaitingListRepo) MoveTo(ctx context.Context, competitionID string, userID int32, position int) error {
	args := m.Called(ctx, competitionID, userID, position)
	return args.Error(0)
}
func (m *MockWaitingListRepo) PositionOf(ctx context.Context, competitionID string, userID int32) (int, error) {
	args := m.Called(ctx, competitionID, userID)
	return args.Int(0), args.Error(1)
}

// MockHistoryRepo
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockHistoryRepo) ListByRegistration(ctx context.Context, competitionID string, userID int32) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, competitionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

// MockCounterRepo
type MockCounterRepo struct {
	mock.Mock
}

func (m *MockCounterRepo) AcceptedCount(ctx context.Context, competitionID string) (int32, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockCounterRepo) Increment(ctx context.Context, competitionID string) error {
	args := m.Called(ctx, competitionID)
	return args.Error(0)
}
func (m *MockCounterRepo) Decrement(ctx context.Context, competitionID string) error {
	args := m.Called(ctx, competitionID)
	return args.Error(0)
}

// MockCompetitionAPI
type MockCompetitionAPI struct {
	mock.Mock
}

func (m *MockCompetitionAPI) Find(ctx context.Context, competitionID string) (*domain.CompetitionInfo, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompetitionInfo), args.Error(1)
}

// MockUserAPI
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) CanAdminister(ctx context.Context, userID int32, competitionID string) (bool, error) {
	args := m.Called(ctx, userID, competitionID)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserAPI) GetEmails(ctx context.Context, userIDs []int32) (map[int32]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int32]string), args.Error(1)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetTicket(ctx context.Context, attendeeID string, amount int64, currency string, actorID int32) (*payment.Ticket, error) {
	args := m.Called(ctx, attendeeID, amount, currency, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Ticket), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRegistrationReceived(ctx context.Context, email, competitionID string) error {
	args := m.Called(ctx, email, competitionID)
	return args.Error(0)
}
func (m *MockEmailService) SendStatusChangeNotification(ctx context.Context, email, competitionID string, status domain.CompetingStatus) error {
	args := m.Called(ctx, email, competitionID, status)
	return args.Error(0)
}
func (m *MockEmailService) SendPaymentReminder(ctx context.Context, email, competitionID string, amount int64, currency string) error {
	args := m.Called(ctx, email, competitionID, amount, currency)
	return args.Error(0)
}
