package jobs

import (
	"context"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/intake"
	"compreg-backend/internal/payment"
	"compreg-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockRegistrationService
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) ValidateCreate(ctx context.Context, req intake.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockRegistrationService) ProcessCreate(ctx context.Context, req intake.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockRegistrationService) Get(ctx context.Context, competitionID string, userID int32) (*domain.RegistrationView, error) {
	args := m.Called(ctx, competitionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationView), args.Error(1)
}
func (m *MockRegistrationService) Update(ctx context.Context, req service.UpdateRequest, actor service.Actor) (*domain.RegistrationView, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationView), args.Error(1)
}
func (m *MockRegistrationService) BulkUpdate(ctx context.Context, competitionID string, reqs []service.UpdateRequest, actor service.Actor) map[int32]service.BulkResult {
	args := m.Called(ctx, competitionID, reqs, actor)
	return args.Get(0).(map[int32]service.BulkResult)
}
func (m *MockRegistrationService) List(ctx context.Context, competitionID string) ([]domain.RegistrationView, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationView), args.Error(1)
}
func (m *MockRegistrationService) ListAdmin(ctx context.Context, competitionID string) ([]domain.RegistrationView, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationView), args.Error(1)
}
func (m *MockRegistrationService) Promote(ctx context.Context, competitionID string) (int, error) {
	args := m.Called(ctx, competitionID)
	return args.Int(0), args.Error(1)
}
func (m *MockRegistrationService) PaymentTicket(ctx context.Context, competitionID string, userID int32, donation int64, actor service.Actor) (*payment.Ticket, domain.PaymentStatus, error) {
	args := m.Called(ctx, competitionID, userID, donation, actor)
	if args.Get(0) == nil {
		return nil, domain.PaymentStatus(""), args.Error(2)
	}
	return args.Get(0).(*payment.Ticket), args.Get(1).(domain.PaymentStatus), args.Error(2)
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
