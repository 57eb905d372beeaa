package service

import (
	"context"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/intake"
	"compreg-backend/internal/payment"
)

// Actor identifies who requested an operation. Authorization itself is
// decided by the user service; the actor only drives history attribution.
type Actor struct {
	UserID int32
	Admin  bool
	System bool
}

// UpdateRequest is one parsed update for a single registration.
type UpdateRequest struct {
	CompetitionID string
	UserID        int32
	Competing     domain.CompetingUpdate
}

// BulkResult carries either the updated view or the error for one bulk item.
type BulkResult struct {
	Registration *domain.RegistrationView
	Err          error
}

type RegistrationService interface {
	// ValidateCreate runs the synchronous checks before a creation request
	// is acknowledged and handed to the intake pipeline.
	ValidateCreate(ctx context.Context, req intake.Request) error
	// ProcessCreate is the intake pipeline's downstream commit.
	ProcessCreate(ctx context.Context, req intake.Request) error
	Get(ctx context.Context, competitionID string, userID int32) (*domain.RegistrationView, error)
	Update(ctx context.Context, req UpdateRequest, actor Actor) (*domain.RegistrationView, error)
	BulkUpdate(ctx context.Context, competitionID string, reqs []UpdateRequest, actor Actor) map[int32]BulkResult
	List(ctx context.Context, competitionID string) ([]domain.RegistrationView, error)
	ListAdmin(ctx context.Context, competitionID string) ([]domain.RegistrationView, error)
	// Promote accepts waiting-list entries in list order while capacity
	// remains. It is an explicit capability, never an implicit side effect
	// of cancellation.
	Promote(ctx context.Context, competitionID string) (int, error)
	PaymentTicket(ctx context.Context, competitionID string, userID int32, donation int64, actor Actor) (*payment.Ticket, domain.PaymentStatus, error)
}

type EmailService interface {
	SendRegistrationReceived(ctx context.Context, email, competitionID string) error
	SendStatusChangeNotification(ctx context.Context, email, competitionID string, status domain.CompetingStatus) error
	SendPaymentReminder(ctx context.Context, email, competitionID string, amount int64, currency string) error
}
