// Package payment abstracts the payment gateway. The registration core only
// requests tickets and tracks the resulting status; capture and refunds live
// entirely in the gateway.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ticket is the handle a registrant uses to complete a payment client-side.
type Ticket struct {
	ClientSecret string
	TicketID     string
}

type Gateway interface {
	GetTicket(ctx context.Context, attendeeID string, amount int64, currency string, actorID int32) (*Ticket, error)
}

// MockGateway issues fake tickets for development and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) GetTicket(ctx context.Context, attendeeID string, amount int64, currency string, actorID int32) (*Ticket, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount: %d", amount)
	}
	id := uuid.NewString()
	return &Ticket{
		ClientSecret: fmt.Sprintf("mock_secret_%s", id),
		TicketID:     id,
	}, nil
}
