package service

import (
	"context"
	"fmt"

	"compreg-backend/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendGridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailService) send(to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *sendGridEmailService) SendRegistrationReceived(ctx context.Context, email, competitionID string) error {
	subject := fmt.Sprintf("Registration received for %s", competitionID)
	body := fmt.Sprintf("Your registration for %s has been received and is being processed. You will be notified once its status changes.", competitionID)
	return s.send(email, subject, body)
}

func (s *sendGridEmailService) SendStatusChangeNotification(ctx context.Context, email, competitionID string, status domain.CompetingStatus) error {
	subject := fmt.Sprintf("Registration update for %s", competitionID)
	body := fmt.Sprintf("The status of your registration for %s is now: %s.", competitionID, status)
	return s.send(email, subject, body)
}

func (s *sendGridEmailService) SendPaymentReminder(ctx context.Context, email, competitionID string, amount int64, currency string) error {
	subject := fmt.Sprintf("Payment reminder for %s", competitionID)
	body := fmt.Sprintf("Your registration for %s is awaiting payment of %d %s. Please complete the payment to secure your spot.", competitionID, amount, currency)
	return s.send(email, subject, body)
}

// noopEmailService is used when email delivery is disabled in config.
type noopEmailService struct{}

func NewNoopEmailService() EmailService {
	return noopEmailService{}
}

func (noopEmailService) SendRegistrationReceived(ctx context.Context, email, competitionID string) error {
	return nil
}

func (noopEmailService) SendStatusChangeNotification(ctx context.Context, email, competitionID string, status domain.CompetingStatus) error {
	return nil
}

func (noopEmailService) SendPaymentReminder(ctx context.Context, email, competitionID string, amount int64, currency string) error {
	return nil
}
