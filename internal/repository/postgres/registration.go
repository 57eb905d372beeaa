package postgres

import (
	"context"
	"database/sql"
	"time"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/repository"

	"github.com/lib/pq"
)

type registrationRepository struct {
	db DBTX
}

func NewRegistrationRepository(db DBTX) repository.RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `INSERT INTO registrations (competition_id, user_id, competing_status, event_ids, comment, admin_comment, guests,
	                                     payment_status, payment_amount, payment_currency, payment_ticket, payment_updated_at,
	                                     version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $13)
	          ON CONFLICT (competition_id, user_id) DO NOTHING`
	now := time.Now().UTC()
	reg.Version = 1
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if reg.Payment.Status == "" {
		reg.Payment.Status = domain.PaymentNone
	}
	res, err := r.db.ExecContext(ctx, query,
		reg.CompetitionID, reg.UserID, reg.Status, pq.Array(reg.EventIDs), reg.Comment, reg.AdminComment, reg.Guests,
		reg.Payment.Status, reg.Payment.AmountLowestDenomination, reg.Payment.CurrencyCode, reg.Payment.TicketID,
		nullableTime(reg.Payment.UpdatedAt), now)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRegistrationExists
	}
	return nil
}

const registrationColumns = `competition_id, user_id, competing_status, event_ids, comment, admin_comment, guests,
	payment_status, payment_amount, payment_currency, payment_ticket, payment_updated_at, version, created_at, updated_at`

func (r *registrationRepository) Get(ctx context.Context, competitionID string, userID int32) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE competition_id = $1 AND user_id = $2`
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, competitionID, userID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) Update(ctx context.Context, reg *domain.Registration) error {
	query := `UPDATE registrations
	          SET competing_status=$1, event_ids=$2, comment=$3, admin_comment=$4, guests=$5, version=version+1, updated_at=$6
	          WHERE competition_id=$7 AND user_id=$8 AND version=$9`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		reg.Status, pq.Array(reg.EventIDs), reg.Comment, reg.AdminComment, reg.Guests, now,
		reg.CompetitionID, reg.UserID, reg.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrStorageConflict
	}
	reg.Version++
	reg.UpdatedAt = now
	return nil
}

func (r *registrationRepository) ListByCompetition(ctx context.Context, competitionID string, status domain.CompetingStatus) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE competition_id = $1`
	args := []interface{}{competitionID}
	if status != "" {
		query += ` AND competing_status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) UpdatePayment(ctx context.Context, competitionID string, userID int32, payment domain.Payment) error {
	query := `UPDATE registrations
	          SET payment_status=$1, payment_amount=$2, payment_currency=$3, payment_ticket=$4, payment_updated_at=$5, updated_at=$5
	          WHERE competition_id=$6 AND user_id=$7`
	res, err := r.db.ExecContext(ctx, query,
		payment.Status, payment.AmountLowestDenomination, payment.CurrencyCode, payment.TicketID, time.Now().UTC(),
		competitionID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var events pq.StringArray
	var paymentUpdated sql.NullTime
	err := row.Scan(&reg.CompetitionID, &reg.UserID, &reg.Status, &events, &reg.Comment, &reg.AdminComment, &reg.Guests,
		&reg.Payment.Status, &reg.Payment.AmountLowestDenomination, &reg.Payment.CurrencyCode, &reg.Payment.TicketID,
		&paymentUpdated, &reg.Version, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	reg.EventIDs = []string(events)
	if paymentUpdated.Valid {
		reg.Payment.UpdatedAt = paymentUpdated.Time
	}
	return reg, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
