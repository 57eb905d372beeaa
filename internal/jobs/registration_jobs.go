package jobs

import (
	"context"

	"compreg-backend/internal/logger"
)

// PromoteWaitingLists sweeps competitions that have a waiting list and fills
// freed spots in list order. Only competitions that opted into auto-accept
// are touched; for the rest promotion stays an organizer action.
func (jr *JobRunner) PromoteWaitingLists() {
	jr.runWithRecovery("PromoteWaitingLists", func() {
		ctx := context.Background()

		rows, err := jr.db.QueryContext(ctx,
			`SELECT DISTINCT competition_id FROM waiting_list_entries`)
		if err != nil {
			logger.Error("Failed to list competitions with waiting lists", "error", err)
			return
		}
		defer rows.Close()

		var competitionIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				logger.Error("Failed to scan competition id", "error", err)
				continue
			}
			competitionIDs = append(competitionIDs, id)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating waiting list competitions", "error", err)
			return
		}

		promotedTotal := 0
		for _, competitionID := range competitionIDs {
			info, err := jr.services.Competitions.Find(ctx, competitionID)
			if err != nil {
				logger.Error("Failed to fetch competition", "competition_id", competitionID, "error", err)
				continue
			}
			if !info.AutoAcceptFromWaitingList {
				continue
			}

			promoted, err := jr.services.Registration.Promote(ctx, competitionID)
			if err != nil {
				logger.Error("Failed to promote waiting list", "competition_id", competitionID, "error", err)
				continue
			}
			if promoted > 0 {
				logger.Info("Promoted from waiting list", "competition_id", competitionID, "count", promoted)
			}
			promotedTotal += promoted
		}

		logger.Info("Waiting list sweep finished", "competitions", len(competitionIDs), "promoted", promotedTotal)
	})
}

// SendPaymentReminders emails accepted competitors whose registration fee is
// still unpaid on competitions that use payments.
func (jr *JobRunner) SendPaymentReminders() {
	jr.runWithRecovery("SendPaymentReminders", func() {
		ctx := context.Background()

		query := `
			SELECT competition_id, user_id
			FROM registrations
			WHERE competing_status = 'accepted'
			  AND payment_status IN ('none', 'pending')
		`
		rows, err := jr.db.QueryContext(ctx, query)
		if err != nil {
			logger.Error("Failed to list unpaid registrations", "error", err)
			return
		}
		defer rows.Close()

		unpaidByCompetition := make(map[string][]int32)
		for rows.Next() {
			var competitionID string
			var userID int32
			if err := rows.Scan(&competitionID, &userID); err != nil {
				logger.Error("Failed to scan unpaid registration", "error", err)
				continue
			}
			unpaidByCompetition[competitionID] = append(unpaidByCompetition[competitionID], userID)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating unpaid registrations", "error", err)
			return
		}

		sent := 0
		for competitionID, userIDs := range unpaidByCompetition {
			info, err := jr.services.Competitions.Find(ctx, competitionID)
			if err != nil {
				logger.Error("Failed to fetch competition", "competition_id", competitionID, "error", err)
				continue
			}
			if !info.UsingPayment {
				continue
			}

			emails, err := jr.services.Users.GetEmails(ctx, userIDs)
			if err != nil {
				logger.Error("Failed to resolve competitor emails", "competition_id", competitionID, "error", err)
				continue
			}

			for _, userID := range userIDs {
				email, ok := emails[userID]
				if !ok {
					continue
				}
				if err := jr.services.Email.SendPaymentReminder(ctx, email, competitionID,
					info.FeeLowestDenomination, info.CurrencyCode); err != nil {
					logger.Error("Failed to send payment reminder",
						"competition_id", competitionID, "user_id", userID, "error", err)
					continue
				}
				sent++
			}
		}

		logger.Info("Payment reminders sent", "count", sent)
	})
}
