package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"compreg-backend/internal/compapi"
	"compreg-backend/internal/domain"
	"compreg-backend/internal/intake"
	"compreg-backend/internal/keymutex"
	"compreg-backend/internal/logger"
	"compreg-backend/internal/payment"
	"compreg-backend/internal/repository"
	"compreg-backend/internal/waitinglist"
)

// maxConflictRetries bounds the internal retry loop on storage conflicts.
// The per-competition lock prevents most races by construction; this only
// covers unexpected contention.
const maxConflictRetries = 3

type registrationService struct {
	txRunner     repository.TxRunner
	regRepo      repository.RegistrationRepository
	historyRepo  repository.HistoryRepository
	counterRepo  repository.CounterRepository
	waitingList  *waitinglist.Manager
	competitions compapi.CompetitionAPI
	users        compapi.UserAPI
	gateway      payment.Gateway
	emailSvc     EmailService
	locks        *keymutex.KeyMutex
}

func NewRegistrationService(
	txRunner repository.TxRunner,
	regRepo repository.RegistrationRepository,
	historyRepo repository.HistoryRepository,
	counterRepo repository.CounterRepository,
	waitingList *waitinglist.Manager,
	competitions compapi.CompetitionAPI,
	users compapi.UserAPI,
	gateway payment.Gateway,
	emailSvc EmailService,
) RegistrationService {
	return &registrationService{
		txRunner:     txRunner,
		regRepo:      regRepo,
		historyRepo:  historyRepo,
		counterRepo:  counterRepo,
		waitingList:  waitingList,
		competitions: competitions,
		users:        users,
		gateway:      gateway,
		emailSvc:     emailSvc,
		locks:        keymutex.New(),
	}
}

func (s *registrationService) ValidateCreate(ctx context.Context, req intake.Request) error {
	if len(req.EventIDs) == 0 {
		return domain.ErrMissingEvents
	}
	if req.Guests < 0 {
		return domain.ErrInvalidGuestCount
	}

	info, err := s.competitions.Find(ctx, req.CompetitionID)
	if err != nil {
		return err
	}
	if !info.IsRegistrationOpen {
		return domain.ErrRegistrationClosed
	}

	_, err = s.regRepo.Get(ctx, req.CompetitionID, req.UserID)
	if err == nil {
		return domain.ErrRegistrationExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// ProcessCreate is the downstream commit of the intake pipeline. It runs on
// the single worker for the competition's ordering key, so the capacity
// read-decide-commit below is serialized per competition.
func (s *registrationService) ProcessCreate(ctx context.Context, req intake.Request) error {
	s.locks.Lock(req.CompetitionID)
	defer s.locks.Unlock(req.CompetitionID)

	info, err := s.competitions.Find(ctx, req.CompetitionID)
	if err != nil {
		return err
	}
	accepted, err := s.counterRepo.AcceptedCount(ctx, req.CompetitionID)
	if err != nil {
		return err
	}

	status := domain.StatusWaitingList
	if info.HasCapacity(accepted) {
		status = domain.StatusAccepted
	}

	reg := &domain.Registration{
		CompetitionID: req.CompetitionID,
		UserID:        req.UserID,
		Status:        status,
		EventIDs:      req.EventIDs,
		Comment:       req.Comment,
		Guests:        req.Guests,
	}

	// The row, the counter or list membership, and the history entry land in
	// one commit. A redelivered request that then sees ErrRegistrationExists
	// is guaranteed to be a duplicate of a completed creation.
	err = s.txRunner.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Registrations.Create(ctx, reg); err != nil {
			return err
		}

		if status == domain.StatusAccepted {
			if err := repos.Counters.Increment(ctx, req.CompetitionID); err != nil {
				return err
			}
		} else {
			if err := repos.WaitingList.Append(ctx, req.CompetitionID, req.UserID); err != nil {
				return err
			}
		}

		entry := &domain.HistoryEntry{
			CompetitionID: req.CompetitionID,
			UserID:        req.UserID,
			ChangedFields: domain.Changes{
				"competing_status": {Old: "", New: string(status)},
				"event_ids":        {Old: []string{}, New: req.EventIDs},
			},
			ActorType:   domain.ActorSystem,
			ActorID:     "registration-worker",
			ActionLabel: "Worker processed registration",
		}
		return repos.History.Append(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.notifyRegistrationReceived(ctx, req.CompetitionID, req.UserID)
	return nil
}

func (s *registrationService) Get(ctx context.Context, competitionID string, userID int32) (*domain.RegistrationView, error) {
	reg, err := s.regRepo.Get(ctx, competitionID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, reg, true, true)
}

func (s *registrationService) Update(ctx context.Context, req UpdateRequest, actor Actor) (*domain.RegistrationView, error) {
	s.locks.Lock(req.CompetitionID)
	defer s.locks.Unlock(req.CompetitionID)
	return s.updateLocked(ctx, req, actor)
}

// updateLocked applies one update under the competition lock, retrying
// storage conflicts a bounded number of times before giving up.
func (s *registrationService) updateLocked(ctx context.Context, req UpdateRequest, actor Actor) (*domain.RegistrationView, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		view, err := s.tryUpdate(ctx, req, actor)
		if errors.Is(err, domain.ErrStorageConflict) {
			logger.Warn("Storage conflict applying registration update, retrying",
				"competition_id", req.CompetitionID, "user_id", req.UserID, "attempt", attempt+1)
			continue
		}
		return view, err
	}
	return nil, domain.ErrTransientFailure
}

func (s *registrationService) tryUpdate(ctx context.Context, req UpdateRequest, actor Actor) (*domain.RegistrationView, error) {
	reg, err := s.regRepo.Get(ctx, req.CompetitionID, req.UserID)
	if err != nil {
		return nil, err
	}
	oldStatus := reg.Status

	changes, err := domain.ApplyUpdate(reg, req.Competing)
	if err != nil {
		return nil, err
	}

	// The row update, the list membership edges, the counter edges and the
	// history entry commit together; a failure on any of them leaves the
	// registration untouched for the retry loop.
	err = s.txRunner.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}

		// Waiting-list membership follows the status edges. Entering the
		// list always appends at the tail, never restores a prior position.
		if reg.Status == domain.StatusWaitingList && oldStatus != domain.StatusWaitingList {
			if err := repos.WaitingList.Append(ctx, req.CompetitionID, req.UserID); err != nil {
				return err
			}
		}
		if oldStatus == domain.StatusWaitingList && reg.Status != domain.StatusWaitingList {
			if err := repos.WaitingList.Remove(ctx, req.CompetitionID, req.UserID); err != nil {
				return err
			}
		}
		if reg.Status == domain.StatusWaitingList && req.Competing.WaitingListPosition != nil {
			if err := repos.WaitingList.MoveTo(ctx, req.CompetitionID, req.UserID, *req.Competing.WaitingListPosition); err != nil {
				return err
			}
		}

		// The competitor count moves exactly on the accepted entry/exit edges.
		if oldStatus == domain.StatusAccepted && reg.Status != domain.StatusAccepted {
			if err := repos.Counters.Decrement(ctx, req.CompetitionID); err != nil {
				return err
			}
		} else if oldStatus != domain.StatusAccepted && reg.Status == domain.StatusAccepted {
			if err := repos.Counters.Increment(ctx, req.CompetitionID); err != nil {
				return err
			}
		}

		if len(changes) > 0 {
			entry := &domain.HistoryEntry{
				CompetitionID: req.CompetitionID,
				UserID:        req.UserID,
				ChangedFields: changes,
				ActorType:     actorType(actor, req.UserID),
				ActorID:       actorID(actor),
				ActionLabel:   domain.ActionLabel(actor.UserID == req.UserID && !actor.System, req.Competing.Status),
			}
			return repos.History.Append(ctx, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reg.Status != oldStatus {
		s.notifyStatusChange(ctx, req.CompetitionID, req.UserID, reg.Status)
	}

	return s.buildView(ctx, reg, true, true)
}

// BulkUpdate applies the items in list order while holding the competition
// lock for the whole batch, so no other writer interleaves and the outcome
// equals applying the items one by one. One item's failure is recorded and
// does not abort its siblings.
func (s *registrationService) BulkUpdate(ctx context.Context, competitionID string, reqs []UpdateRequest, actor Actor) map[int32]BulkResult {
	s.locks.Lock(competitionID)
	defer s.locks.Unlock(competitionID)

	results := make(map[int32]BulkResult, len(reqs))
	for _, req := range reqs {
		if req.UserID == 0 {
			logger.Warn("Skipping malformed bulk update item", "competition_id", competitionID)
			results[req.UserID] = BulkResult{Err: &domain.BadRequestError{Reason: "missing user id"}}
			continue
		}
		req.CompetitionID = competitionID
		view, err := s.updateLocked(ctx, req, actor)
		if err != nil {
			results[req.UserID] = BulkResult{Err: err}
			continue
		}
		results[req.UserID] = BulkResult{Registration: view}
	}
	return results
}

func (s *registrationService) List(ctx context.Context, competitionID string) ([]domain.RegistrationView, error) {
	regs, err := s.regRepo.ListByCompetition(ctx, competitionID, domain.StatusAccepted)
	if err != nil {
		return nil, err
	}
	views := make([]domain.RegistrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, domain.RegistrationView{
			UserID: reg.UserID,
			Competing: domain.CompetingView{
				EventIDs: reg.EventIDs,
			},
		})
	}
	return views, nil
}

func (s *registrationService) ListAdmin(ctx context.Context, competitionID string) ([]domain.RegistrationView, error) {
	regs, err := s.regRepo.ListByCompetition(ctx, competitionID, "")
	if err != nil {
		return nil, err
	}

	positions := make(map[int32]int)
	entries, err := s.waitingList.Entries(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	for i, userID := range entries {
		positions[userID] = i + 1
	}

	userIDs := make([]int32, 0, len(regs))
	for _, reg := range regs {
		userIDs = append(userIDs, reg.UserID)
	}
	emails, err := s.users.GetEmails(ctx, userIDs)
	if err != nil {
		// PII enrichment is best effort; the admin list itself must not fail.
		logger.Warn("Failed to fetch competitor emails", "competition_id", competitionID, "error", err)
		emails = map[int32]string{}
	}

	views := make([]domain.RegistrationView, 0, len(regs))
	for _, reg := range regs {
		view := viewOf(&reg, true)
		if reg.Status == domain.StatusWaitingList {
			view.Competing.WaitingListPosition = positions[reg.UserID]
		}
		view.Email = emails[reg.UserID]
		views = append(views, *view)
	}
	return views, nil
}

// Promote accepts waiting-list entries in list order while capacity remains.
func (s *registrationService) Promote(ctx context.Context, competitionID string) (int, error) {
	s.locks.Lock(competitionID)
	defer s.locks.Unlock(competitionID)

	info, err := s.competitions.Find(ctx, competitionID)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for {
		accepted, err := s.counterRepo.AcceptedCount(ctx, competitionID)
		if err != nil {
			return promoted, err
		}
		if !info.HasCapacity(accepted) {
			return promoted, nil
		}
		entries, err := s.waitingList.Entries(ctx, competitionID)
		if err != nil {
			return promoted, err
		}
		if len(entries) == 0 {
			return promoted, nil
		}

		status := string(domain.StatusAccepted)
		_, err = s.updateLocked(ctx, UpdateRequest{
			CompetitionID: competitionID,
			UserID:        entries[0],
			Competing:     domain.CompetingUpdate{Status: &status},
		}, Actor{System: true})
		if err != nil {
			return promoted, fmt.Errorf("failed to promote user %d: %w", entries[0], err)
		}
		promoted++
	}
}

func (s *registrationService) PaymentTicket(ctx context.Context, competitionID string, userID int32, donation int64, actor Actor) (*payment.Ticket, domain.PaymentStatus, error) {
	info, err := s.competitions.Find(ctx, competitionID)
	if err != nil {
		return nil, "", err
	}
	if !info.UsingPayment {
		return nil, "", domain.ErrPaymentNotEnabled
	}

	reg, err := s.regRepo.Get(ctx, competitionID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrPaymentNotReady
	}
	if err != nil {
		return nil, "", err
	}
	if reg.Status == "" {
		return nil, "", domain.ErrPaymentNotReady
	}

	amount := info.FeeLowestDenomination + donation
	attendeeID := fmt.Sprintf("%s-%d", competitionID, userID)
	ticket, err := s.gateway.GetTicket(ctx, attendeeID, amount, info.CurrencyCode, actor.UserID)
	if err != nil {
		return nil, "", err
	}

	pay := domain.Payment{
		Status:                   domain.PaymentPending,
		AmountLowestDenomination: amount,
		CurrencyCode:             info.CurrencyCode,
		TicketID:                 ticket.TicketID,
		UpdatedAt:                time.Now().UTC(),
	}
	if err := s.regRepo.UpdatePayment(ctx, competitionID, userID, pay); err != nil {
		return nil, "", err
	}
	return ticket, domain.PaymentPending, nil
}

// notifyRegistrationReceived confirms a freshly created registration.
// Like all notifications it is fire-and-forget.
func (s *registrationService) notifyRegistrationReceived(ctx context.Context, competitionID string, userID int32) {
	emails, err := s.users.GetEmails(ctx, []int32{userID})
	if err != nil || emails[userID] == "" {
		logger.Warn("Could not resolve competitor email for notification",
			"competition_id", competitionID, "user_id", userID, "error", err)
		return
	}
	if err := s.emailSvc.SendRegistrationReceived(ctx, emails[userID], competitionID); err != nil {
		logger.Warn("Failed to send registration confirmation",
			"competition_id", competitionID, "user_id", userID, "error", err)
	}
}

// notifyStatusChange is fire-and-forget; a failed notification never rolls
// back a committed transition.
func (s *registrationService) notifyStatusChange(ctx context.Context, competitionID string, userID int32, status domain.CompetingStatus) {
	emails, err := s.users.GetEmails(ctx, []int32{userID})
	if err != nil || emails[userID] == "" {
		logger.Warn("Could not resolve competitor email for notification",
			"competition_id", competitionID, "user_id", userID, "error", err)
		return
	}
	if err := s.emailSvc.SendStatusChangeNotification(ctx, emails[userID], competitionID, status); err != nil {
		logger.Warn("Failed to send status change notification",
			"competition_id", competitionID, "user_id", userID, "error", err)
	}
}

func (s *registrationService) buildView(ctx context.Context, reg *domain.Registration, includeHistory, includePayment bool) (*domain.RegistrationView, error) {
	view := viewOf(reg, includePayment)

	if reg.Status == domain.StatusWaitingList {
		position, err := s.waitingList.PositionOf(ctx, reg.CompetitionID, reg.UserID)
		if err != nil {
			return nil, err
		}
		view.Competing.WaitingListPosition = position
	}

	if includeHistory {
		history, err := s.historyRepo.ListByRegistration(ctx, reg.CompetitionID, reg.UserID)
		if err != nil {
			return nil, err
		}
		view.History = history
	}
	return view, nil
}

func viewOf(reg *domain.Registration, includePayment bool) *domain.RegistrationView {
	view := &domain.RegistrationView{
		UserID: reg.UserID,
		Guests: reg.Guests,
		Competing: domain.CompetingView{
			EventIDs:           reg.EventIDs,
			RegistrationStatus: reg.Status,
			RegisteredOn:       reg.CreatedAt.UTC().Format(time.RFC3339),
			Comment:            reg.Comment,
			AdminComment:       reg.AdminComment,
		},
	}
	if includePayment && reg.Payment.Status != "" && reg.Payment.Status != domain.PaymentNone {
		view.Payment = &domain.PaymentView{
			Status:                   reg.Payment.Status,
			AmountLowestDenomination: reg.Payment.AmountLowestDenomination,
			CurrencyCode:             reg.Payment.CurrencyCode,
			UpdatedAt:                reg.Payment.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return view
}

func actorType(actor Actor, targetUserID int32) domain.ActorType {
	switch {
	case actor.System:
		return domain.ActorSystem
	case actor.UserID == targetUserID:
		return domain.ActorUser
	default:
		return domain.ActorAdmin
	}
}

func actorID(actor Actor) string {
	if actor.System {
		return "system"
	}
	return fmt.Sprintf("%d", actor.UserID)
}
