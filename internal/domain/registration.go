package domain

import (
	"time"
)

type CompetingStatus string

const (
	StatusPending     CompetingStatus = "pending"
	StatusWaitingList CompetingStatus = "waiting_list"
	StatusAccepted    CompetingStatus = "accepted"
	StatusCancelled   CompetingStatus = "cancelled"
	StatusRejected    CompetingStatus = "rejected"
)

// ParseCompetingStatus validates a requested status value.
func ParseCompetingStatus(s string) (CompetingStatus, error) {
	switch CompetingStatus(s) {
	case StatusPending, StatusWaitingList, StatusAccepted, StatusCancelled, StatusRejected:
		return CompetingStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// RequiresEvents reports whether a registration in this status must keep at
// least one selected event. Cancelled and rejected registrations retain their
// events for audit only.
func (s CompetingStatus) RequiresEvents() bool {
	switch s {
	case StatusPending, StatusWaitingList, StatusAccepted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentNone      PaymentStatus = "none"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is the payment lane sub-record. Only the status is tracked here;
// capture and refunds happen in the payment gateway.
type Payment struct {
	Status                   PaymentStatus `json:"status"`
	AmountLowestDenomination int64         `json:"amount_lowest_denomination"`
	CurrencyCode             string        `json:"currency_code"`
	TicketID                 string        `json:"ticket_id,omitempty"`
	UpdatedAt                time.Time     `json:"updated_at"`
}

// Registration is one competitor's registration for one competition. The
// (CompetitionID, UserID) pair is the identity; rows are never deleted,
// cancellation is a status.
type Registration struct {
	CompetitionID string          `json:"competition_id"`
	UserID        int32           `json:"user_id"`
	Status        CompetingStatus `json:"competing_status"`
	EventIDs      []string        `json:"event_ids"`
	Comment       string          `json:"comment"`
	AdminComment  string          `json:"admin_comment"`
	Guests        int32           `json:"guests"`
	Payment       Payment         `json:"payment"`
	Version       int64           `json:"-"`
	CreatedAt     time.Time       `json:"registered_on"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

const maxCommentLength = 240

// CompetingUpdate is a strongly-typed update request. Nil fields are left
// untouched; the zero values of present fields are applied as-is.
type CompetingUpdate struct {
	Status              *string  `json:"status,omitempty"`
	Comment             *string  `json:"comment,omitempty"`
	AdminComment        *string  `json:"admin_comment,omitempty"`
	Guests              *int32   `json:"guests,omitempty"`
	EventIDs            []string `json:"event_ids,omitempty"`
	WaitingListPosition *int     `json:"waiting_list_position,omitempty"`
}

// FieldChange records an old/new pair for one field of a history entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field name to what changed. Empty means the update was a no-op.
type Changes map[string]FieldChange

// ApplyUpdate validates upd against r, mutates r in place and returns the set
// of fields whose value actually changed. Field updates are applied alongside
// the status change in the same transition; assignments that keep the old
// value produce no change entry.
func ApplyUpdate(r *Registration, upd CompetingUpdate) (Changes, error) {
	target := r.Status
	if upd.Status != nil {
		parsed, err := ParseCompetingStatus(*upd.Status)
		if err != nil {
			return nil, err
		}
		target = parsed
	}

	events := r.EventIDs
	if upd.EventIDs != nil {
		events = upd.EventIDs
	}
	if target.RequiresEvents() && len(events) == 0 {
		return nil, ErrMissingEvents
	}
	if upd.Comment != nil && len(*upd.Comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	if upd.AdminComment != nil && len(*upd.AdminComment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	if upd.Guests != nil && *upd.Guests < 0 {
		return nil, ErrInvalidGuestCount
	}

	changes := Changes{}
	if target != r.Status {
		changes["competing_status"] = FieldChange{Old: string(r.Status), New: string(target)}
		r.Status = target
	}
	if upd.EventIDs != nil && !equalEventIDs(r.EventIDs, upd.EventIDs) {
		changes["event_ids"] = FieldChange{Old: r.EventIDs, New: upd.EventIDs}
		r.EventIDs = upd.EventIDs
	}
	if upd.Comment != nil && *upd.Comment != r.Comment {
		changes["comment"] = FieldChange{Old: r.Comment, New: *upd.Comment}
		r.Comment = *upd.Comment
	}
	if upd.AdminComment != nil && *upd.AdminComment != r.AdminComment {
		changes["admin_comment"] = FieldChange{Old: r.AdminComment, New: *upd.AdminComment}
		r.AdminComment = *upd.AdminComment
	}
	if upd.Guests != nil && *upd.Guests != r.Guests {
		changes["guests"] = FieldChange{Old: r.Guests, New: *upd.Guests}
		r.Guests = *upd.Guests
	}
	return changes, nil
}

func equalEventIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
