package domain

import "time"

type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
)

// HistoryEntry is one write-once record of a registration change. Entries are
// ordered by timestamp and are never mutated or deleted after the append.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	CompetitionID string    `json:"competition_id"`
	UserID        int32     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
	ChangedFields Changes   `json:"changed_fields"`
	ActorType     ActorType `json:"actor_type"`
	ActorID       string    `json:"actor_id"`
	ActionLabel   string    `json:"action"`
}

// ActionLabel derives the history label the way the admin UI expects it:
// cancellations are deletes, everything else is an update, attributed to the
// competitor when they act on their own registration.
func ActionLabel(selfUpdating bool, status *string) string {
	cancelled := status != nil && CompetingStatus(*status) == StatusCancelled
	switch {
	case cancelled && selfUpdating:
		return "Competitor delete"
	case cancelled:
		return "Admin delete"
	case selfUpdating:
		return "Competitor update"
	default:
		return "Admin update"
	}
}
