package domain

// CompetitionInfo is the read-only competition metadata consumed from the
// competitions collaborator. The registration core never writes any of it.
type CompetitionInfo struct {
	ID                        string `json:"id"`
	CompetitorLimit           int32  `json:"competitor_limit"`
	IsRegistrationOpen        bool   `json:"registration_open"`
	UsingPayment              bool   `json:"using_payment"`
	FeeLowestDenomination     int64  `json:"base_entry_fee_lowest_denomination"`
	CurrencyCode              string `json:"currency_code"`
	AutoAcceptFromWaitingList bool   `json:"auto_accept_from_waiting_list"`
}

// HasCapacity reports whether another competitor can be accepted given the
// current accepted count. A zero limit means unlimited.
func (c *CompetitionInfo) HasCapacity(acceptedCount int32) bool {
	return c.CompetitorLimit == 0 || acceptedCount < c.CompetitorLimit
}

// RegistrationView is the caller-facing representation of a registration.
// WaitingListPosition is computed at read time and never persisted.
type RegistrationView struct {
	UserID    int32          `json:"user_id"`
	Guests    int32          `json:"guests"`
	Competing CompetingView  `json:"competing"`
	Payment   *PaymentView   `json:"payment,omitempty"`
	History   []HistoryEntry `json:"history,omitempty"`
	Email     string         `json:"email,omitempty"`
}

type CompetingView struct {
	EventIDs            []string        `json:"event_ids"`
	RegistrationStatus  CompetingStatus `json:"registration_status"`
	RegisteredOn        string          `json:"registered_on"`
	Comment             string          `json:"comment,omitempty"`
	AdminComment        string          `json:"admin_comment,omitempty"`
	WaitingListPosition int             `json:"waiting_list_position,omitempty"`
}

type PaymentView struct {
	Status                   PaymentStatus `json:"payment_status"`
	AmountLowestDenomination int64         `json:"payment_amount_iso"`
	CurrencyCode             string        `json:"currency_code"`
	UpdatedAt                string        `json:"updated_at"`
}
