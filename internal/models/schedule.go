package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleApproved  ScheduleStatus = "approved"
	ScheduleRejected  ScheduleStatus = "rejected"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from s.
func (s ScheduleStatus) Terminal() bool {
	switch s {
	case ScheduleCompleted, ScheduleCancelled, ScheduleRejected:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodTransfer PaymentMethod = "transfer"
	MethodCheck    PaymentMethod = "check"
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodTransfer, MethodCheck, MethodCash, MethodCard:
		return true
	}
	return false
}

// PaymentSchedule is one planned disbursement against exactly one payable
// obligation. Rows are never deleted; terminal rows keep their audit stamps.
type PaymentSchedule struct {
	ID               string          `json:"id"`
	ObligationID     string          `json:"obligation_id"`
	ScheduledDate    time.Time       `json:"scheduled_date"`
	Amount           decimal.Decimal `json:"amount"`
	Method           PaymentMethod   `json:"method"`
	BankAccount      string          `json:"bank_account,omitempty"`
	CheckNumber      string          `json:"check_number,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	RequiresApproval bool            `json:"requires_approval"`
	Status           ScheduleStatus  `json:"status"`
	Version          int64           `json:"version"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	CompletedBy *string    `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CancelledBy *string    `json:"cancelled_by,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type ScheduleFilter struct {
	ObligationID string
	Status       ScheduleStatus
	Counterparty string
	DateFrom     *time.Time
	DateTo       *time.Time
}

// StatusSummary aggregates amount and count for one status over a filtered
// result set. Dashboards render these as KPI cards, so the aggregation always
// matches the active filter, never the global set.
type StatusSummary struct {
	Status ScheduleStatus  `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}
