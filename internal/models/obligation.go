package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ObligationType string

const (
	ObligationPayable    ObligationType = "payable"
	ObligationReceivable ObligationType = "receivable"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Obligation is a payable or receivable record against a counterparty.
// Balance is the outstanding amount; for payables it decreases as scheduled
// payments complete.
type Obligation struct {
	ID             string          `json:"id"`
	Type           ObligationType  `json:"type"`
	Counterparty   string          `json:"counterparty"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Balance        decimal.Decimal `json:"balance"`
	DueDate        time.Time       `json:"due_date"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Schedulable reports whether a payment may be scheduled against the
// obligation: only approved payables with an outstanding balance qualify.
func (o *Obligation) Schedulable() bool {
	return o.Type == ObligationPayable &&
		o.ApprovalStatus == ApprovalApproved &&
		o.Balance.IsPositive()
}

type ObligationFilter struct {
	Type           ObligationType
	ApprovalStatus ApprovalStatus
	Counterparty   string
}
