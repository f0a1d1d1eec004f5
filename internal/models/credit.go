package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditAccount holds the credit terms granted to a client, used by the
// credit-risk report.
type CreditAccount struct {
	ClientID        string          `json:"client_id"`
	ClientName      string          `json:"client_name"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	PendingInvoices int             `json:"pending_invoices"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
