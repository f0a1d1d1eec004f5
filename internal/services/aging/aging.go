// Package aging buckets obligations by elapsed time against a reference date
// and derives credit risk levels for client accounts. Everything here is pure:
// no I/O, deterministic given inputs.
package aging

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bucket string

const (
	BucketCurrent  Bucket = "current"
	BucketUpcoming Bucket = "upcoming"
	BucketOverdue  Bucket = "overdue"
)

// DefaultWindowDays is the near-term window used when a caller does not
// configure one.
const DefaultWindowDays = 7

type Classification struct {
	Bucket Bucket `json:"bucket"`
	// Days is days overdue when Bucket is overdue, days remaining otherwise.
	Days int `json:"days"`
}

// Classify buckets a due date relative to asOf in whole calendar days.
func Classify(dueDate, asOf time.Time, windowDays int) Classification {
	diff := daysBetween(asOf, dueDate)
	switch {
	case diff < 0:
		return Classification{Bucket: BucketOverdue, Days: -diff}
	case diff <= windowDays:
		return Classification{Bucket: BucketUpcoming, Days: diff}
	default:
		return Classification{Bucket: BucketCurrent, Days: diff}
	}
}

// Receivable aging report buckets, fixed thresholds at 0/30/60/90 days.
const (
	ReceivableCurrent = "current"
	Receivable1To30   = "1-30"
	Receivable31To60  = "31-60"
	Receivable61To90  = "61-90"
	ReceivableOver90  = "over90"
)

// ReceivableBucket maps days overdue to the fine-grained aging buckets used
// by receivables reports. Exactly 30 days lands in 1-30, exactly 31 in 31-60.
func ReceivableBucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return ReceivableCurrent
	case daysOverdue <= 30:
		return Receivable1To30
	case daysOverdue <= 60:
		return Receivable31To60
	case daysOverdue <= 90:
		return Receivable61To90
	default:
		return ReceivableOver90
	}
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type CreditState string

const (
	CreditWithinLimit CreditState = "ok"
	CreditExceeded    CreditState = "exceeded"
)

type CreditRisk struct {
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	CreditAvailable decimal.Decimal `json:"credit_available"`
	PendingInvoices int             `json:"pending_invoices"`
	Level           RiskLevel       `json:"level"`
	State           CreditState     `json:"state"`
}

var (
	ratioLow    = decimal.NewFromFloat(0.5)
	ratioMedium = decimal.NewFromFloat(0.8)
	ratioHigh   = decimal.NewFromInt(1)
)

// AssessCredit derives a risk level from the utilization ratio used/limit.
// An account over its limit is critical and flagged exceeded regardless of
// anything else; a zero limit with usage counts as over limit.
func AssessCredit(limit, used decimal.Decimal, pendingInvoices int) CreditRisk {
	r := CreditRisk{
		CreditLimit:     limit,
		CreditUsed:      used,
		CreditAvailable: limit.Sub(used),
		PendingInvoices: pendingInvoices,
		State:           CreditWithinLimit,
	}

	switch {
	case limit.IsZero():
		if used.IsPositive() {
			r.Level = RiskCritical
		} else {
			r.Level = RiskLow
		}
	default:
		ratio := used.Div(limit)
		switch {
		case ratio.LessThanOrEqual(ratioLow):
			r.Level = RiskLow
		case ratio.LessThanOrEqual(ratioMedium):
			r.Level = RiskMedium
		case ratio.LessThanOrEqual(ratioHigh):
			r.Level = RiskHigh
		default:
			r.Level = RiskCritical
		}
	}

	if r.CreditAvailable.IsNegative() {
		r.Level = RiskCritical
		r.State = CreditExceeded
	}
	return r
}
