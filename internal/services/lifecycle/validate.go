package lifecycle

import (
	"strings"
	"time"

	"payables_service/internal/apierror"
	"payables_service/internal/models"

	"github.com/shopspring/decimal"
)

// CreateScheduleRequest carries the fields of one planned disbursement.
// RequiresApproval nil means "unspecified" and defaults to true; the threshold
// policy can force it to true but never to false.
type CreateScheduleRequest struct {
	ScheduledDate    time.Time
	Amount           decimal.Decimal
	Method           models.PaymentMethod
	BankAccount      string
	CheckNumber      string
	Reference        string
	Notes            string
	RequiresApproval *bool
	// Installments > 1 splits the amount into that many monthly schedules.
	Installments int
}

// validate enforces the field-level rules in order: date, amount, method,
// method-conditional fields. Called before any store access so a failure
// never touches state.
func (r *CreateScheduleRequest) validate(today time.Time) error {
	if r.ScheduledDate.IsZero() {
		return apierror.New(apierror.ErrInvalidDate, "scheduled_date is required")
	}
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	if day(r.ScheduledDate).Before(day(today)) {
		return apierror.New(apierror.ErrInvalidDate, "scheduled_date must not be in the past")
	}
	if !r.Amount.IsPositive() {
		return apierror.New(apierror.ErrInvalidAmount, "amount must be greater than zero")
	}
	if !r.Method.Valid() {
		return apierror.Newf(apierror.ErrInvalidMethod, "unknown payment method %q", r.Method)
	}
	if r.Method == models.MethodTransfer && strings.TrimSpace(r.BankAccount) == "" {
		return apierror.New(apierror.ErrMissingBankAccount, "bank_account is required for transfers")
	}
	if r.Method == models.MethodCheck && strings.TrimSpace(r.CheckNumber) == "" {
		return apierror.New(apierror.ErrMissingCheckNumber, "check_number is required for check payments")
	}
	return nil
}
