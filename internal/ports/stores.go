package ports

import (
	"context"

	"payables_service/internal/models"

	"github.com/shopspring/decimal"
)

type ObligationStore interface {
	Create(ctx context.Context, o *models.Obligation) error
	Get(ctx context.Context, id string) (*models.Obligation, error)
	List(ctx context.Context, f models.ObligationFilter) ([]models.Obligation, error)
	SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error
}

type ScheduleStore interface {
	Create(ctx context.Context, s *models.PaymentSchedule) error
	// CreateBatch inserts installment rows in one round trip; the returned
	// slice holds a per-row error, index-aligned with the input.
	CreateBatch(ctx context.Context, rows []models.PaymentSchedule) []error
	Get(ctx context.Context, id string) (*models.PaymentSchedule, error)
	// HasOpenSchedule reports whether the obligation already has a schedule
	// in a non-terminal status.
	HasOpenSchedule(ctx context.Context, obligationID string) (bool, error)
	// UpdateTransition persists a state transition guarded by the version the
	// caller read. A version mismatch on an existing row yields
	// CONCURRENCY_CONFLICT.
	UpdateTransition(ctx context.Context, s *models.PaymentSchedule, expectedVersion int64) error
	// CompleteTransition persists the move to completed and decreases the
	// obligation balance by the schedule amount in one transaction, so an
	// error means neither write happened.
	CompleteTransition(ctx context.Context, s *models.PaymentSchedule, expectedVersion int64) error
	List(ctx context.Context, f models.ScheduleFilter) ([]models.PaymentSchedule, error)
	Summary(ctx context.Context, f models.ScheduleFilter) ([]models.StatusSummary, error)
}

// DecisionLog records approve/reject actions. Entries are append-only.
type DecisionLog interface {
	Insert(ctx context.Context, d models.ApprovalDecision) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ApprovalDecision, error)
}

// ApprovalPolicy is the injected authority-tier configuration. The lifecycle
// service is agnostic to the concrete thresholds.
type ApprovalPolicy interface {
	RequiresApproval(amount decimal.Decimal) bool
	CanApprove(amount decimal.Decimal, authorityLevel int) bool
}
