// Package lifecycle owns the payment schedule state machine: scheduling,
// the approval gate, execution and cancellation. All validation happens
// before any write; a returned error always means nothing changed.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"payables_service/internal/apierror"
	"payables_service/internal/models"
	"payables_service/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	obligations ports.ObligationStore
	schedules   ports.ScheduleStore
	decisions   ports.DecisionLog
	policy      ports.ApprovalPolicy
	log         *logrus.Logger

	now func() time.Time
}

func NewService(
	obligations ports.ObligationStore,
	schedules ports.ScheduleStore,
	decisions ports.DecisionLog,
	policy ports.ApprovalPolicy,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		obligations: obligations,
		schedules:   schedules,
		decisions:   decisions,
		policy:      policy,
		log:         log,
		now:         time.Now,
	}
}

// ListResult is the immutable snapshot returned per call; callers own their
// own cache/refresh policy.
type ListResult struct {
	Data    []models.PaymentSchedule `json:"data"`
	Summary []models.StatusSummary   `json:"summary"`
}

// CreateSchedule validates the request, checks obligation eligibility and
// persists a new schedule. When the resolved requiresApproval flag is false
// the schedule is completed immediately (implicit approve + execute).
func (s *Service) CreateSchedule(ctx context.Context, obligationID string, req CreateScheduleRequest, actor models.Actor) (*models.PaymentSchedule, error) {
	if err := req.validate(s.now()); err != nil {
		return nil, err
	}

	obl, err := s.obligations.Get(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if !obl.Schedulable() {
		return nil, apierror.Newf(apierror.ErrObligationNotEligible,
			"obligation %s is not an approved payable with outstanding balance", obligationID)
	}
	if req.Amount.GreaterThan(obl.Balance) {
		return nil, apierror.Newf(apierror.ErrInvalidAmount,
			"amount %s exceeds outstanding balance %s", req.Amount, obl.Balance)
	}

	open, err := s.schedules.HasOpenSchedule(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, apierror.Newf(apierror.ErrObligationNotEligible,
			"obligation %s already has an open schedule", obligationID)
	}

	if req.Installments > 1 {
		rows, err := s.seedInstallments(ctx, obl, req, actor)
		if err != nil {
			return nil, err
		}
		return &rows[0], nil
	}

	sched := s.buildSchedule(obl, req, actor)
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"schedule_id":   sched.ID,
		"obligation_id": obligationID,
		"amount":        sched.Amount,
	}).Info("[LIFECYCLE][CREATE] schedule created")

	if !sched.RequiresApproval {
		return s.autoComplete(ctx, sched, actor)
	}
	return sched, nil
}

func (s *Service) buildSchedule(obl *models.Obligation, req CreateScheduleRequest, actor models.Actor) *models.PaymentSchedule {
	requires := true
	if req.RequiresApproval != nil {
		requires = *req.RequiresApproval
	}
	// Policy can demand the gate, never waive it.
	if s.policy.RequiresApproval(req.Amount) {
		requires = true
	}
	return &models.PaymentSchedule{
		ID:               uuid.NewString(),
		ObligationID:     obl.ID,
		ScheduledDate:    req.ScheduledDate,
		Amount:           req.Amount,
		Method:           req.Method,
		BankAccount:      strings.TrimSpace(req.BankAccount),
		CheckNumber:      strings.TrimSpace(req.CheckNumber),
		Reference:        strings.TrimSpace(req.Reference),
		Notes:            strings.TrimSpace(req.Notes),
		RequiresApproval: requires,
		Status:           models.ScheduleScheduled,
		Version:          1,
		CreatedBy:        actor.ID,
		CreatedAt:        s.now().UTC(),
	}
}

// autoComplete performs the implicit approve+execute path for schedules below
// the approval threshold. One auto-approved decision entry keeps the trail
// complete.
func (s *Service) autoComplete(ctx context.Context, sched *models.PaymentSchedule, actor models.Actor) (*models.PaymentSchedule, error) {
	now := s.now().UTC()
	updated := *sched
	updated.Status = models.ScheduleCompleted
	updated.ApprovedBy = &actor.ID
	updated.ApprovedAt = &now
	updated.CompletedBy = &actor.ID
	updated.CompletedAt = &now

	if err := s.schedules.CompleteTransition(ctx, &updated, sched.Version); err != nil {
		return nil, err
	}
	s.recordDecision(ctx, &updated, models.DecisionApproved, actor, nil, nil, true)
	s.log.WithField("schedule_id", updated.ID).Info("[LIFECYCLE][AUTO] completed without gate")
	return &updated, nil
}

// seedInstallments splits the amount into n monthly schedules, last one
// carrying the rounding remainder, and inserts them in one batch. The
// one-open-schedule rule was already checked against pre-existing rows; the
// batch itself is the one sanctioned exception to it.
func (s *Service) seedInstallments(ctx context.Context, obl *models.Obligation, req CreateScheduleRequest, actor models.Actor) ([]models.PaymentSchedule, error) {
	n := req.Installments
	per := req.Amount.DivRound(decimal.NewFromInt(int64(n)), 2)
	last := req.Amount.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	// Rounding can starve a row (0.02 over 3) or push the remainder negative;
	// every installment must hold a positive amount.
	if !per.IsPositive() || !last.IsPositive() {
		return nil, apierror.Newf(apierror.ErrInvalidAmount,
			"amount %s cannot be split into %d positive installments", req.Amount, n)
	}

	rows := make([]models.PaymentSchedule, 0, n)
	for i := 0; i < n; i++ {
		part := req
		part.Amount = per
		if i == n-1 {
			part.Amount = last
		}
		part.ScheduledDate = req.ScheduledDate.AddDate(0, i, 0)
		sched := s.buildSchedule(obl, part, actor)
		// Installments always pass the gate individually.
		sched.RequiresApproval = true
		rows = append(rows, *sched)
	}

	errs := s.schedules.CreateBatch(ctx, rows)
	for i, err := range errs {
		if err != nil {
			s.log.WithError(err).WithField("schedule_id", rows[i].ID).
				Error("[LIFECYCLE][SEED] installment insert failed")
			return nil, err
		}
	}
	s.log.WithFields(logrus.Fields{
		"obligation_id": obl.ID,
		"installments":  n,
	}).Info("[LIFECYCLE][SEED] installment schedules created")
	return rows, nil
}

// Decide processes an approve or reject action. Wrong source state, a missing
// rejection reason or insufficient authority all fail before any mutation.
func (s *Service) Decide(ctx context.Context, scheduleID string, outcome models.DecisionOutcome, actor models.Actor, notes, reason string) (*models.PaymentSchedule, error) {
	reason = strings.TrimSpace(reason)
	if outcome == models.DecisionRejected && reason == "" {
		return nil, apierror.New(apierror.ErrMissingReason, "a rejection reason is required")
	}

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != models.ScheduleScheduled {
		return nil, apierror.Newf(apierror.ErrInvalidTransition,
			"schedule %s is %s, decisions are only valid from scheduled", scheduleID, sched.Status)
	}

	now := s.now().UTC()
	updated := *sched
	switch outcome {
	case models.DecisionApproved:
		if !s.policy.CanApprove(sched.Amount, actor.AuthorityLevel) {
			return nil, apierror.Newf(apierror.ErrForbidden,
				"actor %s lacks authority to approve %s", actor.ID, sched.Amount)
		}
		updated.Status = models.ScheduleApproved
		updated.ApprovedBy = &actor.ID
		updated.ApprovedAt = &now
	case models.DecisionRejected:
		updated.Status = models.ScheduleRejected
		updated.RejectedBy = &actor.ID
		updated.RejectedAt = &now
		updated.RejectionReason = &reason
	default:
		return nil, apierror.Newf(apierror.ErrValidation, "unknown outcome %q", outcome)
	}

	if err := s.schedules.UpdateTransition(ctx, &updated, sched.Version); err != nil {
		return nil, err
	}

	var notesPtr, reasonPtr *string
	if n := strings.TrimSpace(notes); n != "" {
		notesPtr = &n
	}
	if reason != "" {
		reasonPtr = &reason
	}
	s.recordDecision(ctx, &updated, outcome, actor, reasonPtr, notesPtr, false)

	s.log.WithFields(logrus.Fields{
		"schedule_id": scheduleID,
		"outcome":     outcome,
		"actor":       actor.ID,
	}).Info("[LIFECYCLE][DECIDE] decision recorded")
	return &updated, nil
}

// ApprovePayment is a thin wrapper over Decide.
func (s *Service) ApprovePayment(ctx context.Context, scheduleID string, actor models.Actor, notes string) (*models.PaymentSchedule, error) {
	return s.Decide(ctx, scheduleID, models.DecisionApproved, actor, notes, "")
}

// RejectPayment is a thin wrapper over Decide.
func (s *Service) RejectPayment(ctx context.Context, scheduleID string, actor models.Actor, reason, notes string) (*models.PaymentSchedule, error) {
	return s.Decide(ctx, scheduleID, models.DecisionRejected, actor, notes, reason)
}

// Execute moves an approved schedule to completed and applies the amount to
// the obligation balance.
func (s *Service) Execute(ctx context.Context, scheduleID string, actor models.Actor) (*models.PaymentSchedule, error) {
	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != models.ScheduleApproved {
		return nil, apierror.Newf(apierror.ErrInvalidTransition,
			"schedule %s is %s, only approved schedules execute", scheduleID, sched.Status)
	}

	now := s.now().UTC()
	updated := *sched
	updated.Status = models.ScheduleCompleted
	updated.CompletedBy = &actor.ID
	updated.CompletedAt = &now

	if err := s.schedules.CompleteTransition(ctx, &updated, sched.Version); err != nil {
		return nil, err
	}
	s.log.WithField("schedule_id", scheduleID).Info("[LIFECYCLE][EXECUTE] payment completed")
	return &updated, nil
}

// Cancel transitions a scheduled or approved schedule to cancelled.
// Cancelling an already-cancelled schedule is a no-op success; completed and
// rejected schedules refuse with INVALID_TRANSITION.
func (s *Service) Cancel(ctx context.Context, scheduleID string, actor models.Actor) (*models.PaymentSchedule, error) {
	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	switch sched.Status {
	case models.ScheduleCancelled:
		return sched, nil
	case models.ScheduleScheduled, models.ScheduleApproved:
		// cancellable, proceed
	default:
		return nil, apierror.Newf(apierror.ErrInvalidTransition,
			"schedule %s is %s and cannot be cancelled", scheduleID, sched.Status)
	}

	now := s.now().UTC()
	updated := *sched
	updated.Status = models.ScheduleCancelled
	updated.CancelledBy = &actor.ID
	updated.CancelledAt = &now

	if err := s.schedules.UpdateTransition(ctx, &updated, sched.Version); err != nil {
		return nil, err
	}
	s.log.WithField("schedule_id", scheduleID).Info("[LIFECYCLE][CANCEL] schedule cancelled")
	return &updated, nil
}

// ListSchedules returns the filtered rows plus per-status aggregates computed
// over the same filter.
func (s *Service) ListSchedules(ctx context.Context, f models.ScheduleFilter) (*ListResult, error) {
	data, err := s.schedules.List(ctx, f)
	if err != nil {
		return nil, err
	}
	summary, err := s.schedules.Summary(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{Data: data, Summary: summary}, nil
}

// Decisions returns the audit trail for one schedule.
func (s *Service) Decisions(ctx context.Context, scheduleID string) ([]models.ApprovalDecision, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.decisions.ListBySchedule(ctx, scheduleID)
}

// recordDecision appends to the audit log. The transition already committed;
// a logging failure is reported but does not unwind it.
func (s *Service) recordDecision(ctx context.Context, sched *models.PaymentSchedule, outcome models.DecisionOutcome, actor models.Actor, reason, notes *string, auto bool) {
	d := models.ApprovalDecision{
		ScheduleID:   sched.ID,
		ObligationID: sched.ObligationID,
		Outcome:      outcome,
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		Reason:       reason,
		Notes:        notes,
		AutoApproved: auto,
		DecidedAt:    s.now().UTC(),
	}
	if err := s.decisions.Insert(ctx, d); err != nil {
		s.log.WithError(err).WithField("schedule_id", sched.ID).
			Error("[LIFECYCLE][AUDIT] decision insert failed")
	}
}
