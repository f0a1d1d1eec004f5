package database

import (
	"context"
	"errors"
	"fmt"

	"payables_service/internal/apierror"
	"payables_service/internal/config/connections/postgres"
	"payables_service/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type SchedulesRepo struct {
	pg *postgres.Postgres
}

func NewSchedulesRepo(pg *postgres.Postgres) *SchedulesRepo {
	return &SchedulesRepo{pg: pg}
}

const insertScheduleQuery = `
	INSERT INTO payment_schedules (
		id, obligation_id, scheduled_date, amount, method,
		bank_account, check_number, reference, notes,
		requires_approval, status, version, created_by, created_at
	)
	VALUES (
		$1::uuid, $2::uuid, $3::date, $4::numeric, $5,
		$6, $7, $8, $9,
		$10::bool, $11, $12, $13, $14
	)
`

func (r *SchedulesRepo) Create(ctx context.Context, s *models.PaymentSchedule) error {
	_, err := r.pg.Pool.Exec(ctx, insertScheduleQuery, scheduleArgs(s)...)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *SchedulesRepo) CreateBatch(ctx context.Context, rows []models.PaymentSchedule) []error {
	errs := make([]error, len(rows))
	if len(rows) == 0 {
		return errs
	}

	batch := &pgx.Batch{}
	for i := range rows {
		batch.Queue(insertScheduleQuery, scheduleArgs(&rows[i])...)
	}

	br := r.pg.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			errs[i] = err
		}
	}
	return errs
}

func scheduleArgs(s *models.PaymentSchedule) []any {
	return []any{
		s.ID, s.ObligationID, s.ScheduledDate, s.Amount.String(), s.Method,
		s.BankAccount, s.CheckNumber, s.Reference, s.Notes,
		s.RequiresApproval, s.Status, s.Version, s.CreatedBy, s.CreatedAt,
	}
}

const selectScheduleQuery = `
	SELECT s.id, s.obligation_id, s.scheduled_date, s.amount::text, s.method,
	       s.bank_account, s.check_number, s.reference, s.notes,
	       s.requires_approval, s.status, s.version, s.created_by, s.created_at,
	       s.approved_by, s.approved_at,
	       s.rejected_by, s.rejected_at, s.rejection_reason,
	       s.completed_by, s.completed_at,
	       s.cancelled_by, s.cancelled_at
	FROM payment_schedules s
`

func (r *SchedulesRepo) Get(ctx context.Context, id string) (*models.PaymentSchedule, error) {
	var s models.PaymentSchedule
	op := func() error {
		err := scanSchedule(r.pg.Pool.QueryRow(ctx, selectScheduleQuery+` WHERE s.id = $1::uuid`, id), &s)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoff.Permanent(apierror.Newf(apierror.ErrNotFound, "schedule %s not found", id))
		}
		return err
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, err
	}
	return &s, nil
}

const openScheduleQuery = `
	SELECT EXISTS (
		SELECT 1 FROM payment_schedules
		WHERE obligation_id = $1::uuid
		  AND status NOT IN ('completed', 'cancelled', 'rejected')
	)
`

func (r *SchedulesRepo) HasOpenSchedule(ctx context.Context, obligationID string) (bool, error) {
	var open bool
	op := func() error {
		return r.pg.Pool.QueryRow(ctx, openScheduleQuery, obligationID).Scan(&open)
	}
	if err := readRetry(ctx, op); err != nil {
		return false, fmt.Errorf("failed to check open schedules: %w", err)
	}
	return open, nil
}

// UpdateTransition writes every mutable field guarded by the version the
// caller read. If the row exists but the version moved on, someone else got
// there first.
const updateScheduleQuery = `
	UPDATE payment_schedules SET
		status = $3,
		version = version + 1,
		approved_by = $4, approved_at = $5,
		rejected_by = $6, rejected_at = $7, rejection_reason = $8,
		completed_by = $9, completed_at = $10,
		cancelled_by = $11, cancelled_at = $12
	WHERE id = $1::uuid AND version = $2
`

func (r *SchedulesRepo) UpdateTransition(ctx context.Context, s *models.PaymentSchedule, expectedVersion int64) error {
	if err := transition(ctx, r.pg.Pool, s, expectedVersion); err != nil {
		return err
	}
	s.Version = expectedVersion + 1
	return nil
}

const completePaymentQuery = `
	UPDATE obligations SET balance = balance - $2::numeric, updated_at = NOW()
	WHERE id = $1::uuid
`

// CompleteTransition moves the schedule to its terminal completed state and
// applies the amount to the obligation balance in one transaction. Both tables
// live in the same database, so a failure on either side rolls back the other.
func (r *SchedulesRepo) CompleteTransition(ctx context.Context, s *models.PaymentSchedule, expectedVersion int64) error {
	tx, err := r.pg.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin completion: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := transition(ctx, tx, s, expectedVersion); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, completePaymentQuery, s.ObligationID, s.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Newf(apierror.ErrNotFound, "obligation %s not found", s.ObligationID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	s.Version = expectedVersion + 1
	return nil
}

// execQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func transition(ctx context.Context, db execQuerier, s *models.PaymentSchedule, expectedVersion int64) error {
	tag, err := db.Exec(ctx, updateScheduleQuery,
		s.ID, expectedVersion, s.Status,
		s.ApprovedBy, s.ApprovedAt,
		s.RejectedBy, s.RejectedAt, s.RejectionReason,
		s.CompletedBy, s.CompletedAt,
		s.CancelledBy, s.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM payment_schedules WHERE id = $1::uuid)`, s.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to recheck schedule: %w", err)
		}
		if !exists {
			return apierror.Newf(apierror.ErrNotFound, "schedule %s not found", s.ID)
		}
		return apierror.Newf(apierror.ErrConcurrencyConflict,
			"schedule %s was modified concurrently", s.ID)
	}
	return nil
}

func (r *SchedulesRepo) List(ctx context.Context, f models.ScheduleFilter) ([]models.PaymentSchedule, error) {
	where, args := scheduleFilterClause(f)
	query := selectScheduleQuery + scheduleFilterJoin(f) + where + ` ORDER BY s.scheduled_date ASC, s.created_at ASC`

	var out []models.PaymentSchedule
	op := func() error {
		rows, err := r.pg.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var s models.PaymentSchedule
			if err := scanSchedule(rows, &s); err != nil {
				return backoff.Permanent(err)
			}
			out = append(out, s)
		}
		return rows.Err()
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return out, nil
}

// Summary aggregates over exactly the same filter the list uses, so dashboard
// cards always reflect the visible rows.
func (r *SchedulesRepo) Summary(ctx context.Context, f models.ScheduleFilter) ([]models.StatusSummary, error) {
	where, args := scheduleFilterClause(f)
	query := `
		SELECT s.status, COUNT(*), COALESCE(SUM(s.amount), 0)::text
		FROM payment_schedules s
	` + scheduleFilterJoin(f) + where + ` GROUP BY s.status ORDER BY s.status`

	var out []models.StatusSummary
	op := func() error {
		rows, err := r.pg.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var sum models.StatusSummary
			var total string
			if err := rows.Scan(&sum.Status, &sum.Count, &total); err != nil {
				return backoff.Permanent(err)
			}
			if sum.Total, err = decimal.NewFromString(total); err != nil {
				return backoff.Permanent(fmt.Errorf("bad total %q: %w", total, err))
			}
			out = append(out, sum)
		}
		return rows.Err()
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to summarize schedules: %w", err)
	}
	return out, nil
}

func scheduleFilterJoin(f models.ScheduleFilter) string {
	if f.Counterparty != "" {
		return ` JOIN obligations o ON o.id = s.obligation_id`
	}
	return ``
}

func scheduleFilterClause(f models.ScheduleFilter) (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.ObligationID != "" {
		args = append(args, f.ObligationID)
		where += fmt.Sprintf(" AND s.obligation_id = $%d::uuid", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if f.Counterparty != "" {
		args = append(args, f.Counterparty)
		where += fmt.Sprintf(" AND o.counterparty = $%d", len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where += fmt.Sprintf(" AND s.scheduled_date >= $%d::date", len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where += fmt.Sprintf(" AND s.scheduled_date <= $%d::date", len(args))
	}
	return where, args
}

func scanSchedule(row pgx.Row, s *models.PaymentSchedule) error {
	var amount string
	err := row.Scan(
		&s.ID, &s.ObligationID, &s.ScheduledDate, &amount, &s.Method,
		&s.BankAccount, &s.CheckNumber, &s.Reference, &s.Notes,
		&s.RequiresApproval, &s.Status, &s.Version, &s.CreatedBy, &s.CreatedAt,
		&s.ApprovedBy, &s.ApprovedAt,
		&s.RejectedBy, &s.RejectedAt, &s.RejectionReason,
		&s.CompletedBy, &s.CompletedAt,
		&s.CancelledBy, &s.CancelledAt,
	)
	if err != nil {
		return err
	}
	if s.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("bad amount %q: %w", amount, err)
	}
	return nil
}
