package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payables_service/internal/apierror"
	"payables_service/internal/config/connections/postgres"
	"payables_service/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ObligationsRepo struct {
	pg *postgres.Postgres
}

func NewObligationsRepo(pg *postgres.Postgres) *ObligationsRepo {
	return &ObligationsRepo{pg: pg}
}

const insertObligationQuery = `
	INSERT INTO obligations (
		id, type, counterparty, reference, amount, balance,
		due_date, approval_status, created_at, updated_at
	)
	VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6::numeric, $7::date, $8, NOW(), NOW())
	RETURNING created_at, updated_at
`

func (r *ObligationsRepo) Create(ctx context.Context, o *models.Obligation) error {
	err := r.pg.Pool.QueryRow(ctx, insertObligationQuery,
		o.ID, o.Type, o.Counterparty, o.Reference,
		o.Amount.String(), o.Balance.String(),
		o.DueDate, o.ApprovalStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}
	return nil
}

const selectObligationQuery = `
	SELECT id, type, counterparty, reference, amount::text, balance::text,
	       due_date, approval_status, created_at, updated_at
	FROM obligations
`

func (r *ObligationsRepo) Get(ctx context.Context, id string) (*models.Obligation, error) {
	var o models.Obligation
	op := func() error {
		err := scanObligation(r.pg.Pool.QueryRow(ctx, selectObligationQuery+` WHERE id = $1::uuid`, id), &o)
		if errors.Is(err, pgx.ErrNoRows) {
			return backoff.Permanent(apierror.Newf(apierror.ErrNotFound, "obligation %s not found", id))
		}
		return err
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ObligationsRepo) List(ctx context.Context, f models.ObligationFilter) ([]models.Obligation, error) {
	query := selectObligationQuery + ` WHERE 1=1`
	args := []any{}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.ApprovalStatus != "" {
		args = append(args, f.ApprovalStatus)
		query += fmt.Sprintf(" AND approval_status = $%d", len(args))
	}
	if f.Counterparty != "" {
		args = append(args, f.Counterparty)
		query += fmt.Sprintf(" AND counterparty = $%d", len(args))
	}
	query += ` ORDER BY due_date ASC`

	var out []models.Obligation
	op := func() error {
		rows, err := r.pg.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var o models.Obligation
			if err := scanObligation(rows, &o); err != nil {
				return backoff.Permanent(err)
			}
			out = append(out, o)
		}
		return rows.Err()
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	return out, nil
}

const updateApprovalStatusQuery = `
	UPDATE obligations SET approval_status = $2, updated_at = NOW()
	WHERE id = $1::uuid
`

func (r *ObligationsRepo) SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	tag, err := r.pg.Pool.Exec(ctx, updateApprovalStatusQuery, id, status)
	if err != nil {
		return fmt.Errorf("failed to update approval status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Newf(apierror.ErrNotFound, "obligation %s not found", id)
	}
	return nil
}

func scanObligation(row pgx.Row, o *models.Obligation) error {
	var amount, balance string
	var dueDate time.Time
	err := row.Scan(
		&o.ID, &o.Type, &o.Counterparty, &o.Reference,
		&amount, &balance, &dueDate, &o.ApprovalStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	o.DueDate = dueDate
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if o.Balance, err = decimal.NewFromString(balance); err != nil {
		return fmt.Errorf("bad balance %q: %w", balance, err)
	}
	return nil
}
