package database

import (
	"context"
	"fmt"

	"payables_service/internal/config/connections/postgres"
	"payables_service/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

type CreditRepo struct {
	pg *postgres.Postgres
}

func NewCreditRepo(pg *postgres.Postgres) *CreditRepo {
	return &CreditRepo{pg: pg}
}

const selectCreditAccountsQuery = `
	SELECT client_id, client_name, credit_limit::text, credit_used::text,
	       pending_invoices, updated_at
	FROM credit_accounts
	ORDER BY client_name
`

func (r *CreditRepo) List(ctx context.Context) ([]models.CreditAccount, error) {
	var out []models.CreditAccount
	op := func() error {
		rows, err := r.pg.Pool.Query(ctx, selectCreditAccountsQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var a models.CreditAccount
			var limit, used string
			if err := rows.Scan(&a.ClientID, &a.ClientName, &limit, &used, &a.PendingInvoices, &a.UpdatedAt); err != nil {
				return backoff.Permanent(err)
			}
			if a.CreditLimit, err = decimal.NewFromString(limit); err != nil {
				return backoff.Permanent(fmt.Errorf("bad credit_limit %q: %w", limit, err))
			}
			if a.CreditUsed, err = decimal.NewFromString(used); err != nil {
				return backoff.Permanent(fmt.Errorf("bad credit_used %q: %w", used, err))
			}
			out = append(out, a)
		}
		return rows.Err()
	}
	if err := readRetry(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to list credit accounts: %w", err)
	}
	return out, nil
}
