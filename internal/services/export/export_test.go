package export

import (
	"context"
	"testing"
	"time"

	"payables_service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeObligations struct {
	items []models.Obligation
}

func (f *fakeObligations) Create(context.Context, *models.Obligation) error { return nil }
func (f *fakeObligations) Get(context.Context, string) (*models.Obligation, error) {
	return nil, nil
}
func (f *fakeObligations) SetApprovalStatus(context.Context, string, models.ApprovalStatus) error {
	return nil
}
func (f *fakeObligations) List(_ context.Context, filter models.ObligationFilter) ([]models.Obligation, error) {
	out := make([]models.Obligation, 0)
	for _, o := range f.items {
		if filter.Type != "" && o.Type != filter.Type {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func receivable(counterparty, ref string, due time.Time, balance int64) models.Obligation {
	return models.Obligation{
		ID:           ref,
		Type:         models.ObligationReceivable,
		Counterparty: counterparty,
		Reference:    ref,
		Amount:       decimal.NewFromInt(balance),
		Balance:      decimal.NewFromInt(balance),
		DueDate:      due,
	}
}

func TestBuildAgingReport(t *testing.T) {
	asOf := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeObligations{items: []models.Obligation{
		receivable("Norte SA", "F-001", asOf.AddDate(0, 0, 10), 120000),     // current
		receivable("Norte SA", "F-002", asOf.AddDate(0, 0, -15), 30000),     // 1-30
		receivable("Riegos SL", "F-003", asOf.AddDate(0, 0, -45), 55000),    // 31-60
		receivable("Riegos SL", "F-004", asOf.AddDate(0, 0, -100), 9000),    // over90
		receivable("Cobrado SL", "F-005", asOf.AddDate(0, 0, -200), 0),      // settled, skipped
		{ID: "P-1", Type: models.ObligationPayable, Balance: decimal.NewFromInt(500)}, // filtered out
	}}

	svc := NewService(store, nil, nil, nil, nil)
	report, err := svc.BuildAgingReport(context.Background(), asOf)

	require.NoError(t, err)
	require.Len(t, report.Rows, 4)

	assert.Equal(t, 1, report.RowsPer["current"])
	assert.Equal(t, 1, report.RowsPer["1-30"])
	assert.Equal(t, 1, report.RowsPer["31-60"])
	assert.Equal(t, 1, report.RowsPer["over90"])
	assert.True(t, report.Totals["1-30"].Equal(decimal.NewFromInt(30000)))
	assert.True(t, report.Totals["over90"].Equal(decimal.NewFromInt(9000)))

	for _, row := range report.Rows {
		if row.Bucket == "current" {
			assert.Zero(t, row.DaysOverdue)
		} else {
			assert.Positive(t, row.DaysOverdue)
		}
	}
}

func TestRenderAgingWorkbook(t *testing.T) {
	asOf := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeObligations{items: []models.Obligation{
		receivable("Norte SA", "F-001", asOf.AddDate(0, 0, -5), 42000),
	}}
	svc := NewService(store, nil, nil, nil, nil)
	report, err := svc.BuildAgingReport(context.Background(), asOf)
	require.NoError(t, err)

	buf, err := renderAgingWorkbook(report)
	require.NoError(t, err)
	require.Positive(t, buf.Len())

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Aging")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Counterparty", rows[0][0])
	assert.Equal(t, "Norte SA", rows[1][0])
	assert.Equal(t, "42000", rows[1][3])
	assert.Equal(t, "1-30", rows[1][5])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "1-30", summary[1][0])
}

type fakeCredit struct {
	accounts []models.CreditAccount
}

func (f *fakeCredit) List(context.Context) ([]models.CreditAccount, error) {
	return f.accounts, nil
}

func TestBuildCreditRiskReport(t *testing.T) {
	credit := &fakeCredit{accounts: []models.CreditAccount{
		{ClientName: "Norte SA", CreditLimit: decimal.NewFromInt(100000), CreditUsed: decimal.NewFromInt(40000), PendingInvoices: 2},
		{ClientName: "Riegos SL", CreditLimit: decimal.NewFromInt(100000), CreditUsed: decimal.NewFromInt(105000), PendingInvoices: 5},
	}}
	svc := NewService(nil, credit, nil, nil, nil)

	rows, err := svc.BuildCreditRiskReport(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "low", string(rows[0].Level))
	assert.Equal(t, "critical", string(rows[1].Level))
	assert.Equal(t, "exceeded", string(rows[1].State))

	buf, err := renderCreditRiskWorkbook(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	sheet, err := f.GetRows("Credit Risk")
	require.NoError(t, err)
	require.Len(t, sheet, 3)
	assert.Equal(t, "Riegos SL", sheet[2][0])
	assert.Equal(t, "-5000", sheet[2][3])
}
