// Package export renders aging and credit-risk reports as xlsx workbooks and
// stores them in S3, recording each run in the audit store.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	mg "payables_service/internal/config/connections/mongo"
	"payables_service/internal/config/connections/s3"
	"payables_service/internal/models"
	"payables_service/internal/ports"
	"payables_service/internal/repository/audit"
	"payables_service/internal/services/aging"

	"github.com/minio/minio-go/v7"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreditLister supplies the accounts the credit-risk report assesses.
type CreditLister interface {
	List(ctx context.Context) ([]models.CreditAccount, error)
}

type Service struct {
	obligations ports.ObligationStore
	credit      CreditLister
	s3          *s3.S3
	mongo       *mg.Mongo
	log         *logrus.Logger
}

func NewService(obligations ports.ObligationStore, credit CreditLister, s3c *s3.S3, m *mg.Mongo, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{obligations: obligations, credit: credit, s3: s3c, mongo: m, log: log}
}

// AgingRow is one receivable classified against the reference date.
type AgingRow struct {
	Counterparty string          `json:"counterparty"`
	Reference    string          `json:"reference"`
	DueDate      time.Time       `json:"due_date"`
	Balance      decimal.Decimal `json:"balance"`
	DaysOverdue  int             `json:"days_overdue"`
	Bucket       string          `json:"bucket"`
}

// AgingReport groups open receivables into the fixed aging buckets.
type AgingReport struct {
	AsOf    time.Time                  `json:"as_of"`
	Rows    []AgingRow                 `json:"rows"`
	Totals  map[string]decimal.Decimal `json:"totals"`
	RowsPer map[string]int             `json:"counts"`
}

// BuildAgingReport classifies every open receivable as of the given date.
func (s *Service) BuildAgingReport(ctx context.Context, asOf time.Time) (*AgingReport, error) {
	receivables, err := s.obligations.List(ctx, models.ObligationFilter{Type: models.ObligationReceivable})
	if err != nil {
		return nil, err
	}

	report := &AgingReport{
		AsOf:    asOf,
		Rows:    make([]AgingRow, 0, len(receivables)),
		Totals:  make(map[string]decimal.Decimal),
		RowsPer: make(map[string]int),
	}
	for _, o := range receivables {
		if !o.Balance.IsPositive() {
			continue
		}
		cls := aging.Classify(o.DueDate, asOf, aging.DefaultWindowDays)
		daysOverdue := 0
		if cls.Bucket == aging.BucketOverdue {
			daysOverdue = cls.Days
		}
		bucket := aging.ReceivableBucket(daysOverdue)
		report.Rows = append(report.Rows, AgingRow{
			Counterparty: o.Counterparty,
			Reference:    o.Reference,
			DueDate:      o.DueDate,
			Balance:      o.Balance,
			DaysOverdue:  daysOverdue,
			Bucket:       bucket,
		})
		report.Totals[bucket] = report.Totals[bucket].Add(o.Balance)
		report.RowsPer[bucket]++
	}
	return report, nil
}

// ExportAging builds the aging workbook, uploads it and records the run.
func (s *Service) ExportAging(ctx context.Context, asOf time.Time, actor *models.Actor) (*audit.ExportRecord, error) {
	report, err := s.BuildAgingReport(ctx, asOf)
	if err != nil {
		return nil, err
	}
	buf, err := renderAgingWorkbook(report)
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return s.storeWorkbook(ctx, "aging", asOf, buf, len(report.Rows), actor)
}

// CreditRiskRow pairs a client with its assessed credit risk.
type CreditRiskRow struct {
	Client string `json:"client"`
	aging.CreditRisk
}

// BuildCreditRiskReport assesses every client credit account.
func (s *Service) BuildCreditRiskReport(ctx context.Context) ([]CreditRiskRow, error) {
	accounts, err := s.credit.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]CreditRiskRow, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, CreditRiskRow{
			Client:     a.ClientName,
			CreditRisk: aging.AssessCredit(a.CreditLimit, a.CreditUsed, a.PendingInvoices),
		})
	}
	return rows, nil
}

// ExportCreditRisk builds the credit-risk workbook, uploads it and records the
// run.
func (s *Service) ExportCreditRisk(ctx context.Context, actor *models.Actor) (*audit.ExportRecord, error) {
	asOf := time.Now().UTC()
	rows, err := s.BuildCreditRiskReport(ctx)
	if err != nil {
		return nil, err
	}
	buf, err := renderCreditRiskWorkbook(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return s.storeWorkbook(ctx, "credit-risk", asOf, buf, len(rows), actor)
}

func (s *Service) storeWorkbook(ctx context.Context, report string, asOf time.Time, buf *bytes.Buffer, rowCount int, actor *models.Actor) (*audit.ExportRecord, error) {
	key := fmt.Sprintf("reports/%d-%s.xlsx", time.Now().UnixNano(), report)
	info, err := s.s3.Client.PutObject(ctx, s.s3.Bucket, key, buf, int64(buf.Len()),
		minio.PutObjectOptions{ContentType: xlsxContentType})
	if err != nil {
		return nil, fmt.Errorf("failed to store workbook: %w", err)
	}

	rec := audit.ExportRecord{
		Report:    report,
		Status:    "done",
		AsOf:      asOf,
		Bucket:    s.s3.Bucket,
		Key:       key,
		SizeBytes: info.Size,
		RowCount:  rowCount,
	}
	if actor != nil {
		rec.CreatedBy = &actor.ID
	}
	ins, err := audit.InsertExportRecord(ctx, s.mongo, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}
	rec.ID = ins.InsertedID

	s.log.WithFields(logrus.Fields{
		"report": report,
		"key":    key,
		"rows":   rec.RowCount,
		"size":   rec.SizeBytes,
	}).Info("[EXPORT] workbook stored")
	return &rec, nil
}

var agingBucketOrder = []string{
	aging.ReceivableCurrent,
	aging.Receivable1To30,
	aging.Receivable31To60,
	aging.Receivable61To90,
	aging.ReceivableOver90,
}

func renderAgingWorkbook(report *AgingReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Aging"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"Counterparty", "Reference", "Due Date", "Balance", "Days Overdue", "Bucket"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range report.Rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{
			row.Counterparty,
			row.Reference,
			row.DueDate.Format("2006-01-02"),
			row.Balance.String(),
			row.DaysOverdue,
			row.Bucket,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(summary, "A1", &[]any{"Bucket", "Count", "Total"}); err != nil {
		return nil, err
	}
	line := 2
	for _, bucket := range agingBucketOrder {
		if report.RowsPer[bucket] == 0 {
			continue
		}
		values := []any{bucket, report.RowsPer[bucket], report.Totals[bucket].String()}
		if err := f.SetSheetRow(summary, fmt.Sprintf("A%d", line), &values); err != nil {
			return nil, err
		}
		line++
	}

	return f.WriteToBuffer()
}

func renderCreditRiskWorkbook(rows []CreditRiskRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Credit Risk"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"Client", "Credit Limit", "Credit Used", "Available", "Pending Invoices", "Level", "State"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		values := []any{
			row.Client,
			row.CreditLimit.String(),
			row.CreditUsed.String(),
			row.CreditAvailable.String(),
			row.PendingInvoices,
			string(row.Level),
			string(row.State),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}
