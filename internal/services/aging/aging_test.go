package aging

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	asOf := day(2026, 3, 10)

	tests := []struct {
		name   string
		due    time.Time
		window int
		bucket Bucket
		days   int
	}{
		{"due yesterday", day(2026, 3, 9), 7, BucketOverdue, 1},
		{"due long ago", day(2026, 1, 10), 7, BucketOverdue, 59},
		{"due today", day(2026, 3, 10), 7, BucketUpcoming, 0},
		{"due at window edge", day(2026, 3, 17), 7, BucketUpcoming, 7},
		{"due past window", day(2026, 3, 18), 7, BucketCurrent, 8},
		{"due in five days", day(2026, 3, 15), 7, BucketUpcoming, 5},
		{"zero window due today", day(2026, 3, 10), 0, BucketUpcoming, 0},
		{"zero window due tomorrow", day(2026, 3, 11), 0, BucketCurrent, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.due, asOf, tt.window)
			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.days, got.Days)
		})
	}
}

func TestClassify_ignoresTimeOfDay(t *testing.T) {
	due := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	got := Classify(due, asOf, 7)
	assert.Equal(t, BucketUpcoming, got.Bucket)
	assert.Equal(t, 1, got.Days)
}

func TestClassify_overdueIffDueBeforeReference(t *testing.T) {
	asOf := day(2026, 6, 1)
	for window := 0; window <= 30; window += 5 {
		for offset := -40; offset <= 40; offset++ {
			due := asOf.AddDate(0, 0, offset)
			got := Classify(due, asOf, window)
			switch {
			case offset < 0:
				require.Equal(t, BucketOverdue, got.Bucket, "offset=%d window=%d", offset, window)
				require.Equal(t, -offset, got.Days)
			case offset <= window:
				require.Equal(t, BucketUpcoming, got.Bucket, "offset=%d window=%d", offset, window)
				require.Equal(t, offset, got.Days)
			default:
				require.Equal(t, BucketCurrent, got.Bucket, "offset=%d window=%d", offset, window)
				require.Equal(t, offset, got.Days)
			}
		}
	}
}

func TestReceivableBucket_boundaries(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, ReceivableCurrent},
		{-3, ReceivableCurrent},
		{1, Receivable1To30},
		{30, Receivable1To30},
		{31, Receivable31To60},
		{60, Receivable31To60},
		{61, Receivable61To90},
		{90, Receivable61To90},
		{91, ReceivableOver90},
		{365, ReceivableOver90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReceivableBucket(tt.days), "days=%d", tt.days)
	}
}

func TestAssessCredit_levels(t *testing.T) {
	limit := decimal.NewFromInt(100000)

	tests := []struct {
		name  string
		used  int64
		level RiskLevel
		state CreditState
	}{
		{"half used", 50000, RiskLow, CreditWithinLimit},
		{"just above half", 50001, RiskMedium, CreditWithinLimit},
		{"eighty percent", 80000, RiskMedium, CreditWithinLimit},
		{"above eighty", 80001, RiskHigh, CreditWithinLimit},
		{"at limit", 100000, RiskHigh, CreditWithinLimit},
		{"over limit", 100001, RiskCritical, CreditExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessCredit(limit, decimal.NewFromInt(tt.used), 3)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.state, got.State)
		})
	}
}

func TestAssessCredit_exceededAccount(t *testing.T) {
	got := AssessCredit(decimal.NewFromInt(100000), decimal.NewFromInt(105000), 4)

	assert.True(t, got.CreditAvailable.Equal(decimal.NewFromInt(-5000)))
	assert.Equal(t, RiskCritical, got.Level)
	assert.Equal(t, CreditExceeded, got.State)
	assert.Equal(t, 4, got.PendingInvoices)
}

func TestAssessCredit_zeroLimit(t *testing.T) {
	withUsage := AssessCredit(decimal.Zero, decimal.NewFromInt(10), 1)
	assert.Equal(t, RiskCritical, withUsage.Level)
	assert.Equal(t, CreditExceeded, withUsage.State)

	unused := AssessCredit(decimal.Zero, decimal.Zero, 0)
	assert.Equal(t, RiskLow, unused.Level)
	assert.Equal(t, CreditWithinLimit, unused.State)
}
