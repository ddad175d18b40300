package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/report"
)

type countingRepo struct {
	customer, product, month, total int
}

func (r *countingRepo) RevenueByCustomer(context.Context, time.Time, time.Time) ([]report.CustomerRevenue, error) {
	r.customer++
	return nil, nil
}

func (r *countingRepo) RevenueByProduct(context.Context, time.Time, time.Time) ([]report.ProductRevenue, error) {
	r.product++
	return nil, nil
}

func (r *countingRepo) RevenueByMonth(context.Context, int) ([]report.MonthRevenue, error) {
	r.month++
	return nil, nil
}

func (r *countingRepo) TotalRevenue(context.Context, time.Time, time.Time) (report.Summary, error) {
	r.total++
	return report.Summary{}, nil
}

func TestReportWarmupHandlerWarmsAllReports(t *testing.T) {
	repo := &countingRepo{}
	svc := &report.Service{Repo: repo, Logger: zerolog.Nop()}

	task, err := NewReportWarmupTask(ReportWarmupPayload{At: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	handler := ReportWarmupHandler(svc, zerolog.Nop())
	require.NoError(t, handler(context.Background(), task))

	assert.Equal(t, 1, repo.customer)
	assert.Equal(t, 1, repo.product)
	assert.Equal(t, 1, repo.month)
	assert.Equal(t, 1, repo.total)
}

func TestWorkerConcurrencyDefaults(t *testing.T) {
	assert.Equal(t, 5, workerConcurrency(0))
	assert.Equal(t, 5, workerConcurrency(-3))
	assert.Equal(t, 12, workerConcurrency(12))
}

func TestReportWarmupHandlerDefaultsToNow(t *testing.T) {
	repo := &countingRepo{}
	svc := &report.Service{Repo: repo, Logger: zerolog.Nop()}

	task, err := NewReportWarmupTask(ReportWarmupPayload{})
	require.NoError(t, err)

	handler := ReportWarmupHandler(svc, zerolog.Nop())
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, 1, repo.total)
}
