package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

type stubRepo struct {
	customerCalls int
	totalCalls    int
}

func (s *stubRepo) RevenueByCustomer(context.Context, time.Time, time.Time) ([]CustomerRevenue, error) {
	s.customerCalls++
	return []CustomerRevenue{
		{MaKH: "KH0001", TenKH: "Cong ty TNHH An Phat", TotalRevenue: 500000, TotalPayment: 550000},
		{MaKH: "KH0002", TenKH: "Cua hang Binh Minh", TotalRevenue: 200000, TotalPayment: 220000},
	}, nil
}

func (s *stubRepo) RevenueByProduct(context.Context, time.Time, time.Time) ([]ProductRevenue, error) {
	return []ProductRevenue{
		{MaSPDV: "SP0001", TenSPDV: "Gao ST25", TotalRevenue: 400000, TotalQuantity: 4},
		{MaSPDV: "SP0002", TenSPDV: "Duong cat", TotalRevenue: 300000, TotalQuantity: 6},
		{MaSPDV: "SP0003", TenSPDV: "Muoi i-ot", TotalRevenue: 50000, TotalQuantity: 10},
	}, nil
}

func (s *stubRepo) RevenueByMonth(context.Context, int) ([]MonthRevenue, error) {
	return []MonthRevenue{{Month: 3, TotalRevenue: 700000, InvoiceCount: 2}}, nil
}

func (s *stubRepo) TotalRevenue(context.Context, time.Time, time.Time) (Summary, error) {
	s.totalCalls++
	return Summary{TotalRevenue: 700000, TotalPayment: 770000, InvoiceCount: 2}, nil
}

func newTestService(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &stubRepo{}
	return &Service{
		Repo:   repo,
		Cache:  common.NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	}, repo
}

func dateRange() (time.Time, time.Time) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func TestByCustomerCachesSecondRead(t *testing.T) {
	svc, repo := newTestService(t)
	from, to := dateRange()
	ctx := context.Background()

	first, err := svc.ByCustomer(ctx, from, to)
	require.NoError(t, err)
	second, err := svc.ByCustomer(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.customerCalls)
}

func TestTotalCachesSecondRead(t *testing.T) {
	svc, repo := newTestService(t)
	from, to := dateRange()
	ctx := context.Background()

	_, err := svc.Total(ctx, from, to)
	require.NoError(t, err)
	_, err = svc.Total(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.totalCalls)
}

func TestTopProductsLimits(t *testing.T) {
	svc, _ := newTestService(t)
	from, to := dateRange()

	rows, err := svc.TopProducts(context.Background(), from, to, 2)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SP0001", rows[0].MaSPDV)
	assert.Equal(t, "SP0002", rows[1].MaSPDV)
}

func TestWarmPopulatesCache(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Warm(context.Background(), now))

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.ByCustomer(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.customerCalls)
}
