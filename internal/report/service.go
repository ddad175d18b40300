// Package report aggregates posted invoices into revenue reports. Reports
// are cached in Redis and invalidated whenever a document changes.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/obs"
)

// CachePrefix namespaces every report cache key.
const CachePrefix = "report:"

// CustomerRevenue is one row of the revenue-by-customer report.
type CustomerRevenue struct {
	MaKH          string  `json:"makh"`
	TenKH         string  `json:"tenkh"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalTax      float64 `json:"total_tax"`
	TotalDiscount float64 `json:"total_discount"`
	TotalPayment  float64 `json:"total_payment"`
}

// ProductRevenue is one row of the revenue-by-product report.
type ProductRevenue struct {
	MaSPDV        string  `json:"maspdv"`
	TenSPDV       string  `json:"tenspdv"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalQuantity float64 `json:"total_quantity"`
}

// MonthRevenue is one row of the revenue-by-month report.
type MonthRevenue struct {
	Month         int     `json:"month"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalTax      float64 `json:"total_tax"`
	TotalDiscount float64 `json:"total_discount"`
	TotalPayment  float64 `json:"total_payment"`
	InvoiceCount  int64   `json:"invoice_count"`
}

// Summary is the aggregate over a date range.
type Summary struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalTax      float64 `json:"total_tax"`
	TotalDiscount float64 `json:"total_discount"`
	TotalPayment  float64 `json:"total_payment"`
	InvoiceCount  int64   `json:"invoice_count"`
}

// Repo captures the report queries.
type Repo interface {
	RevenueByCustomer(ctx context.Context, from, to time.Time) ([]CustomerRevenue, error)
	RevenueByProduct(ctx context.Context, from, to time.Time) ([]ProductRevenue, error)
	RevenueByMonth(ctx context.Context, year int) ([]MonthRevenue, error)
	TotalRevenue(ctx context.Context, from, to time.Time) (Summary, error)
}

// Service serves reports through the cache.
type Service struct {
	Repo   Repo
	Cache  *common.Cache
	Logger zerolog.Logger
}

func rangeKey(report string, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", CachePrefix, report, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// ByCustomer returns revenue grouped by customer over the date range,
// highest revenue first.
func (s *Service) ByCustomer(ctx context.Context, from, to time.Time) ([]CustomerRevenue, error) {
	key := rangeKey("khachhang", from, to)
	var cached []CustomerRevenue
	if hit := s.fromCache(ctx, "khachhang", key, &cached); hit {
		return cached, nil
	}
	rows, err := s.Repo.RevenueByCustomer(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, rows)
	return rows, nil
}

// ByProduct returns revenue grouped by product over the date range.
func (s *Service) ByProduct(ctx context.Context, from, to time.Time) ([]ProductRevenue, error) {
	key := rangeKey("spdv", from, to)
	var cached []ProductRevenue
	if hit := s.fromCache(ctx, "spdv", key, &cached); hit {
		return cached, nil
	}
	rows, err := s.Repo.RevenueByProduct(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, rows)
	return rows, nil
}

// ByMonth returns revenue per month of a year.
func (s *Service) ByMonth(ctx context.Context, year int) ([]MonthRevenue, error) {
	key := fmt.Sprintf("%sthang:%d", CachePrefix, year)
	var cached []MonthRevenue
	if hit := s.fromCache(ctx, "thang", key, &cached); hit {
		return cached, nil
	}
	rows, err := s.Repo.RevenueByMonth(ctx, year)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, rows)
	return rows, nil
}

// Total returns the aggregate over the date range.
func (s *Service) Total(ctx context.Context, from, to time.Time) (Summary, error) {
	key := rangeKey("tong", from, to)
	var cached Summary
	if hit := s.fromCache(ctx, "tong", key, &cached); hit {
		return cached, nil
	}
	summary, err := s.Repo.TotalRevenue(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	s.toCache(ctx, key, summary)
	return summary, nil
}

// TopProducts returns the n products with the highest revenue.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, n int) ([]ProductRevenue, error) {
	rows, err := s.ByProduct(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// TopCustomers returns the n customers with the highest revenue.
func (s *Service) TopCustomers(ctx context.Context, from, to time.Time, n int) ([]CustomerRevenue, error) {
	rows, err := s.ByCustomer(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Warm precomputes the common reports for the current month and year. Run
// by the background worker on a schedule.
func (s *Service) Warm(ctx context.Context, now time.Time) error {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if _, err := s.ByCustomer(ctx, from, to); err != nil {
		return err
	}
	if _, err := s.ByProduct(ctx, from, to); err != nil {
		return err
	}
	if _, err := s.ByMonth(ctx, now.Year()); err != nil {
		return err
	}
	if _, err := s.Total(ctx, from, to); err != nil {
		return err
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context, report, key string, dst any) bool {
	hit, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("report cache read")
		return false
	}
	if hit {
		obs.ReportCacheTotal.WithLabelValues(report, "hit").Inc()
	} else {
		obs.ReportCacheTotal.WithLabelValues(report, "miss").Inc()
	}
	return hit
}

func (s *Service) toCache(ctx context.Context, key string, v any) {
	if err := s.Cache.SetJSON(ctx, key, v); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("report cache write")
	}
}
