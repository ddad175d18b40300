package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepo runs the report aggregations against Postgres. Date ranges are
// half-open: from inclusive, to exclusive.
type PgRepo struct {
	Pool *pgxpool.Pool
}

func (r *PgRepo) RevenueByCustomer(ctx context.Context, from, to time.Time) ([]CustomerRevenue, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT makh, tenkh,
		        COALESCE(SUM(tiendt), 0), COALESCE(SUM(tienthue), 0),
		        COALESCE(SUM(tienck), 0), COALESCE(SUM(tientt), 0)
		 FROM hoadon
		 WHERE ngaylap >= $1 AND ngaylap < $2
		 GROUP BY makh, tenkh
		 ORDER BY SUM(tiendt) DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerRevenue
	for rows.Next() {
		var c CustomerRevenue
		if err := rows.Scan(&c.MaKH, &c.TenKH, &c.TotalRevenue, &c.TotalTax, &c.TotalDiscount, &c.TotalPayment); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PgRepo) RevenueByProduct(ctx context.Context, from, to time.Time) ([]ProductRevenue, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT ct.maspdv, sp.tenspdv,
		        COALESCE(SUM(ct.soluong * ct.dongia), 0), COALESCE(SUM(ct.soluong), 0)
		 FROM ct_hoadon ct
		 JOIN hoadon hd ON hd.soct = ct.soct
		 JOIN spdv sp ON sp.maspdv = ct.maspdv
		 WHERE hd.ngaylap >= $1 AND hd.ngaylap < $2
		 GROUP BY ct.maspdv, sp.tenspdv
		 ORDER BY SUM(ct.soluong * ct.dongia) DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductRevenue
	for rows.Next() {
		var p ProductRevenue
		if err := rows.Scan(&p.MaSPDV, &p.TenSPDV, &p.TotalRevenue, &p.TotalQuantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgRepo) RevenueByMonth(ctx context.Context, year int) ([]MonthRevenue, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT EXTRACT(MONTH FROM ngaylap)::int,
		        COALESCE(SUM(tiendt), 0), COALESCE(SUM(tienthue), 0),
		        COALESCE(SUM(tienck), 0), COALESCE(SUM(tientt), 0), COUNT(soct)
		 FROM hoadon
		 WHERE EXTRACT(YEAR FROM ngaylap) = $1
		 GROUP BY 1
		 ORDER BY 1`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthRevenue
	for rows.Next() {
		var m MonthRevenue
		if err := rows.Scan(&m.Month, &m.TotalRevenue, &m.TotalTax, &m.TotalDiscount, &m.TotalPayment, &m.InvoiceCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PgRepo) TotalRevenue(ctx context.Context, from, to time.Time) (Summary, error) {
	var s Summary
	err := r.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(tiendt), 0), COALESCE(SUM(tienthue), 0),
		        COALESCE(SUM(tienck), 0), COALESCE(SUM(tientt), 0), COUNT(soct)
		 FROM hoadon
		 WHERE ngaylap >= $1 AND ngaylap < $2`, from, to,
	).Scan(&s.TotalRevenue, &s.TotalTax, &s.TotalDiscount, &s.TotalPayment, &s.InvoiceCount)
	return s, err
}
