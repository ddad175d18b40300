package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

// PgRepo is the Postgres-backed Repo.
type PgRepo struct {
	Pool   *pgxpool.Pool
	Prefix string // invoice number prefix, HD in production
}

// seriesLockKey serialises number assignment across concurrent creates.
const seriesLockKey = "hoadon_series"

func (r *PgRepo) prefix() string {
	if r.Prefix == "" {
		return "HD"
	}
	return r.Prefix
}

// Create inserts the header and lines in one transaction, assigning the next
// number in the HD series under an advisory lock.
func (r *PgRepo) Create(ctx context.Context, inv Invoice) (string, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, seriesLockKey); err != nil {
		return "", err
	}

	var maxCode *string
	if err := tx.QueryRow(ctx,
		`SELECT MAX(soct) FROM hoadon WHERE soct LIKE $1`, r.prefix()+"%",
	).Scan(&maxCode); err != nil {
		return "", err
	}
	soCT := common.NextInSeries(r.prefix(), maxCode)

	if _, err := tx.Exec(ctx,
		`INSERT INTO hoadon (soct, ngaylap, makh, tenkh, hinhthuctt, tkno, diengiai, tkcodt, tkcothue,
		                     thuesuat, tienthue, tyleck, tkchietkhau, tienck, tiendt, tientt)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9, $10, $11, $12, NULLIF($13,''), $14, $15, $16)`,
		soCT, inv.NgayLap, inv.MaKH, inv.TenKH, inv.HinhThucTT, inv.TKNo, inv.DienGiai,
		inv.TKCoDT, inv.TKCoThue, inv.ThueSuat, inv.TienThue, inv.TyLeCK, inv.TKChietKhau,
		inv.TienCK, inv.TienDT, inv.TienTT); err != nil {
		return "", fmt.Errorf("insert hoadon: %w", err)
	}

	if err := insertLines(ctx, tx, soCT, inv.ChiTiet); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return soCT, nil
}

// Update rewrites the header and replaces every line in one transaction.
func (r *PgRepo) Update(ctx context.Context, inv Invoice) (bool, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE hoadon
		 SET ngaylap = $2, makh = $3, tenkh = $4, hinhthuctt = $5, tkno = $6, diengiai = NULLIF($7,''),
		     tkcodt = $8, tkcothue = $9, thuesuat = $10, tienthue = $11, tyleck = $12,
		     tkchietkhau = NULLIF($13,''), tienck = $14, tiendt = $15, tientt = $16
		 WHERE soct = $1`,
		inv.SoCT, inv.NgayLap, inv.MaKH, inv.TenKH, inv.HinhThucTT, inv.TKNo, inv.DienGiai,
		inv.TKCoDT, inv.TKCoThue, inv.ThueSuat, inv.TienThue, inv.TyLeCK, inv.TKChietKhau,
		inv.TienCK, inv.TienDT, inv.TienTT)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ct_hoadon WHERE soct = $1`, inv.SoCT); err != nil {
		return false, err
	}
	if err := insertLines(ctx, tx, inv.SoCT, inv.ChiTiet); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func insertLines(ctx context.Context, tx pgx.Tx, soCT string, items []totals.LineItem) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ct_hoadon (soct, maspdv, soluong, dvt, dongia) VALUES ($1, $2, $3, $4, $5)`,
			soCT, it.ProductCode, it.Quantity, it.Unit, it.UnitPrice); err != nil {
			return fmt.Errorf("insert ct_hoadon %s: %w", it.ProductCode, err)
		}
	}
	return nil
}

// Delete removes the header; lines cascade.
func (r *PgRepo) Delete(ctx context.Context, soCT string) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM hoadon WHERE soct = $1`, soCT)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) HasVouchers(ctx context.Context, soCT string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM phieugiamgia WHERE soct = $1)`, soCT,
	).Scan(&exists)
	return exists, err
}

const invoiceColumns = `soct, ngaylap, makh, tenkh, hinhthuctt, tkno, COALESCE(diengiai,''), tkcodt, tkcothue,
	thuesuat, tienthue, tyleck, COALESCE(tkchietkhau,''), tienck, tiendt, tientt`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.SoCT, &inv.NgayLap, &inv.MaKH, &inv.TenKH, &inv.HinhThucTT, &inv.TKNo,
		&inv.DienGiai, &inv.TKCoDT, &inv.TKCoThue, &inv.ThueSuat, &inv.TienThue, &inv.TyLeCK,
		&inv.TKChietKhau, &inv.TienCK, &inv.TienDT, &inv.TienTT)
	return inv, err
}

func (r *PgRepo) Get(ctx context.Context, soCT string) (Invoice, bool, error) {
	inv, err := scanInvoice(r.Pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM hoadon WHERE soct = $1`, soCT))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, false, nil
	}
	if err != nil {
		return Invoice{}, false, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT ct.maspdv, sp.tenspdv, ct.soluong, ct.dvt, ct.dongia
		 FROM ct_hoadon ct JOIN spdv sp ON sp.maspdv = ct.maspdv
		 WHERE ct.soct = $1 ORDER BY ct.maspdv`, soCT)
	if err != nil {
		return Invoice{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var it totals.LineItem
		if err := rows.Scan(&it.ProductCode, &it.ProductName, &it.Quantity, &it.Unit, &it.UnitPrice); err != nil {
			return Invoice{}, false, err
		}
		inv.ChiTiet = append(inv.ChiTiet, it)
	}
	return inv, true, rows.Err()
}

func (r *PgRepo) List(ctx context.Context, q ListQuery) ([]Invoice, int64, error) {
	where := ` WHERE 1=1`
	var args []any
	if q.MaKH != "" {
		args = append(args, q.MaKH)
		where += fmt.Sprintf(` AND makh = $%d`, len(args))
	}
	if q.From != nil {
		args = append(args, *q.From)
		where += fmt.Sprintf(` AND ngaylap >= $%d`, len(args))
	}
	if q.To != nil {
		args = append(args, *q.To)
		where += fmt.Sprintf(` AND ngaylap < $%d`, len(args))
	}

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM hoadon`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM hoadon` + where + ` ORDER BY ngaylap DESC, soct DESC`
	if q.PerPage > 0 {
		args = append(args, q.PerPage, common.Offset(q.Page, q.PerPage))
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *PgRepo) AccountExists(ctx context.Context, maTK string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tkkt WHERE matk = $1)`, maTK,
	).Scan(&exists)
	return exists, err
}
