package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

// PgRepo is the Postgres-backed Repo.
type PgRepo struct {
	Pool   *pgxpool.Pool
	Prefix string // voucher number prefix, PG in production
}

const seriesLockKey = "phieugiamgia_series"

func (r *PgRepo) prefix() string {
	if r.Prefix == "" {
		return "PG"
	}
	return r.Prefix
}

// Create inserts the header and lines in one transaction, assigning the next
// number in the PG series under an advisory lock.
func (r *PgRepo) Create(ctx context.Context, v Voucher) (string, error) {
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
		`SELECT MAX(sophieu) FROM phieugiamgia WHERE sophieu LIKE $1`, r.prefix()+"%",
	).Scan(&maxCode); err != nil {
		return "", err
	}
	soPhieu := common.NextInSeries(r.prefix(), maxCode)

	if _, err := tx.Exec(ctx,
		`INSERT INTO phieugiamgia (sophieu, ngaylap, makh, diengiai, tknogiamtru, tkcott, soct,
		                           thuesuat, tienthue, tknothue, tiendt, tientt)
		 VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8, $9, $10, $11, $12)`,
		soPhieu, v.NgayLap, v.MaKH, v.DienGiai, v.TKNoGiamTru, v.TKCoTT, v.SoCT,
		v.ThueSuat, v.TienThue, v.TKNoThue, v.TienDT, v.TienTT); err != nil {
		return "", fmt.Errorf("insert phieugiamgia: %w", err)
	}

	if err := insertLines(ctx, tx, soPhieu, v.ChiTiet); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return soPhieu, nil
}

// Update rewrites the header and replaces every line in one transaction.
func (r *PgRepo) Update(ctx context.Context, v Voucher) (bool, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE phieugiamgia
		 SET ngaylap = $2, makh = $3, diengiai = NULLIF($4,''), tknogiamtru = $5, tkcott = $6,
		     soct = $7, thuesuat = $8, tienthue = $9, tknothue = $10, tiendt = $11, tientt = $12
		 WHERE sophieu = $1`,
		v.SoPhieu, v.NgayLap, v.MaKH, v.DienGiai, v.TKNoGiamTru, v.TKCoTT, v.SoCT,
		v.ThueSuat, v.TienThue, v.TKNoThue, v.TienDT, v.TienTT)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ct_phieu WHERE sophieu = $1`, v.SoPhieu); err != nil {
		return false, err
	}
	if err := insertLines(ctx, tx, v.SoPhieu, v.ChiTiet); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func insertLines(ctx context.Context, tx pgx.Tx, soPhieu string, items []totals.LineItem) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ct_phieu (sophieu, maspdv, soluong, dvt, dongia) VALUES ($1, $2, $3, $4, $5)`,
			soPhieu, it.ProductCode, it.Quantity, it.Unit, it.UnitPrice); err != nil {
			return fmt.Errorf("insert ct_phieu %s: %w", it.ProductCode, err)
		}
	}
	return nil
}

// Delete removes the header; lines cascade.
func (r *PgRepo) Delete(ctx context.Context, soPhieu string) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM phieugiamgia WHERE sophieu = $1`, soPhieu)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const voucherColumns = `sophieu, ngaylap, makh, COALESCE(diengiai,''), tknogiamtru, tkcott, soct,
	thuesuat, tienthue, tknothue, tiendt, tientt`

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.SoPhieu, &v.NgayLap, &v.MaKH, &v.DienGiai, &v.TKNoGiamTru, &v.TKCoTT,
		&v.SoCT, &v.ThueSuat, &v.TienThue, &v.TKNoThue, &v.TienDT, &v.TienTT)
	return v, err
}

func (r *PgRepo) Get(ctx context.Context, soPhieu string) (Voucher, bool, error) {
	v, err := scanVoucher(r.Pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM phieugiamgia WHERE sophieu = $1`, soPhieu))
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, false, nil
	}
	if err != nil {
		return Voucher{}, false, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT ct.maspdv, sp.tenspdv, ct.soluong, ct.dvt, ct.dongia
		 FROM ct_phieu ct JOIN spdv sp ON sp.maspdv = ct.maspdv
		 WHERE ct.sophieu = $1 ORDER BY ct.maspdv`, soPhieu)
	if err != nil {
		return Voucher{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var it totals.LineItem
		if err := rows.Scan(&it.ProductCode, &it.ProductName, &it.Quantity, &it.Unit, &it.UnitPrice); err != nil {
			return Voucher{}, false, err
		}
		v.ChiTiet = append(v.ChiTiet, it)
	}
	return v, true, rows.Err()
}

func (r *PgRepo) List(ctx context.Context, maKH, soCT string, limit, offset int) ([]Voucher, int64, error) {
	var (
		clauses []string
		args    []any
	)
	if maKH != "" {
		args = append(args, maKH)
		clauses = append(clauses, fmt.Sprintf("makh = $%d", len(args)))
	}
	if soCT != "" {
		args = append(args, soCT)
		clauses = append(clauses, fmt.Sprintf("soct = $%d", len(args)))
	}
	where := ``
	if len(clauses) > 0 {
		where = ` WHERE ` + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM phieugiamgia`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM phieugiamgia%s ORDER BY ngaylap DESC, sophieu DESC LIMIT $%d OFFSET $%d`,
		voucherColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *PgRepo) InvoiceExists(ctx context.Context, soCT string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hoadon WHERE soct = $1)`, soCT).Scan(&exists)
	return exists, err
}

func (r *PgRepo) AccountExists(ctx context.Context, maTK string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tkkt WHERE matk = $1)`, maTK).Scan(&exists)
	return exists, err
}
