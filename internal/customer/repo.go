package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// PgRepo is the Postgres-backed Repo.
type PgRepo struct {
	Pool *pgxpool.Pool
}

const customerColumns = `makh, tenkh, diachi, COALESCE(sdt,''), COALESCE(email,''), COALESCE(masothue,''), COALESCE(phanloai,'')`

// NextCode returns the next sequential business code for the given prefix,
// e.g. KH0007. The max lookup and insert race under concurrency; callers
// running inside a transaction should lock first.
func (r *PgRepo) NextCode(ctx context.Context, prefix string) (string, error) {
	var maxCode *string
	err := r.Pool.QueryRow(ctx,
		`SELECT MAX(makh) FROM khachhang WHERE makh LIKE $1`, prefix+"%",
	).Scan(&maxCode)
	if err != nil {
		return "", err
	}
	return common.NextInSeries(prefix, maxCode), nil
}

func (r *PgRepo) Insert(ctx context.Context, c Customer) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO khachhang (makh, tenkh, diachi, sdt, email, masothue, phanloai)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''))`,
		c.MaKH, c.TenKH, c.DiaChi, c.SDT, c.Email, c.MaSoThue, c.PhanLoai)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return common.NewAppError("CUSTOMER_EXISTS", "ma khach hang da ton tai", http.StatusConflict, err)
	}
	return err
}

func (r *PgRepo) Update(ctx context.Context, c Customer) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE khachhang
		 SET tenkh = $2, diachi = $3, sdt = NULLIF($4,''), email = NULLIF($5,''),
		     masothue = NULLIF($6,''), phanloai = NULLIF($7,'')
		 WHERE makh = $1`,
		c.MaKH, c.TenKH, c.DiaChi, c.SDT, c.Email, c.MaSoThue, c.PhanLoai)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) Delete(ctx context.Context, maKH string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM khachhang WHERE makh = $1`, maKH)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepo) Get(ctx context.Context, maKH string) (Customer, bool, error) {
	var c Customer
	err := r.Pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM khachhang WHERE makh = $1`, maKH,
	).Scan(&c.MaKH, &c.TenKH, &c.DiaChi, &c.SDT, &c.Email, &c.MaSoThue, &c.PhanLoai)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, false, nil
	}
	if err != nil {
		return Customer{}, false, err
	}
	return c, true, nil
}

func (r *PgRepo) List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = `WHERE makh ILIKE $1 OR tenkh ILIKE $1 OR masothue ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM khachhang `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM khachhang %s ORDER BY makh LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.MaKH, &c.TenKH, &c.DiaChi, &c.SDT, &c.Email, &c.MaSoThue, &c.PhanLoai); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PgRepo) HasDocuments(ctx context.Context, maKH string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hoadon WHERE makh = $1)
		     OR EXISTS (SELECT 1 FROM phieugiamgia WHERE makh = $1)`, maKH,
	).Scan(&exists)
	return exists, err
}
