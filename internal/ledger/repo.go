package ledger

import (
	"context"
	"errors"
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

func (r *PgRepo) Insert(ctx context.Context, a Account) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO tkkt (matk, tentk, captk) VALUES ($1, $2, $3)`,
		a.MaTK, a.TenTK, a.CapTK)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return common.NewAppError("ACCOUNT_EXISTS", "ma tai khoan da ton tai", http.StatusConflict, err)
	}
	return err
}

func (r *PgRepo) Update(ctx context.Context, a Account) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE tkkt SET tentk = $2, captk = $3 WHERE matk = $1`,
		a.MaTK, a.TenTK, a.CapTK)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) Delete(ctx context.Context, maTK string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM tkkt WHERE matk = $1`, maTK)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepo) Get(ctx context.Context, maTK string) (Account, bool, error) {
	var a Account
	err := r.Pool.QueryRow(ctx,
		`SELECT matk, tentk, captk FROM tkkt WHERE matk = $1`, maTK,
	).Scan(&a.MaTK, &a.TenTK, &a.CapTK)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	return a, true, nil
}

func (r *PgRepo) List(ctx context.Context, search string, capTK int) ([]Account, error) {
	query := `SELECT matk, tentk, captk FROM tkkt`
	var where []string
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, `(matk ILIKE $1 OR tentk ILIKE $1)`)
	}
	if capTK > 0 {
		args = append(args, capTK)
		if len(args) == 1 {
			where = append(where, `captk = $1`)
		} else {
			where = append(where, `captk = $2`)
		}
	}
	for i, cond := range where {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY matk`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.MaTK, &a.TenTK, &a.CapTK); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Referenced reports whether any document posts to the account through one
// of the tk columns.
func (r *PgRepo) Referenced(ctx context.Context, maTK string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM hoadon
		     WHERE tkno = $1 OR tkcodt = $1 OR tkcothue = $1 OR tkchietkhau = $1
		 ) OR EXISTS (
		     SELECT 1 FROM phieugiamgia
		     WHERE tknogiamtru = $1 OR tkcott = $1 OR tknothue = $1
		 )`, maTK,
	).Scan(&exists)
	return exists, err
}
