package pricelist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepo is the Postgres-backed Repo.
type PgRepo struct {
	Pool *pgxpool.Pool
}

func (r *PgRepo) Upsert(ctx context.Context, e Entry) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO banggia (maspdv, ngayhl, giaban) VALUES ($1, $2, $3)
		 ON CONFLICT (maspdv, ngayhl) DO UPDATE SET giaban = EXCLUDED.giaban`,
		e.MaSPDV, e.NgayHL, e.GiaBan)
	return err
}

func (r *PgRepo) Delete(ctx context.Context, maSPDV string, ngayHL time.Time) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM banggia WHERE maspdv = $1 AND ngayhl = $2`, maSPDV, ngayHL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) ListForProduct(ctx context.Context, maSPDV string) ([]Entry, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT maspdv, ngayhl, giaban FROM banggia WHERE maspdv = $1 ORDER BY ngayhl DESC`, maSPDV)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.MaSPDV, &e.NgayHL, &e.GiaBan); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgRepo) Latest(ctx context.Context, maSPDV string, on time.Time) (Entry, bool, error) {
	var e Entry
	err := r.Pool.QueryRow(ctx,
		`SELECT maspdv, ngayhl, giaban FROM banggia
		 WHERE maspdv = $1 AND ngayhl <= $2 ORDER BY ngayhl DESC LIMIT 1`,
		maSPDV, on,
	).Scan(&e.MaSPDV, &e.NgayHL, &e.GiaBan)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *PgRepo) ProductExists(ctx context.Context, maSPDV string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM spdv WHERE maspdv = $1)`, maSPDV,
	).Scan(&exists)
	return exists, err
}
