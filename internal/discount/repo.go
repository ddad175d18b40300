package discount

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

func (r *PgRepo) Upsert(ctx context.Context, t Tier) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO dinhmucck (maspdv, ngayhl, muctien, tyleck) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (maspdv, ngayhl) DO UPDATE SET muctien = EXCLUDED.muctien, tyleck = EXCLUDED.tyleck`,
		t.MaSPDV, t.NgayHL, t.MucTien, t.TyLeCK)
	return err
}

func (r *PgRepo) Delete(ctx context.Context, maSPDV string, ngayHL time.Time) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM dinhmucck WHERE maspdv = $1 AND ngayhl = $2`, maSPDV, ngayHL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) ListForProduct(ctx context.Context, maSPDV string) ([]Tier, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT maspdv, ngayhl, muctien, tyleck FROM dinhmucck WHERE maspdv = $1 ORDER BY ngayhl DESC`, maSPDV)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tier
	for rows.Next() {
		var t Tier
		if err := rows.Scan(&t.MaSPDV, &t.NgayHL, &t.MucTien, &t.TyLeCK); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepo) Applicable(ctx context.Context, maSPDV string, on time.Time, amount float64) (Tier, bool, error) {
	var t Tier
	err := r.Pool.QueryRow(ctx,
		`SELECT maspdv, ngayhl, muctien, tyleck FROM dinhmucck
		 WHERE maspdv = $1 AND ngayhl <= $2 AND muctien <= $3
		 ORDER BY ngayhl DESC, muctien DESC LIMIT 1`,
		maSPDV, on, amount,
	).Scan(&t.MaSPDV, &t.NgayHL, &t.MucTien, &t.TyLeCK)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tier{}, false, nil
	}
	if err != nil {
		return Tier{}, false, err
	}
	return t, true, nil
}

func (r *PgRepo) ProductExists(ctx context.Context, maSPDV string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM spdv WHERE maspdv = $1)`, maSPDV,
	).Scan(&exists)
	return exists, err
}
