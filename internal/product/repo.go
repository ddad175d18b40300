package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// PgRepo is the Postgres-backed Repo.
type PgRepo struct {
	Pool *pgxpool.Pool
}

const productColumns = `maspdv, tenspdv, dongia, dvt, COALESCE(mota,'')`

func (r *PgRepo) NextCode(ctx context.Context, prefix string) (string, error) {
	var maxCode *string
	err := r.Pool.QueryRow(ctx,
		`SELECT MAX(maspdv) FROM spdv WHERE maspdv LIKE $1`, prefix+"%",
	).Scan(&maxCode)
	if err != nil {
		return "", err
	}
	return common.NextInSeries(prefix, maxCode), nil
}

func (r *PgRepo) Insert(ctx context.Context, p Product) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO spdv (maspdv, tenspdv, dongia, dvt, mota)
		 VALUES ($1, $2, $3, $4, NULLIF($5,''))`,
		p.MaSPDV, p.TenSPDV, p.DonGia, p.DVT, p.MoTa)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return common.NewAppError("PRODUCT_EXISTS", "ma san pham da ton tai", http.StatusConflict, err)
	}
	return err
}

func (r *PgRepo) Update(ctx context.Context, p Product) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE spdv SET tenspdv = $2, dongia = $3, dvt = $4, mota = NULLIF($5,'') WHERE maspdv = $1`,
		p.MaSPDV, p.TenSPDV, p.DonGia, p.DVT, p.MoTa)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepo) Delete(ctx context.Context, maSPDV string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM spdv WHERE maspdv = $1`, maSPDV)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepo) Get(ctx context.Context, maSPDV string) (Product, bool, error) {
	var p Product
	err := r.Pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM spdv WHERE maspdv = $1`, maSPDV,
	).Scan(&p.MaSPDV, &p.TenSPDV, &p.DonGia, &p.DVT, &p.MoTa)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (r *PgRepo) List(ctx context.Context, search string, limit, offset int) ([]Product, int64, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = `WHERE maspdv ILIKE $1 OR tenspdv ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM spdv `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM spdv %s ORDER BY maspdv LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.MaSPDV, &p.TenSPDV, &p.DonGia, &p.DVT, &p.MoTa); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PgRepo) HasDocumentLines(ctx context.Context, maSPDV string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ct_hoadon WHERE maspdv = $1)
		     OR EXISTS (SELECT 1 FROM ct_phieu WHERE maspdv = $1)`, maSPDV,
	).Scan(&exists)
	return exists, err
}

func (r *PgRepo) PriceOn(ctx context.Context, maSPDV string, on time.Time) (float64, bool, error) {
	var price float64
	err := r.Pool.QueryRow(ctx,
		`SELECT giaban FROM banggia WHERE maspdv = $1 AND ngayhl <= $2 ORDER BY ngayhl DESC LIMIT 1`,
		maSPDV, on,
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}
