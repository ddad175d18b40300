// Package product manages the spdv catalog and resolves the price a
// document line should carry on a given date.
package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

// Product is one spdv row. DonGia is the list price used when no price-list
// entry applies.
type Product struct {
	MaSPDV  string  `json:"maspdv"`
	TenSPDV string  `json:"tenspdv" validate:"required,max=100"`
	DonGia  float64 `json:"dongia" validate:"gte=0"`
	DVT     string  `json:"dvt" validate:"required,max=10"`
	MoTa    string  `json:"mota,omitempty" validate:"omitempty,max=200"`
}

// Repo captures product persistence.
type Repo interface {
	NextCode(ctx context.Context, prefix string) (string, error)
	Insert(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) (bool, error)
	Delete(ctx context.Context, maSPDV string) error
	Get(ctx context.Context, maSPDV string) (Product, bool, error)
	List(ctx context.Context, search string, limit, offset int) ([]Product, int64, error)
	HasDocumentLines(ctx context.Context, maSPDV string) (bool, error)
	// PriceOn returns the latest price-list entry effective on or before the
	// date, if any.
	PriceOn(ctx context.Context, maSPDV string, on time.Time) (float64, bool, error)
}

// Service implements catalog operations with a Redis read-through cache on
// single-product lookups.
type Service struct {
	Repo   Repo
	Cache  *common.Cache
	Logger zerolog.Logger
}

// ErrNotFound is returned when the requested product does not exist.
var ErrNotFound = common.NewAppError("PRODUCT_NOT_FOUND", "khong tim thay san pham", http.StatusNotFound, nil)

func cacheKey(maSPDV string) string { return "spdv:" + maSPDV }

// Create assigns the next SP code and stores the product.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	code, err := s.Repo.NextCode(ctx, "SP")
	if err != nil {
		return Product{}, fmt.Errorf("next product code: %w", err)
	}
	p.MaSPDV = code
	if err := s.Repo.Insert(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update replaces a product's fields and drops its cache entry.
func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	ok, err := s.Repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrNotFound
	}
	s.invalidate(ctx, p.MaSPDV)
	return p, nil
}

// Delete removes a product not referenced by any document line.
func (s *Service) Delete(ctx context.Context, maSPDV string) error {
	used, err := s.Repo.HasDocumentLines(ctx, maSPDV)
	if err != nil {
		return err
	}
	if used {
		return common.NewAppError("PRODUCT_IN_USE", "san pham da phat sinh chung tu, khong the xoa", http.StatusConflict, nil)
	}
	if err := s.Repo.Delete(ctx, maSPDV); err != nil {
		return err
	}
	s.invalidate(ctx, maSPDV)
	return nil
}

// Get returns one product, served from cache when possible.
func (s *Service) Get(ctx context.Context, maSPDV string) (Product, error) {
	maSPDV = strings.TrimSpace(maSPDV)
	var cached Product
	if hit, err := s.Cache.GetJSON(ctx, cacheKey(maSPDV), &cached); err != nil {
		s.Logger.Warn().Err(err).Str("maspdv", maSPDV).Msg("product cache read")
	} else if hit {
		return cached, nil
	}

	p, ok, err := s.Repo.Get(ctx, maSPDV)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrNotFound
	}
	if err := s.Cache.SetJSON(ctx, cacheKey(maSPDV), p); err != nil {
		s.Logger.Warn().Err(err).Str("maspdv", maSPDV).Msg("product cache write")
	}
	return p, nil
}

// List returns a page of products matched by code or name.
func (s *Service) List(ctx context.Context, search string, p common.Pagination) ([]Product, int64, error) {
	return s.Repo.List(ctx, strings.TrimSpace(search), p.PerPage, common.Offset(p.Page, p.PerPage))
}

// EffectivePrice resolves the unit price for a product on a date: the latest
// price-list entry effective on or before the date, falling back to the
// catalog list price.
func (s *Service) EffectivePrice(ctx context.Context, maSPDV string, on time.Time) (float64, error) {
	price, ok, err := s.Repo.PriceOn(ctx, maSPDV, on)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if ok {
		return price, nil
	}
	p, err := s.Get(ctx, maSPDV)
	if err != nil {
		return 0, err
	}
	return p.DonGia, nil
}

func (s *Service) invalidate(ctx context.Context, maSPDV string) {
	if err := s.Cache.Delete(ctx, cacheKey(maSPDV)); err != nil {
		s.Logger.Warn().Err(err).Str("maspdv", maSPDV).Msg("product cache invalidate")
	}
}

// Lookup adapts the service to the line-item store's product resolution,
// pricing rows as of the given document date.
type Lookup struct {
	Service *Service
	AsOf    time.Time
}

// ProductByCode implements totals.ProductLookup.
func (l Lookup) ProductByCode(ctx context.Context, code string) (totals.ProductInfo, error) {
	p, err := l.Service.Get(ctx, code)
	if err != nil {
		return totals.ProductInfo{}, err
	}
	on := l.AsOf
	if on.IsZero() {
		on = time.Now()
	}
	price, err := l.Service.EffectivePrice(ctx, code, on)
	if err != nil {
		return totals.ProductInfo{}, err
	}
	return totals.ProductInfo{Code: p.MaSPDV, Name: p.TenSPDV, Unit: p.DVT, UnitPrice: price}, nil
}
