// Package pricelist manages banggia: dated sale prices per product. The
// entry with the latest effective date not after the document date wins.
package pricelist

import (
	"context"
	"net/http"
	"time"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Entry is one banggia row, keyed by product and effective date.
type Entry struct {
	MaSPDV string    `json:"maspdv" validate:"required,max=10"`
	NgayHL time.Time `json:"ngayhl" validate:"required"`
	GiaBan float64   `json:"giaban" validate:"gte=0"`
}

// Repo captures price-list persistence.
type Repo interface {
	Upsert(ctx context.Context, e Entry) error
	Delete(ctx context.Context, maSPDV string, ngayHL time.Time) (bool, error)
	ListForProduct(ctx context.Context, maSPDV string) ([]Entry, error)
	Latest(ctx context.Context, maSPDV string, on time.Time) (Entry, bool, error)
	ProductExists(ctx context.Context, maSPDV string) (bool, error)
}

// Service implements price-list operations.
type Service struct {
	Repo Repo
}

// ErrNotFound is returned when no price-list entry matches.
var ErrNotFound = common.NewAppError("PRICE_NOT_FOUND", "khong tim thay bang gia", http.StatusNotFound, nil)

// Set records a price effective from the given date, replacing an entry with
// the same key.
func (s *Service) Set(ctx context.Context, e Entry) (Entry, error) {
	ok, err := s.Repo.ProductExists(ctx, e.MaSPDV)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, common.NewAppError("PRODUCT_NOT_FOUND", "khong tim thay san pham", http.StatusNotFound, nil)
	}
	if err := s.Repo.Upsert(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Delete removes one dated entry.
func (s *Service) Delete(ctx context.Context, maSPDV string, ngayHL time.Time) error {
	ok, err := s.Repo.Delete(ctx, maSPDV, ngayHL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// History returns every dated price for a product, newest first.
func (s *Service) History(ctx context.Context, maSPDV string) ([]Entry, error) {
	return s.Repo.ListForProduct(ctx, maSPDV)
}

// Latest returns the price effective on the given date.
func (s *Service) Latest(ctx context.Context, maSPDV string, on time.Time) (Entry, error) {
	e, ok, err := s.Repo.Latest(ctx, maSPDV, on)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}
