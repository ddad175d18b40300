// Package discount manages dinhmucck: dated discount tiers per product.
// A tier grants tyleck percent off once the purchase amount reaches muctien.
package discount

import (
	"context"
	"net/http"
	"time"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Tier is one dinhmucck row, keyed by product and effective date.
type Tier struct {
	MaSPDV  string    `json:"maspdv" validate:"required,max=10"`
	NgayHL  time.Time `json:"ngayhl" validate:"required"`
	MucTien float64   `json:"muctien" validate:"gte=0"`
	TyLeCK  float64   `json:"tyleck" validate:"gte=0,lte=100"`
}

// Repo captures discount tier persistence.
type Repo interface {
	Upsert(ctx context.Context, t Tier) error
	Delete(ctx context.Context, maSPDV string, ngayHL time.Time) (bool, error)
	ListForProduct(ctx context.Context, maSPDV string) ([]Tier, error)
	// Applicable returns the tier with the most recent effective date on or
	// before the given date whose threshold the amount reaches, preferring
	// the highest threshold on ties.
	Applicable(ctx context.Context, maSPDV string, on time.Time, amount float64) (Tier, bool, error)
	ProductExists(ctx context.Context, maSPDV string) (bool, error)
}

// Service implements discount tier operations.
type Service struct {
	Repo Repo
}

// ErrNotFound is returned when no tier matches.
var ErrNotFound = common.NewAppError("DISCOUNT_NOT_FOUND", "khong tim thay dinh muc chiet khau", http.StatusNotFound, nil)

// Set records a tier, replacing an entry with the same key.
func (s *Service) Set(ctx context.Context, t Tier) (Tier, error) {
	ok, err := s.Repo.ProductExists(ctx, t.MaSPDV)
	if err != nil {
		return Tier{}, err
	}
	if !ok {
		return Tier{}, common.NewAppError("PRODUCT_NOT_FOUND", "khong tim thay san pham", http.StatusNotFound, nil)
	}
	if err := s.Repo.Upsert(ctx, t); err != nil {
		return Tier{}, err
	}
	return t, nil
}

// Delete removes one dated tier.
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

// History returns every tier for a product, newest first.
func (s *Service) History(ctx context.Context, maSPDV string) ([]Tier, error) {
	return s.Repo.ListForProduct(ctx, maSPDV)
}

// Applicable returns the discount tier in force for a purchase of the given
// amount on the given date.
func (s *Service) Applicable(ctx context.Context, maSPDV string, on time.Time, amount float64) (Tier, error) {
	t, ok, err := s.Repo.Applicable(ctx, maSPDV, on, amount)
	if err != nil {
		return Tier{}, err
	}
	if !ok {
		return Tier{}, ErrNotFound
	}
	return t, nil
}
