// Package customer manages the khachhang directory: the party records every
// invoice and voucher references.
package customer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Customer is one khachhang row. MaKH is the business key (KH0001 style).
type Customer struct {
	MaKH     string `json:"makh"`
	TenKH    string `json:"tenkh" validate:"required,max=100"`
	DiaChi   string `json:"diachi" validate:"required,max=150"`
	SDT      string `json:"sdt,omitempty" validate:"omitempty,max=10"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	MaSoThue string `json:"masothue,omitempty" validate:"omitempty,max=15"`
	PhanLoai string `json:"phanloai,omitempty" validate:"omitempty,max=50"`
}

// Repo captures the persistence operations the service needs.
type Repo interface {
	NextCode(ctx context.Context, prefix string) (string, error)
	Insert(ctx context.Context, c Customer) error
	Update(ctx context.Context, c Customer) (bool, error)
	Delete(ctx context.Context, maKH string) error
	Get(ctx context.Context, maKH string) (Customer, bool, error)
	List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error)
	HasDocuments(ctx context.Context, maKH string) (bool, error)
}

// Service implements customer directory operations.
type Service struct {
	Repo Repo
}

// ErrNotFound is returned when the requested customer does not exist.
var ErrNotFound = common.NewAppError("CUSTOMER_NOT_FOUND", "khong tim thay khach hang", http.StatusNotFound, nil)

// Create assigns the next KH code and stores the customer.
func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	code, err := s.Repo.NextCode(ctx, "KH")
	if err != nil {
		return Customer{}, fmt.Errorf("next customer code: %w", err)
	}
	c.MaKH = code
	if err := s.Repo.Insert(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Update replaces the mutable fields of an existing customer.
func (s *Service) Update(ctx context.Context, c Customer) (Customer, error) {
	ok, err := s.Repo.Update(ctx, c)
	if err != nil {
		return Customer{}, err
	}
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

// Delete removes a customer. Customers referenced by invoices or vouchers
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, maKH string) error {
	used, err := s.Repo.HasDocuments(ctx, maKH)
	if err != nil {
		return err
	}
	if used {
		return common.NewAppError("CUSTOMER_IN_USE", "khach hang da phat sinh chung tu, khong the xoa", http.StatusConflict, nil)
	}
	return s.Repo.Delete(ctx, maKH)
}

// Get returns one customer by code.
func (s *Service) Get(ctx context.Context, maKH string) (Customer, error) {
	c, ok, err := s.Repo.Get(ctx, strings.TrimSpace(maKH))
	if err != nil {
		return Customer{}, err
	}
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

// List returns a page of customers, optionally filtered by a search term
// matched against code, name and tax number.
func (s *Service) List(ctx context.Context, search string, p common.Pagination) ([]Customer, int64, error) {
	return s.Repo.List(ctx, strings.TrimSpace(search), p.PerPage, common.Offset(p.Page, p.PerPage))
}
