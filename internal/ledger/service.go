// Package ledger manages tkkt, the chart of accounts documents post to.
package ledger

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Account is one tkkt row. MaTK follows the Vietnamese chart of accounts
// (131, 511, 3331, ...); CapTK is the account's level in the hierarchy.
type Account struct {
	MaTK  string `json:"matk" validate:"required,max=10"`
	TenTK string `json:"tentk" validate:"required,max=100"`
	CapTK int    `json:"captk" validate:"gte=1,lte=5"`
}

// Repo captures chart-of-accounts persistence.
type Repo interface {
	Insert(ctx context.Context, a Account) error
	Update(ctx context.Context, a Account) (bool, error)
	Delete(ctx context.Context, maTK string) error
	Get(ctx context.Context, maTK string) (Account, bool, error)
	List(ctx context.Context, search string, capTK int) ([]Account, error)
	Referenced(ctx context.Context, maTK string) (bool, error)
}

// Service implements chart-of-accounts operations.
type Service struct {
	Repo Repo
}

// ErrNotFound is returned when the account does not exist.
var ErrNotFound = common.NewAppError("ACCOUNT_NOT_FOUND", "khong tim thay tai khoan", http.StatusNotFound, nil)

// Create stores a new account under an operator-chosen code.
func (s *Service) Create(ctx context.Context, a Account) (Account, error) {
	a.MaTK = strings.TrimSpace(a.MaTK)
	if err := s.Repo.Insert(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Update renames or re-levels an account.
func (s *Service) Update(ctx context.Context, a Account) (Account, error) {
	ok, err := s.Repo.Update(ctx, a)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// Delete removes an account no document posts to.
func (s *Service) Delete(ctx context.Context, maTK string) error {
	used, err := s.Repo.Referenced(ctx, maTK)
	if err != nil {
		return err
	}
	if used {
		return common.NewAppError("ACCOUNT_IN_USE", "tai khoan da phat sinh chung tu, khong the xoa", http.StatusConflict, nil)
	}
	return s.Repo.Delete(ctx, maTK)
}

// Get returns one account by code.
func (s *Service) Get(ctx context.Context, maTK string) (Account, error) {
	a, ok, err := s.Repo.Get(ctx, strings.TrimSpace(maTK))
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// List returns accounts filtered by search term and, when capTK is
// positive, by level.
func (s *Service) List(ctx context.Context, search string, capTK int) ([]Account, error) {
	return s.Repo.List(ctx, strings.TrimSpace(search), capTK)
}
