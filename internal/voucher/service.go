// Package voucher implements phieugiamgia: discount vouchers issued against
// a posted invoice, numbered PG0001 onward.
package voucher

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/customer"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/events"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/obs"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

const totalTolerance = 1.0

// Voucher is one phieugiamgia row with its lines. TienDT, TienThue and
// TienTT are derived server-side.
type Voucher struct {
	SoPhieu     string            `json:"sophieu"`
	NgayLap     time.Time         `json:"ngaylap"`
	MaKH        string            `json:"makh"`
	DienGiai    string            `json:"diengiai,omitempty"`
	TKNoGiamTru string            `json:"tknogiamtru"`
	TKCoTT      string            `json:"tkcott"`
	SoCT        string            `json:"soct"`
	ThueSuat    float64           `json:"thuesuat"`
	TienThue    float64           `json:"tienthue"`
	TKNoThue    string            `json:"tknothue"`
	TienDT      float64           `json:"tiendt"`
	TienTT      float64           `json:"tientt"`
	ChiTiet     []totals.LineItem `json:"chi_tiet"`
}

// Draft carries the operator-editable fields of a create or update call.
type Draft struct {
	NgayLap     time.Time
	MaKH        string
	DienGiai    string
	TKNoGiamTru string
	TKCoTT      string
	SoCT        string
	ThueSuat    float64
	TKNoThue    string
	TienTT      *float64
	ChiTiet     []totals.LineItem
}

// Repo captures voucher persistence.
type Repo interface {
	Create(ctx context.Context, v Voucher) (string, error)
	Update(ctx context.Context, v Voucher) (bool, error)
	Delete(ctx context.Context, soPhieu string) (bool, error)
	Get(ctx context.Context, soPhieu string) (Voucher, bool, error)
	List(ctx context.Context, maKH, soCT string, limit, offset int) ([]Voucher, int64, error)
	InvoiceExists(ctx context.Context, soCT string) (bool, error)
	AccountExists(ctx context.Context, maTK string) (bool, error)
}

// CustomerDirectory resolves the customer referenced by the voucher.
type CustomerDirectory interface {
	Get(ctx context.Context, maKH string) (customer.Customer, error)
}

// Service implements voucher operations.
type Service struct {
	Repo      Repo
	Customers CustomerDirectory
	Products  totals.ProductLookup
	Bus       *events.Bus
	Logger    zerolog.Logger
}

// ErrNotFound is returned when the voucher does not exist.
var ErrNotFound = common.NewAppError("VOUCHER_NOT_FOUND", "khong tim thay phieu giam gia", http.StatusNotFound, nil)

// Create validates the draft, derives the totals and stores the voucher
// under the next PG number.
func (s *Service) Create(ctx context.Context, d Draft) (Voucher, error) {
	v, err := s.build(ctx, d)
	if err != nil {
		return Voucher{}, err
	}
	soPhieu, err := s.Repo.Create(ctx, v)
	if err != nil {
		obs.VouchersCreatedTotal.WithLabelValues("error").Inc()
		return Voucher{}, err
	}
	v.SoPhieu = soPhieu
	obs.VouchersCreatedTotal.WithLabelValues("ok").Inc()

	if err := s.Bus.Publish(ctx, events.TopicVoucherCreated, map[string]any{
		"sophieu": v.SoPhieu, "soct": v.SoCT, "tientt": v.TienTT,
	}); err != nil {
		s.Logger.Error().Err(err).Str("sophieu", v.SoPhieu).Msg("publish voucher.created")
	}
	return v, nil
}

// Update revalidates and rewrites an existing voucher, keeping its number.
func (s *Service) Update(ctx context.Context, soPhieu string, d Draft) (Voucher, error) {
	v, err := s.build(ctx, d)
	if err != nil {
		return Voucher{}, err
	}
	v.SoPhieu = soPhieu
	ok, err := s.Repo.Update(ctx, v)
	if err != nil {
		return Voucher{}, err
	}
	if !ok {
		return Voucher{}, ErrNotFound
	}
	if err := s.Bus.Publish(ctx, events.TopicVoucherUpdated, map[string]any{"sophieu": v.SoPhieu}); err != nil {
		s.Logger.Error().Err(err).Str("sophieu", v.SoPhieu).Msg("publish voucher.updated")
	}
	return v, nil
}

// Delete removes a voucher and its lines.
func (s *Service) Delete(ctx context.Context, soPhieu string) error {
	ok, err := s.Repo.Delete(ctx, soPhieu)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.Bus.Publish(ctx, events.TopicVoucherDeleted, map[string]any{"sophieu": soPhieu}); err != nil {
		s.Logger.Error().Err(err).Str("sophieu", soPhieu).Msg("publish voucher.deleted")
	}
	return nil
}

// Get returns one voucher with its lines.
func (s *Service) Get(ctx context.Context, soPhieu string) (Voucher, error) {
	v, ok, err := s.Repo.Get(ctx, soPhieu)
	if err != nil {
		return Voucher{}, err
	}
	if !ok {
		return Voucher{}, ErrNotFound
	}
	return v, nil
}

// List returns vouchers, optionally filtered by customer or by the invoice
// they credit.
func (s *Service) List(ctx context.Context, maKH, soCT string, p common.Pagination) ([]Voucher, int64, error) {
	return s.Repo.List(ctx, maKH, soCT, p.PerPage, common.Offset(p.Page, p.PerPage))
}

func (s *Service) build(ctx context.Context, d Draft) (Voucher, error) {
	store := totals.NewStore(totals.KindVoucher, s.Products)
	store.Load(d.ChiTiet, d.ThueSuat, nil)

	if errs := store.Validate(); len(errs) > 0 {
		return Voucher{}, common.NewAppError("VALIDATION", "chung tu khong hop le", http.StatusUnprocessableEntity, nil).
			WithDetails(errs)
	}
	// Unlike invoices, vouchers take any tax rate between 0 and 100.
	if !(d.ThueSuat >= 0 && d.ThueSuat <= 100) {
		return Voucher{}, common.NewAppError("VALIDATION", "thue suat khong hop le", http.StatusUnprocessableEntity, nil)
	}

	items := store.Items()
	for i := range items {
		info, err := s.Products.ProductByCode(ctx, items[i].ProductCode)
		if err != nil {
			return Voucher{}, err
		}
		items[i].ProductName = info.Name
		if items[i].Unit == "" {
			items[i].Unit = info.Unit
		}
	}

	cust, err := s.Customers.Get(ctx, d.MaKH)
	if err != nil {
		return Voucher{}, err
	}
	ok, err := s.Repo.InvoiceExists(ctx, d.SoCT)
	if err != nil {
		return Voucher{}, err
	}
	if !ok {
		return Voucher{}, common.NewAppError("INVOICE_NOT_FOUND", "hoa don "+d.SoCT+" khong ton tai", http.StatusUnprocessableEntity, nil)
	}
	for _, maTK := range []string{d.TKNoGiamTru, d.TKCoTT, d.TKNoThue} {
		exists, err := s.Repo.AccountExists(ctx, maTK)
		if err != nil {
			return Voucher{}, err
		}
		if !exists {
			return Voucher{}, common.NewAppError("ACCOUNT_NOT_FOUND", "tai khoan "+maTK+" khong ton tai", http.StatusUnprocessableEntity, nil)
		}
	}

	t := store.Totals()
	obs.TotalsRecomputeTotal.WithLabelValues("phieugiamgia").Inc()

	if d.TienTT != nil && math.Abs(*d.TienTT-t.GrandTotal) > totalTolerance {
		return Voucher{}, common.NewAppError("TOTAL_MISMATCH", "tong tien khong khop voi tinh toan", http.StatusUnprocessableEntity, nil).
			WithDetails(map[string]float64{"declared": *d.TienTT, "computed": t.GrandTotal})
	}

	return Voucher{
		NgayLap:     d.NgayLap,
		MaKH:        cust.MaKH,
		DienGiai:    d.DienGiai,
		TKNoGiamTru: d.TKNoGiamTru,
		TKCoTT:      d.TKCoTT,
		SoCT:        d.SoCT,
		ThueSuat:    t.TaxRate,
		TienThue:    t.TaxAmount,
		TKNoThue:    d.TKNoThue,
		TienDT:      t.Subtotal,
		TienTT:      t.GrandTotal,
		ChiTiet:     items,
	}, nil
}
