// Package invoice implements hoadon: sales invoices with line items, tax and
// discount, numbered HD0001 onward.
package invoice

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

// How far, in dong, a client-declared grand total may drift from the
// server-side recomputation before the document is rejected.
const totalTolerance = 1.0

// Invoice is one hoadon row with its lines. TienDT, TienThue, TienCK and
// TienTT are always derived server-side from ChiTiet and the rates.
type Invoice struct {
	SoCT        string            `json:"soct"`
	NgayLap     time.Time         `json:"ngaylap"`
	MaKH        string            `json:"makh"`
	TenKH       string            `json:"tenkh"`
	HinhThucTT  string            `json:"hinhthuctt"`
	TKNo        string            `json:"tkno"`
	DienGiai    string            `json:"diengiai,omitempty"`
	TKCoDT      string            `json:"tkcodt"`
	TKCoThue    string            `json:"tkcothue"`
	ThueSuat    float64           `json:"thuesuat"`
	TienThue    float64           `json:"tienthue"`
	TyLeCK      float64           `json:"tyleck"`
	TKChietKhau string            `json:"tkchietkhau,omitempty"`
	TienCK      float64           `json:"tienck"`
	TienDT      float64           `json:"tiendt"`
	TienTT      float64           `json:"tientt"`
	ChiTiet     []totals.LineItem `json:"chi_tiet"`
}

// Draft carries the operator-editable fields of a create or update call.
// TienTT, when set, is the client's displayed grand total and is checked
// against the server's recomputation.
type Draft struct {
	NgayLap     time.Time
	MaKH        string
	HinhThucTT  string
	TKNo        string
	DienGiai    string
	TKCoDT      string
	TKCoThue    string
	ThueSuat    float64
	TyLeCK      *float64
	TKChietKhau string
	TienTT      *float64
	ChiTiet     []totals.LineItem
}

// ListQuery filters invoice listings.
type ListQuery struct {
	MaKH     string
	From, To *time.Time
	Page     int
	PerPage  int
}

// Repo captures invoice persistence. Create and Update run in one
// transaction covering the header, the lines and the number series.
type Repo interface {
	Create(ctx context.Context, inv Invoice) (string, error)
	Update(ctx context.Context, inv Invoice) (bool, error)
	Delete(ctx context.Context, soCT string) (bool, error)
	HasVouchers(ctx context.Context, soCT string) (bool, error)
	Get(ctx context.Context, soCT string) (Invoice, bool, error)
	List(ctx context.Context, q ListQuery) ([]Invoice, int64, error)
	AccountExists(ctx context.Context, maTK string) (bool, error)
}

// CustomerDirectory resolves the customer display name copied onto the
// invoice header.
type CustomerDirectory interface {
	Get(ctx context.Context, maKH string) (customer.Customer, error)
}

// Service implements invoice operations.
type Service struct {
	Repo      Repo
	Customers CustomerDirectory
	Products  totals.ProductLookup
	Bus       *events.Bus
	Logger    zerolog.Logger

	TaxRates      []float64
	DiscountRates []float64
}

// ErrNotFound is returned when the invoice does not exist.
var ErrNotFound = common.NewAppError("INVOICE_NOT_FOUND", "khong tim thay hoa don", http.StatusNotFound, nil)

// Create validates the draft, derives the totals and stores the invoice
// under the next HD number.
func (s *Service) Create(ctx context.Context, d Draft) (Invoice, error) {
	inv, err := s.build(ctx, d)
	if err != nil {
		return Invoice{}, err
	}
	soCT, err := s.Repo.Create(ctx, inv)
	if err != nil {
		obs.InvoicesCreatedTotal.WithLabelValues("error").Inc()
		return Invoice{}, err
	}
	inv.SoCT = soCT
	obs.InvoicesCreatedTotal.WithLabelValues("ok").Inc()

	if err := s.Bus.Publish(ctx, events.TopicInvoiceCreated, map[string]any{
		"soct": inv.SoCT, "makh": inv.MaKH, "tientt": inv.TienTT,
	}); err != nil {
		s.Logger.Error().Err(err).Str("soct", inv.SoCT).Msg("publish invoice.created")
	}
	return inv, nil
}

// Update revalidates and rewrites an existing invoice in place, keeping its
// number.
func (s *Service) Update(ctx context.Context, soCT string, d Draft) (Invoice, error) {
	inv, err := s.build(ctx, d)
	if err != nil {
		return Invoice{}, err
	}
	inv.SoCT = soCT
	ok, err := s.Repo.Update(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	if !ok {
		return Invoice{}, ErrNotFound
	}
	if err := s.Bus.Publish(ctx, events.TopicInvoiceUpdated, map[string]any{
		"soct": inv.SoCT, "makh": inv.MaKH, "tientt": inv.TienTT,
	}); err != nil {
		s.Logger.Error().Err(err).Str("soct", inv.SoCT).Msg("publish invoice.updated")
	}
	return inv, nil
}

// Delete removes an invoice and its lines. An invoice referenced by a
// discount voucher cannot be deleted.
func (s *Service) Delete(ctx context.Context, soCT string) error {
	used, err := s.Repo.HasVouchers(ctx, soCT)
	if err != nil {
		return err
	}
	if used {
		return common.NewAppError("INVOICE_IN_USE", "hoa don da co phieu giam gia tham chieu, khong the xoa", http.StatusConflict, nil)
	}
	ok, err := s.Repo.Delete(ctx, soCT)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.Bus.Publish(ctx, events.TopicInvoiceDeleted, map[string]any{"soct": soCT}); err != nil {
		s.Logger.Error().Err(err).Str("soct", soCT).Msg("publish invoice.deleted")
	}
	return nil
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, soCT string) (Invoice, error) {
	inv, ok, err := s.Repo.Get(ctx, soCT)
	if err != nil {
		return Invoice{}, err
	}
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

// List returns invoices filtered by customer and date range.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Invoice, int64, error) {
	return s.Repo.List(ctx, q)
}

// build runs the draft through the line-item store and calculator, then
// checks referential fields. All failures are reported in one pass.
func (s *Service) build(ctx context.Context, d Draft) (Invoice, error) {
	store := totals.NewStore(totals.KindInvoice, s.Products)
	store.AllowTax = s.TaxRates
	store.AllowCK = s.DiscountRates
	store.Load(d.ChiTiet, d.ThueSuat, d.TyLeCK)

	if errs := store.Validate(); len(errs) > 0 {
		return Invoice{}, common.NewAppError("VALIDATION", "chung tu khong hop le", http.StatusUnprocessableEntity, nil).
			WithDetails(errs)
	}
	if len(d.ChiTiet) == 0 {
		return Invoice{}, common.NewAppError("VALIDATION", "hoa don can it nhat mot dong hang", http.StatusUnprocessableEntity, nil)
	}

	items := store.Items()
	for i := range items {
		info, err := s.Products.ProductByCode(ctx, items[i].ProductCode)
		if err != nil {
			return Invoice{}, err
		}
		items[i].ProductName = info.Name
		if items[i].Unit == "" {
			items[i].Unit = info.Unit
		}
	}

	cust, err := s.Customers.Get(ctx, d.MaKH)
	if err != nil {
		return Invoice{}, err
	}
	for _, maTK := range []string{d.TKNo, d.TKCoDT, d.TKCoThue} {
		if err := s.checkAccount(ctx, maTK); err != nil {
			return Invoice{}, err
		}
	}
	if d.TKChietKhau != "" {
		if err := s.checkAccount(ctx, d.TKChietKhau); err != nil {
			return Invoice{}, err
		}
	}

	t := store.Totals()
	obs.TotalsRecomputeTotal.WithLabelValues("hoadon").Inc()

	if d.TienTT != nil && math.Abs(*d.TienTT-t.GrandTotal) > totalTolerance {
		return Invoice{}, common.NewAppError("TOTAL_MISMATCH", "tong thanh toan khong khop voi tinh toan", http.StatusUnprocessableEntity, nil).
			WithDetails(map[string]float64{"declared": *d.TienTT, "computed": t.GrandTotal})
	}

	return Invoice{
		NgayLap:     d.NgayLap,
		MaKH:        cust.MaKH,
		TenKH:       cust.TenKH,
		HinhThucTT:  d.HinhThucTT,
		TKNo:        d.TKNo,
		DienGiai:    d.DienGiai,
		TKCoDT:      d.TKCoDT,
		TKCoThue:    d.TKCoThue,
		ThueSuat:    t.TaxRate,
		TienThue:    t.TaxAmount,
		TyLeCK:      t.DiscountPct,
		TKChietKhau: d.TKChietKhau,
		TienCK:      t.Discount,
		TienDT:      t.Subtotal,
		TienTT:      t.GrandTotal,
		ChiTiet:     items,
	}, nil
}

func (s *Service) checkAccount(ctx context.Context, maTK string) error {
	ok, err := s.Repo.AccountExists(ctx, maTK)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewAppError("ACCOUNT_NOT_FOUND", "tai khoan "+maTK+" khong ton tai", http.StatusUnprocessableEntity, nil)
	}
	return nil
}
