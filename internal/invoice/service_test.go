package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/customer"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/events"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

type stubRepo struct {
	created     []Invoice
	hasVouchers bool
	stored      map[string]Invoice
}

func (s *stubRepo) Create(_ context.Context, inv Invoice) (string, error) {
	s.created = append(s.created, inv)
	return "HD0001", nil
}
func (s *stubRepo) Update(_ context.Context, inv Invoice) (bool, error) {
	_, ok := s.stored[inv.SoCT]
	return ok, nil
}
func (s *stubRepo) Delete(_ context.Context, soCT string) (bool, error) {
	_, ok := s.stored[soCT]
	delete(s.stored, soCT)
	return ok, nil
}
func (s *stubRepo) HasVouchers(context.Context, string) (bool, error) { return s.hasVouchers, nil }
func (s *stubRepo) Get(_ context.Context, soCT string) (Invoice, bool, error) {
	inv, ok := s.stored[soCT]
	return inv, ok, nil
}
func (s *stubRepo) List(context.Context, ListQuery) ([]Invoice, int64, error) { return nil, 0, nil }
func (s *stubRepo) AccountExists(_ context.Context, maTK string) (bool, error) {
	switch maTK {
	case "131", "511", "3331", "521":
		return true, nil
	}
	return false, nil
}

type stubCustomers struct{}

func (stubCustomers) Get(_ context.Context, maKH string) (customer.Customer, error) {
	if maKH != "KH0001" {
		return customer.Customer{}, customer.ErrNotFound
	}
	return customer.Customer{MaKH: "KH0001", TenKH: "Cong ty TNHH An Phat"}, nil
}

type stubProducts struct{}

func (stubProducts) ProductByCode(_ context.Context, code string) (totals.ProductInfo, error) {
	switch code {
	case "SP0001":
		return totals.ProductInfo{Code: code, Name: "Gao ST25", Unit: "kg", UnitPrice: 100000}, nil
	case "SP0002":
		return totals.ProductInfo{Code: code, Name: "Duong cat", Unit: "kg", UnitPrice: 50000}, nil
	}
	return totals.ProductInfo{}, common.NewAppError("PRODUCT_NOT_FOUND", "khong tim thay san pham", 404, nil)
}

func ptr(v float64) *float64 { return &v }

func newTestService(repo *stubRepo) *Service {
	return &Service{
		Repo:          repo,
		Customers:     stubCustomers{},
		Products:      stubProducts{},
		Bus:           &events.Bus{},
		Logger:        zerolog.Nop(),
		TaxRates:      []float64{0, 5, 8, 10},
		DiscountRates: []float64{0, 5, 10, 15, 20},
	}
}

func validDraft() Draft {
	return Draft{
		NgayLap:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		MaKH:       "KH0001",
		HinhThucTT: "chuyen khoan",
		TKNo:       "131",
		TKCoDT:     "511",
		TKCoThue:   "3331",
		ThueSuat:   10,
		ChiTiet: []totals.LineItem{
			{ProductCode: "SP0001", Quantity: 2, Unit: "kg", UnitPrice: 100000},
			{ProductCode: "SP0002", Quantity: 1, Unit: "kg", UnitPrice: 50000},
		},
	}
}

func TestCreateDerivesTotals(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	inv, err := svc.Create(context.Background(), validDraft())

	require.NoError(t, err)
	assert.Equal(t, "HD0001", inv.SoCT)
	assert.Equal(t, "Cong ty TNHH An Phat", inv.TenKH)
	assert.Equal(t, 250000.0, inv.TienDT)
	assert.Equal(t, 25000.0, inv.TienThue)
	assert.Zero(t, inv.TienCK)
	assert.Equal(t, 275000.0, inv.TienTT)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Gao ST25", repo.created[0].ChiTiet[0].ProductName)
}

func TestCreateWithDiscount(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.TyLeCK = ptr(10)
	d.TKChietKhau = "521"

	inv, err := svc.Create(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, 25000.0, inv.TienCK)
	assert.Equal(t, 250000.0, inv.TienTT)
}

func TestCreateRejectsUnknownTaxRate(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.ThueSuat = 7

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", appErr.Code)
	assert.Equal(t, 422, appErr.HTTPStatus)
}

func TestCreateRejectsUnknownDiscountRate(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.TyLeCK = ptr(12)

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", appErr.Code)
}

func TestCreateToleratesRoundingDrift(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.TienTT = ptr(275000.6)

	_, err := svc.Create(context.Background(), d)

	require.NoError(t, err)
}

func TestCreateRejectsTotalMismatch(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.TienTT = ptr(280000)

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "TOTAL_MISMATCH", appErr.Code)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.ChiTiet = nil

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", appErr.Code)
}

func TestCreateRejectsUnknownAccount(t *testing.T) {
	svc := newTestService(&stubRepo{})
	d := validDraft()
	d.TKNo = "999"

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", appErr.Code)
}

func TestDeleteBlockedByVoucher(t *testing.T) {
	repo := &stubRepo{hasVouchers: true, stored: map[string]Invoice{"HD0001": {SoCT: "HD0001"}}}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "HD0001")

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVOICE_IN_USE", appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestDeleteUnknownInvoice(t *testing.T) {
	svc := newTestService(&stubRepo{stored: map[string]Invoice{}})

	err := svc.Delete(context.Background(), "HD0099")

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVOICE_NOT_FOUND", appErr.Code)
}
