package voucher

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
	created       []Voucher
	invoiceExists bool
}

func (s *stubRepo) Create(_ context.Context, v Voucher) (string, error) {
	s.created = append(s.created, v)
	return "PG0001", nil
}
func (s *stubRepo) Update(context.Context, Voucher) (bool, error) { return false, nil }
func (s *stubRepo) Delete(context.Context, string) (bool, error)  { return false, nil }
func (s *stubRepo) Get(context.Context, string) (Voucher, bool, error) {
	return Voucher{}, false, nil
}
func (s *stubRepo) List(context.Context, string, string, int, int) ([]Voucher, int64, error) {
	return nil, 0, nil
}
func (s *stubRepo) InvoiceExists(context.Context, string) (bool, error) {
	return s.invoiceExists, nil
}
func (s *stubRepo) AccountExists(_ context.Context, maTK string) (bool, error) {
	return maTK == "521" || maTK == "131" || maTK == "3331", nil
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
	if code != "SP0001" {
		return totals.ProductInfo{}, common.NewAppError("PRODUCT_NOT_FOUND", "khong tim thay san pham", 404, nil)
	}
	return totals.ProductInfo{Code: code, Name: "Gao ST25", Unit: "kg", UnitPrice: 100000}, nil
}

func newTestService(repo *stubRepo) *Service {
	return &Service{
		Repo:      repo,
		Customers: stubCustomers{},
		Products:  stubProducts{},
		Bus:       &events.Bus{},
		Logger:    zerolog.Nop(),
	}
}

func validDraft() Draft {
	return Draft{
		NgayLap:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		MaKH:        "KH0001",
		TKNoGiamTru: "521",
		TKCoTT:      "131",
		SoCT:        "HD0001",
		ThueSuat:    10,
		TKNoThue:    "3331",
		ChiTiet: []totals.LineItem{
			{ProductCode: "SP0001", Quantity: 1, Unit: "kg", UnitPrice: 100000},
		},
	}
}

func TestCreateDerivesTotals(t *testing.T) {
	repo := &stubRepo{invoiceExists: true}
	svc := newTestService(repo)

	v, err := svc.Create(context.Background(), validDraft())

	require.NoError(t, err)
	assert.Equal(t, "PG0001", v.SoPhieu)
	assert.Equal(t, 100000.0, v.TienDT)
	assert.Equal(t, 10000.0, v.TienThue)
	assert.Equal(t, 110000.0, v.TienTT)
}

func TestCreateRequiresLine(t *testing.T) {
	svc := newTestService(&stubRepo{invoiceExists: true})
	d := validDraft()
	d.ChiTiet = nil

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", appErr.Code)
}

func TestCreateRequiresExistingInvoice(t *testing.T) {
	svc := newTestService(&stubRepo{invoiceExists: false})

	_, err := svc.Create(context.Background(), validDraft())

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVOICE_NOT_FOUND", appErr.Code)
}

func TestCreateAcceptsAnyRateWithinBounds(t *testing.T) {
	svc := newTestService(&stubRepo{invoiceExists: true})
	d := validDraft()
	d.ThueSuat = 7

	v, err := svc.Create(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, 7.0, v.ThueSuat)
	assert.Equal(t, 7000.0, v.TienThue)
	assert.Equal(t, 107000.0, v.TienTT)
}

func TestCreateRejectsRateOutOfBounds(t *testing.T) {
	for _, rate := range []float64{-1, 100.5, 101} {
		svc := newTestService(&stubRepo{invoiceExists: true})
		d := validDraft()
		d.ThueSuat = rate

		_, err := svc.Create(context.Background(), d)

		appErr, ok := common.IsAppError(err)
		require.True(t, ok, "rate %v", rate)
		assert.Equal(t, "VALIDATION", appErr.Code)
	}
}

func TestCreateRejectsTotalMismatch(t *testing.T) {
	svc := newTestService(&stubRepo{invoiceExists: true})
	d := validDraft()
	declared := 120000.0
	d.TienTT = &declared

	_, err := svc.Create(context.Background(), d)

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "TOTAL_MISMATCH", appErr.Code)
}
