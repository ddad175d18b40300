package product

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

type stubRepo struct {
	products map[string]Product
	prices   map[string]float64 // maspdv -> price-list price
	getCalls int
}

func (s *stubRepo) NextCode(context.Context, string) (string, error) { return "SP0001", nil }
func (s *stubRepo) Insert(_ context.Context, p Product) error {
	s.products[p.MaSPDV] = p
	return nil
}
func (s *stubRepo) Update(_ context.Context, p Product) (bool, error) {
	_, ok := s.products[p.MaSPDV]
	if ok {
		s.products[p.MaSPDV] = p
	}
	return ok, nil
}
func (s *stubRepo) Delete(_ context.Context, code string) error {
	delete(s.products, code)
	return nil
}
func (s *stubRepo) Get(_ context.Context, code string) (Product, bool, error) {
	s.getCalls++
	p, ok := s.products[code]
	return p, ok, nil
}
func (s *stubRepo) List(context.Context, string, int, int) ([]Product, int64, error) {
	return nil, 0, nil
}
func (s *stubRepo) HasDocumentLines(context.Context, string) (bool, error) { return false, nil }
func (s *stubRepo) PriceOn(_ context.Context, code string, _ time.Time) (float64, bool, error) {
	p, ok := s.prices[code]
	return p, ok, nil
}

func newTestService(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &stubRepo{
		products: map[string]Product{
			"SP0001": {MaSPDV: "SP0001", TenSPDV: "Gao ST25", DonGia: 90000, DVT: "kg"},
		},
		prices: map[string]float64{},
	}
	svc := &Service{Repo: repo, Cache: common.NewCache(client, time.Minute), Logger: zerolog.Nop()}
	return svc, repo
}

func TestGetCachesSecondRead(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := svc.Get(ctx, "SP0001")
	require.NoError(t, err)
	second, err := svc.Get(ctx, "SP0001")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.getCalls)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "SP0001")
	require.NoError(t, err)

	updated := repo.products["SP0001"]
	updated.DonGia = 95000
	_, err = svc.Update(ctx, updated)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "SP0001")
	require.NoError(t, err)
	assert.Equal(t, 95000.0, got.DonGia)
}

func TestGetUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "SP9999")

	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "PRODUCT_NOT_FOUND", appErr.Code)
}

func TestEffectivePricePrefersPriceList(t *testing.T) {
	svc, repo := newTestService(t)
	repo.prices["SP0001"] = 110000

	price, err := svc.EffectivePrice(context.Background(), "SP0001", time.Now())

	require.NoError(t, err)
	assert.Equal(t, 110000.0, price)
}

func TestEffectivePriceFallsBackToListPrice(t *testing.T) {
	svc, _ := newTestService(t)

	price, err := svc.EffectivePrice(context.Background(), "SP0001", time.Now())

	require.NoError(t, err)
	assert.Equal(t, 90000.0, price)
}
