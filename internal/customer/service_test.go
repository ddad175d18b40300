package customer

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

type stubRepo struct {
	customers map[string]Customer
	withDocs  map[string]bool
	nextSeq   int
}

func newStubRepo() *stubRepo {
	return &stubRepo{customers: map[string]Customer{}, withDocs: map[string]bool{}, nextSeq: 1}
}

func (r *stubRepo) NextCode(_ context.Context, prefix string) (string, error) {
	code := fmt.Sprintf("%s%04d", prefix, r.nextSeq)
	r.nextSeq++
	return code, nil
}

func (r *stubRepo) Insert(_ context.Context, c Customer) error {
	r.customers[c.MaKH] = c
	return nil
}

func (r *stubRepo) Update(_ context.Context, c Customer) (bool, error) {
	if _, ok := r.customers[c.MaKH]; !ok {
		return false, nil
	}
	r.customers[c.MaKH] = c
	return true, nil
}

func (r *stubRepo) Delete(_ context.Context, maKH string) error {
	delete(r.customers, maKH)
	return nil
}

func (r *stubRepo) Get(_ context.Context, maKH string) (Customer, bool, error) {
	c, ok := r.customers[maKH]
	return c, ok, nil
}

func (r *stubRepo) List(context.Context, string, int, int) ([]Customer, int64, error) {
	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *stubRepo) HasDocuments(_ context.Context, maKH string) (bool, error) {
	return r.withDocs[maKH], nil
}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	svc := &Service{Repo: newStubRepo()}
	ctx := context.Background()

	first, err := svc.Create(ctx, Customer{TenKH: "Cong ty TNHH An Phat", DiaChi: "12 Le Loi, Da Nang"})
	require.NoError(t, err)
	assert.Equal(t, "KH0001", first.MaKH)

	second, err := svc.Create(ctx, Customer{TenKH: "Cua hang Minh Tam", DiaChi: "45 Tran Phu, Hue"})
	require.NoError(t, err)
	assert.Equal(t, "KH0002", second.MaKH)
}

func TestDeleteBlockedWhenDocumentsExist(t *testing.T) {
	repo := newStubRepo()
	repo.customers["KH0001"] = Customer{MaKH: "KH0001", TenKH: "Cong ty TNHH An Phat", DiaChi: "12 Le Loi"}
	repo.withDocs["KH0001"] = true
	svc := &Service{Repo: repo}

	err := svc.Delete(context.Background(), "KH0001")
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "CUSTOMER_IN_USE", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)

	_, err = svc.Get(context.Background(), "KH0001")
	assert.NoError(t, err)
}

func TestDeleteRemovesUnreferencedCustomer(t *testing.T) {
	repo := newStubRepo()
	repo.customers["KH0001"] = Customer{MaKH: "KH0001", TenKH: "Cong ty TNHH An Phat", DiaChi: "12 Le Loi"}
	svc := &Service{Repo: repo}

	require.NoError(t, svc.Delete(context.Background(), "KH0001"))

	_, err := svc.Get(context.Background(), "KH0001")
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", appErr.Code)
}

func TestUpdateUnknownCustomer(t *testing.T) {
	svc := &Service{Repo: newStubRepo()}

	_, err := svc.Update(context.Background(), Customer{MaKH: "KH0099", TenKH: "Ai do", DiaChi: "Dau do"})
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", appErr.Code)
}
