package totals

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestComputeInvoiceNoDiscount(t *testing.T) {
	items := []LineItem{
		{ProductCode: "SP0001", Quantity: 2, UnitPrice: 100000},
		{ProductCode: "SP0002", Quantity: 1, UnitPrice: 50000},
	}

	got := Compute(items, 10, nil)

	assert.Equal(t, 250000.0, got.Subtotal)
	assert.Equal(t, 25000.0, got.TaxAmount)
	assert.Equal(t, 0.0, got.Discount)
	assert.Equal(t, 275000.0, got.GrandTotal)
}

func TestComputeWithDiscount(t *testing.T) {
	items := []LineItem{
		{ProductCode: "SP0001", Quantity: 2, UnitPrice: 100000},
		{ProductCode: "SP0002", Quantity: 1, UnitPrice: 50000},
	}

	got := Compute(items, 10, ptr(10))

	assert.Equal(t, 25000.0, got.Discount)
	assert.Equal(t, 250000.0, got.GrandTotal)
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, 10, ptr(5))

	assert.Zero(t, got.Subtotal)
	assert.Zero(t, got.TaxAmount)
	assert.Zero(t, got.Discount)
	assert.Zero(t, got.GrandTotal)
}

func TestComputeOrderIndependent(t *testing.T) {
	items := []LineItem{
		{Quantity: 3, UnitPrice: 12000},
		{Quantity: 1.5, UnitPrice: 40000},
		{Quantity: 7, UnitPrice: 999},
	}
	forward := Compute(items, 8, nil)

	reversed := []LineItem{items[2], items[1], items[0]}
	backward := Compute(reversed, 8, nil)

	assert.Equal(t, forward, backward)
}

func TestComputeIdempotent(t *testing.T) {
	items := []LineItem{{Quantity: 4, UnitPrice: 25000}}

	first := Compute(items, 10, ptr(5))
	second := Compute(items, 10, ptr(5))

	assert.Equal(t, first, second)
}

func TestComputeNonFiniteContributesZero(t *testing.T) {
	items := []LineItem{
		{Quantity: 2, UnitPrice: 100000},
		{Quantity: math.NaN(), UnitPrice: 50000},
		{Quantity: 1, UnitPrice: math.Inf(1)},
	}

	got := Compute(items, 10, nil)

	assert.Equal(t, 200000.0, got.Subtotal)
	assert.Equal(t, 20000.0, got.TaxAmount)
	assert.False(t, math.IsNaN(got.GrandTotal))
}

func TestComputeNonFiniteRates(t *testing.T) {
	items := []LineItem{{Quantity: 1, UnitPrice: 100000}}

	got := Compute(items, math.NaN(), ptr(math.Inf(-1)))

	assert.Equal(t, 100000.0, got.Subtotal)
	assert.Zero(t, got.TaxAmount)
	assert.Zero(t, got.Discount)
	assert.Equal(t, 100000.0, got.GrandTotal)
}

func TestComputeGrandTotalIdentityRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		items := make([]LineItem, n)
		var want float64
		for j := range items {
			q := float64(rng.Intn(100)) / 4
			p := float64(rng.Intn(5_000_000))
			items[j] = LineItem{Quantity: q, UnitPrice: p}
			want += q * p
		}
		tax := float64(rng.Intn(101))
		ck := float64(rng.Intn(101))

		got := Compute(items, tax, &ck)

		require.Equal(t, want, got.Subtotal)
		require.Equal(t, want*tax/100, got.TaxAmount)
		require.Equal(t, got.Subtotal+got.TaxAmount-got.Discount, got.GrandTotal)
	}
}

func TestLineTotalNegativePassesThrough(t *testing.T) {
	// Sign errors surface at submit validation, not in the arithmetic.
	li := LineItem{Quantity: -2, UnitPrice: 1000}
	assert.Equal(t, -2000.0, li.LineTotal())
}
