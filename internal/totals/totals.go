// Package totals derives the financial summary of a sales document
// (invoice or discount voucher) from its editable line items. It is the
// single calculator shared by every document form; the arithmetic lives
// here and nowhere else.
package totals

import "math"

// LineItem is one row of a document: a product reference, its quantity and
// unit price. ProductName and Unit are display copies refreshed on every
// product lookup; the calculator never reads them.
type LineItem struct {
	ProductCode string  `json:"maspdv"`
	ProductName string  `json:"tenspdv,omitempty"`
	Unit        string  `json:"dvt"`
	Quantity    float64 `json:"soluong"`
	UnitPrice   float64 `json:"dongia"`
}

// LineTotal returns quantity multiplied by unit price, degrading invalid
// numeric state to zero rather than propagating NaN.
func (li LineItem) LineTotal() float64 {
	return sanitize(li.Quantity) * sanitize(li.UnitPrice)
}

// Totals is the derived financial summary of a document. It has no
// lifecycle of its own: it is recomputed from scratch on every change.
type Totals struct {
	Subtotal    float64 `json:"tiendt"`
	TaxAmount   float64 `json:"tienthue"`
	Discount    float64 `json:"tienck"`
	GrandTotal  float64 `json:"tientt"`
	TaxRate     float64 `json:"thuesuat"`
	DiscountPct float64 `json:"tyleck"`
}

// Compute derives subtotal, tax, discount and grand total from the items and
// rate selections. discountRate is nil for documents without a discount
// (vouchers). Non-finite quantities or prices contribute zero for that row;
// the function never returns an error and applies no currency rounding.
func Compute(items []LineItem, taxRate float64, discountRate *float64) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.LineTotal()
	}

	tax := subtotal * sanitize(taxRate) / 100
	var discount float64
	var discountPct float64
	if discountRate != nil {
		discountPct = sanitize(*discountRate)
		discount = subtotal * discountPct / 100
	}

	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		Discount:    discount,
		GrandTotal:  subtotal + tax - discount,
		TaxRate:     sanitize(taxRate),
		DiscountPct: discountPct,
	}
}

// sanitize maps NaN and infinities to zero so a half-typed numeric field
// never poisons the aggregate.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
