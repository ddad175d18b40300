package totals

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// DocumentKind selects the validation rules a Store applies.
type DocumentKind string

const (
	KindInvoice DocumentKind = "hoadon"
	KindVoucher DocumentKind = "phieugiamgia"
)

// ProductInfo is the subset of the product catalog a row needs when the
// operator picks a product code.
type ProductInfo struct {
	Code      string
	Name      string
	Unit      string
	UnitPrice float64
}

// ProductLookup resolves a product code to its catalog entry. Implemented by
// the product service; a nil lookup disables autofill.
type ProductLookup interface {
	ProductByCode(ctx context.Context, code string) (ProductInfo, error)
}

// Row is one editable line of a document draft. Key is a synthetic
// identifier stable across edits and removals; it never leaves the process.
type Row struct {
	Key  int64
	Item LineItem

	// priceSet records that the operator typed a price by hand, so a later
	// product change must not overwrite it.
	priceSet bool
}

// FieldError is a validation failure scoped to one row and field. RowKey is
// zero for document-level failures.
type FieldError struct {
	RowKey  int64  `json:"row,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Store holds the mutable line items of one document draft and keeps the
// derived totals current. All mutations recompute eagerly, so Totals is
// always consistent with Rows without a separate refresh step.
//
// Store is not safe for concurrent use; each draft belongs to a single
// request or form session.
type Store struct {
	Kind     DocumentKind
	Lookup   ProductLookup
	AllowTax []float64 // permitted tax rates, ignored for vouchers
	AllowCK  []float64 // permitted discount rates, ignored for vouchers

	rows    []Row
	nextKey int64

	taxRate      float64
	discountRate *float64

	totals Totals
}

// NewStore returns an empty draft of the given kind. Invoice drafts start
// with a zero tax rate and no discount.
func NewStore(kind DocumentKind, lookup ProductLookup) *Store {
	s := &Store{Kind: kind, Lookup: lookup, nextKey: 1}
	s.recompute()
	return s
}

// Rows returns the rows in insertion order. The slice is a copy; mutate rows
// through UpdateItem only.
func (s *Store) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Items returns just the line items, for the calculator and persistence.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Item
	}
	return out
}

// Totals returns the summary derived from the current rows and rates.
func (s *Store) Totals() Totals { return s.totals }

// AddItem appends a blank row (quantity 1, price 0) and returns its key.
func (s *Store) AddItem() int64 {
	key := s.nextKey
	s.nextKey++
	s.rows = append(s.rows, Row{Key: key, Item: LineItem{Quantity: 1}})
	s.recompute()
	return key
}

// RemoveItem deletes the row with the given key. Removing an unknown key is
// a no-op so a double-click on a delete control cannot fail.
func (s *Store) RemoveItem(key int64) {
	for i, r := range s.rows {
		if r.Key == key {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			s.recompute()
			return
		}
	}
}

// RowPatch carries the fields of one edit. Nil fields are untouched.
type RowPatch struct {
	ProductCode *string
	Quantity    *float64
	UnitPrice   *float64
	Unit        *string
}

// UpdateItem applies a patch to one row. Changing the product code refreshes
// name, unit and, unless the operator already typed one, the unit price from
// the catalog. Totals are recomputed before returning.
func (s *Store) UpdateItem(ctx context.Context, key int64, patch RowPatch) error {
	idx := -1
	for i, r := range s.rows {
		if r.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.NewAppError("ROW_NOT_FOUND", fmt.Sprintf("row %d does not exist", key), 404, nil)
	}
	row := &s.rows[idx]

	if patch.ProductCode != nil && *patch.ProductCode != row.Item.ProductCode {
		if s.Lookup != nil && *patch.ProductCode != "" {
			// Resolve the new code before touching the row so a failed
			// lookup leaves it intact.
			info, err := s.Lookup.ProductByCode(ctx, *patch.ProductCode)
			if err != nil {
				return err
			}
			row.Item.ProductCode = *patch.ProductCode
			row.Item.ProductName = info.Name
			row.Item.Unit = info.Unit
			if !row.priceSet {
				row.Item.UnitPrice = info.UnitPrice
			}
		} else {
			row.Item.ProductCode = *patch.ProductCode
		}
	}
	if patch.Quantity != nil {
		row.Item.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		row.Item.UnitPrice = *patch.UnitPrice
		row.priceSet = true
	}
	if patch.Unit != nil {
		row.Item.Unit = *patch.Unit
	}

	s.recompute()
	return nil
}

// SetTaxRate records the selected tax rate. Rate membership is checked at
// Validate time, not here, so the operator can toggle freely while editing.
func (s *Store) SetTaxRate(rate float64) {
	s.taxRate = rate
	s.recompute()
}

// SetDiscountRate records the selected discount rate; nil clears it.
func (s *Store) SetDiscountRate(rate *float64) {
	if rate == nil {
		s.discountRate = nil
	} else {
		v := *rate
		s.discountRate = &v
	}
	s.recompute()
}

// Load replaces the draft's rows and rates wholesale, as when editing an
// existing document. Existing rows are discarded.
func (s *Store) Load(items []LineItem, taxRate float64, discountRate *float64) {
	s.rows = s.rows[:0]
	for _, it := range items {
		s.rows = append(s.rows, Row{Key: s.nextKey, Item: it, priceSet: true})
		s.nextKey++
	}
	s.taxRate = taxRate
	s.SetDiscountRate(discountRate)
}

// Validate checks the draft against submit-time rules and returns every
// failure at once, rows in key order. An empty slice means the draft may be
// submitted. Editing never validates; only submission does.
func (s *Store) Validate() []FieldError {
	var errs []FieldError

	if s.Kind == KindVoucher && len(s.rows) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "phieu giam gia can it nhat mot dong hang"})
	}

	for _, r := range s.rows {
		if r.Item.ProductCode == "" {
			errs = append(errs, FieldError{RowKey: r.Key, Field: "maspdv", Message: "chua chon san pham"})
		}
		if !(r.Item.Quantity > 0) || math.IsInf(r.Item.Quantity, 0) {
			errs = append(errs, FieldError{RowKey: r.Key, Field: "soluong", Message: "so luong phai lon hon 0"})
		}
		if r.Item.UnitPrice < 0 || math.IsNaN(r.Item.UnitPrice) || math.IsInf(r.Item.UnitPrice, 0) {
			errs = append(errs, FieldError{RowKey: r.Key, Field: "dongia", Message: "don gia khong hop le"})
		}
	}

	if s.Kind == KindInvoice {
		if !rateAllowed(s.taxRate, s.AllowTax) {
			errs = append(errs, FieldError{Field: "thuesuat", Message: "thue suat khong hop le"})
		}
		if s.discountRate != nil && !rateAllowed(*s.discountRate, s.AllowCK) {
			errs = append(errs, FieldError{Field: "tyleck", Message: "ty le chiet khau khong hop le"})
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].RowKey < errs[j].RowKey })
	return errs
}

func (s *Store) recompute() {
	s.totals = Compute(s.Items(), s.taxRate, s.discountRate)
}

func rateAllowed(rate float64, allowed []float64) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if rate == a {
			return true
		}
	}
	return false
}
