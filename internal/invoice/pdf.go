package invoice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF produces a printable A4 rendition of the invoice. Text is kept
// to the core latin font set, so diacritics are dropped from labels.
func RenderPDF(inv Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "HOA DON BAN HANG")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("So chung tu: %s", inv.SoCT))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Ngay lap: %s", inv.NgayLap.Format("02/01/2006")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Khach hang: %s (%s)", inv.TenKH, inv.MaKH))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Hinh thuc thanh toan: %s", inv.HinhThucTT))
	pdf.Ln(7)
	if inv.DienGiai != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Dien giai: %s", inv.DienGiai))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 8, "Ma SP", "1", 0, "C", false, 0, "")
	pdf.CellFormat(65, 8, "Ten san pham", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "DVT", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "So luong", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Don gia", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Thanh tien", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.ChiTiet {
		pdf.CellFormat(25, 7, it.ProductCode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(65, 7, it.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, it.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, formatAmount(it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatAmount(it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatAmount(it.LineTotal()), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	summary := func(label string, v float64) {
		pdf.CellFormat(130, 7, "", "", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, formatAmount(v), "", 1, "R", false, 0, "")
	}
	summary("Tien hang:", inv.TienDT)
	summary(fmt.Sprintf("Thue (%s%%):", formatAmount(inv.ThueSuat)), inv.TienThue)
	if inv.TienCK != 0 {
		summary(fmt.Sprintf("Chiet khau (%s%%):", formatAmount(inv.TyLeCK)), inv.TienCK)
	}
	pdf.SetFont("Arial", "B", 11)
	summary("Tong thanh toan:", inv.TienTT)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount renders a number with thousands separators in the Vietnamese
// style, dropping a fractional part of zero.
func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int64(v)
	frac := v - float64(whole)

	s := fmt.Sprintf("%d", whole)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	res := string(out)
	if frac > 0.005 {
		res += fmt.Sprintf(",%02d", int(frac*100+0.5))
	}
	if neg {
		res = "-" + res
	}
	return res
}
