package invoice

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

// Handler exposes invoice endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type lineRequest struct {
	MaSPDV  string  `json:"maspdv" validate:"required,max=10"`
	SoLuong float64 `json:"soluong"`
	DVT     string  `json:"dvt" validate:"max=10"`
	DonGia  float64 `json:"dongia"`
}

type draftRequest struct {
	NgayLap     string        `json:"ngaylap" validate:"required"`
	MaKH        string        `json:"makh" validate:"required,max=10"`
	HinhThucTT  string        `json:"hinhthuctt" validate:"required,max=50"`
	TKNo        string        `json:"tkno" validate:"required,max=10"`
	DienGiai    string        `json:"diengiai" validate:"max=500"`
	TKCoDT      string        `json:"tkcodt" validate:"required,max=10"`
	TKCoThue    string        `json:"tkcothue" validate:"required,max=10"`
	ThueSuat    float64       `json:"thuesuat"`
	TyLeCK      *float64      `json:"tyleck"`
	TKChietKhau string        `json:"tkchietkhau" validate:"max=10"`
	TienTT      *float64      `json:"tientt"`
	ChiTiet     []lineRequest `json:"chi_tiet" validate:"dive"`
}

func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var payload draftRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return Draft{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "validation failed", common.ValidationDetails(err))
		return Draft{}, false
	}
	ngayLap, err := common.ParseDate(payload.NgayLap)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "ngaylap must be YYYY-MM-DD or RFC3339", nil)
		return Draft{}, false
	}

	items := make([]totals.LineItem, len(payload.ChiTiet))
	for i, l := range payload.ChiTiet {
		items[i] = totals.LineItem{
			ProductCode: l.MaSPDV,
			Quantity:    l.SoLuong,
			Unit:        l.DVT,
			UnitPrice:   l.DonGia,
		}
	}
	return Draft{
		NgayLap:     ngayLap,
		MaKH:        payload.MaKH,
		HinhThucTT:  payload.HinhThucTT,
		TKNo:        payload.TKNo,
		DienGiai:    payload.DienGiai,
		TKCoDT:      payload.TKCoDT,
		TKCoThue:    payload.TKCoThue,
		ThueSuat:    payload.ThueSuat,
		TyLeCK:      payload.TyLeCK,
		TKChietKhau: payload.TKChietKhau,
		TienTT:      payload.TienTT,
		ChiTiet:     items,
	}, true
}

// Create handles POST /api/v1/hoadon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Create(r.Context(), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": inv})
}

// Update handles PUT /api/v1/hoadon/{soct}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Update(r.Context(), chi.URLParam(r, "soct"), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}

// Get handles GET /api/v1/hoadon/{soct}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.Get(r.Context(), chi.URLParam(r, "soct"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}

// List handles GET /api/v1/hoadon?makh=&from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	q := ListQuery{MaKH: r.URL.Query().Get("makh"), Page: page, PerPage: perPage}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := common.ParseDate(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from must be YYYY-MM-DD or RFC3339", nil)
			return
		}
		q.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := common.ParseDate(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "to must be YYYY-MM-DD or RFC3339", nil)
			return
		}
		// inclusive end date on the wire, exclusive bound in the query
		end := to.AddDate(0, 0, 1)
		q.To = &end
	}

	rows, total, err := h.Service.List(r.Context(), q)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Delete handles DELETE /api/v1/hoadon/{soct}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "soct")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDF handles GET /api/v1/hoadon/{soct}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.Get(r.Context(), chi.URLParam(r, "soct"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	data, err := RenderPDF(inv)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", inv.SoCT))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}
