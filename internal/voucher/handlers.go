package voucher

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/totals"
)

// Handler exposes voucher endpoints.
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
	DienGiai    string        `json:"diengiai" validate:"max=500"`
	TKNoGiamTru string        `json:"tknogiamtru" validate:"required,max=10"`
	TKCoTT      string        `json:"tkcott" validate:"required,max=10"`
	SoCT        string        `json:"soct" validate:"required,max=10"`
	ThueSuat    float64       `json:"thuesuat" validate:"gte=0,lte=100"`
	TKNoThue    string        `json:"tknothue" validate:"required,max=10"`
	TienTT      *float64      `json:"tientt"`
	ChiTiet     []lineRequest `json:"chi_tiet" validate:"min=1,dive"`
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
		DienGiai:    payload.DienGiai,
		TKNoGiamTru: payload.TKNoGiamTru,
		TKCoTT:      payload.TKCoTT,
		SoCT:        payload.SoCT,
		ThueSuat:    payload.ThueSuat,
		TKNoThue:    payload.TKNoThue,
		TienTT:      payload.TienTT,
		ChiTiet:     items,
	}, true
}

// Create handles POST /api/v1/phieugiamgia.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Create(r.Context(), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": v})
}

// Update handles PUT /api/v1/phieugiamgia/{sophieu}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Update(r.Context(), chi.URLParam(r, "sophieu"), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Get handles GET /api/v1/phieugiamgia/{sophieu}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Get(r.Context(), chi.URLParam(r, "sophieu"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// List handles GET /api/v1/phieugiamgia?makh=&soct=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Service.List(r.Context(), r.URL.Query().Get("makh"), r.URL.Query().Get("soct"), common.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Delete handles DELETE /api/v1/phieugiamgia/{sophieu}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "sophieu")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
