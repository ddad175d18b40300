package pricelist

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes price-list endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type setRequest struct {
	MaSPDV string  `json:"maspdv" validate:"required,max=10"`
	NgayHL string  `json:"ngayhl" validate:"required"`
	GiaBan float64 `json:"giaban" validate:"gte=0"`
}

// Set handles POST /api/v1/banggia.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var payload setRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "validation failed", common.ValidationDetails(err))
		return
	}
	ngayHL, err := common.ParseDate(payload.NgayHL)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "ngayhl must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	entry, err := h.Service.Set(r.Context(), Entry{MaSPDV: payload.MaSPDV, NgayHL: ngayHL, GiaBan: payload.GiaBan})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": entry})
}

// History handles GET /api/v1/banggia/{maspdv}.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.History(r.Context(), chi.URLParam(r, "maspdv"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

// Latest handles GET /api/v1/banggia/{maspdv}/hienhanh?date=YYYY-MM-DD.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	on := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := common.ParseDate(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD or RFC3339", nil)
			return
		}
		on = parsed
	}
	entry, err := h.Service.Latest(r.Context(), chi.URLParam(r, "maspdv"), on)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entry})
}

// Delete handles DELETE /api/v1/banggia/{maspdv}/{ngayhl}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ngayHL, err := common.ParseDate(chi.URLParam(r, "ngayhl"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "ngayhl must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "maspdv"), ngayHL); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
