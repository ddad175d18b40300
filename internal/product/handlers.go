package product

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes product catalog endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// List handles GET /api/v1/spdv.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Service.List(r.Context(), r.URL.Query().Get("search"), common.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/spdv/{maspdv}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "maspdv"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Price handles GET /api/v1/spdv/{maspdv}/gia?date=YYYY-MM-DD, returning the
// effective unit price for a document dated that day.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	on := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := common.ParseDate(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD or RFC3339", nil)
			return
		}
		on = parsed
	}
	maSPDV := chi.URLParam(r, "maspdv")
	price, err := h.Service.EffectivePrice(r.Context(), maSPDV, on)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"maspdv": maSPDV,
		"ngay":   on.Format("2006-01-02"),
		"dongia": price,
	}})
}

// Create handles POST /api/v1/spdv.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload Product
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "validation failed", common.ValidationDetails(err))
		return
	}
	created, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /api/v1/spdv/{maspdv}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload Product
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	payload.MaSPDV = chi.URLParam(r, "maspdv")
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "validation failed", common.ValidationDetails(err))
		return
	}
	updated, err := h.Service.Update(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/spdv/{maspdv}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "maspdv")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
