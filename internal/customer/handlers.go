package customer

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes customer directory endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// List handles GET /api/v1/khachhang.
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

// Get handles GET /api/v1/khachhang/{makh}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "makh"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Create handles POST /api/v1/khachhang.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload Customer
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

// Update handles PUT /api/v1/khachhang/{makh}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload Customer
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	payload.MaKH = chi.URLParam(r, "makh")
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

// Delete handles DELETE /api/v1/khachhang/{makh}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "makh")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
