package ledger

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes chart-of-accounts endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// List handles GET /api/v1/tkkt?search=&captk=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	capTK := 0
	if raw := r.URL.Query().Get("captk"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			common.JSONError(w, http.StatusBadRequest, "INVALID_LEVEL", "captk must be a positive integer", nil)
			return
		}
		capTK = parsed
	}
	rows, err := h.Service.List(r.Context(), r.URL.Query().Get("search"), capTK)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Get handles GET /api/v1/tkkt/{matk}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Get(r.Context(), chi.URLParam(r, "matk"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// Create handles POST /api/v1/tkkt.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload Account
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

// Update handles PUT /api/v1/tkkt/{matk}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload Account
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	payload.MaTK = chi.URLParam(r, "matk")
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

// Delete handles DELETE /api/v1/tkkt/{matk}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "matk")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
