package discount

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes discount tier endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type setRequest struct {
	MaSPDV  string  `json:"maspdv" validate:"required,max=10"`
	NgayHL  string  `json:"ngayhl" validate:"required"`
	MucTien float64 `json:"muctien" validate:"gte=0"`
	TyLeCK  float64 `json:"tyleck" validate:"gte=0,lte=100"`
}

// Set handles POST /api/v1/dinhmucck.
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
	tier, err := h.Service.Set(r.Context(), Tier{
		MaSPDV:  payload.MaSPDV,
		NgayHL:  ngayHL,
		MucTien: payload.MucTien,
		TyLeCK:  payload.TyLeCK,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": tier})
}

// History handles GET /api/v1/dinhmucck/{maspdv}.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.Service.History(r.Context(), chi.URLParam(r, "maspdv"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tiers})
}

// Applicable handles GET /api/v1/dinhmucck/{maspdv}/apdung?date=&amount=.
func (h *Handler) Applicable(w http.ResponseWriter, r *http.Request) {
	on := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := common.ParseDate(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD or RFC3339", nil)
			return
		}
		on = parsed
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount < 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be a non-negative number", nil)
		return
	}
	tier, err := h.Service.Applicable(r.Context(), chi.URLParam(r, "maspdv"), on, amount)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tier})
}

// Delete handles DELETE /api/v1/dinhmucck/{maspdv}/{ngayhl}.
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
