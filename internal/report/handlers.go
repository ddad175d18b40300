package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// Handler exposes report endpoints.
type Handler struct {
	Service *Service
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := common.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := common.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// inclusive end date on the wire, exclusive bound in the query
	return from, to.AddDate(0, 0, 1), nil
}

// ByCustomer handles GET /api/v1/baocao/doanhthu-khachhang?from=&to=.
func (h *Handler) ByCustomer(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from and to must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	rows, err := h.Service.ByCustomer(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ByProduct handles GET /api/v1/baocao/doanhthu-sanpham?from=&to=.
func (h *Handler) ByProduct(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from and to must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	rows, err := h.Service.ByProduct(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ByMonth handles GET /api/v1/baocao/doanhthu-thang?year=.
func (h *Handler) ByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_YEAR", "year must be a four-digit year", nil)
		return
	}
	rows, err := h.Service.ByMonth(r.Context(), year)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Total handles GET /api/v1/baocao/tong-doanhthu?from=&to=.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from and to must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	summary, err := h.Service.Total(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

func parseTopN(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return 10
	}
	return n
}

// TopProducts handles GET /api/v1/baocao/top-sanpham?from=&to=&limit=.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from and to must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	rows, err := h.Service.TopProducts(r.Context(), from, to, parseTopN(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopCustomers handles GET /api/v1/baocao/top-khachhang?from=&to=&limit=.
func (h *Handler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE", "from and to must be YYYY-MM-DD or RFC3339", nil)
		return
	}
	rows, err := h.Service.TopCustomers(r.Context(), from, to, parseTopN(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}
