package report

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler serves the reporting endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/sales", h.Sales)
	r.Get("/top-menus", h.TopMenus)
}

// Sales handles GET /reports/sales.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report service not configured", nil)
		return
	}
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.Sales(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build sales report", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopMenus handles GET /reports/top-menus.
func (h *Handler) TopMenus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report service not configured", nil)
		return
	}
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	limit := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}
	out, err := h.Svc.TopMenus(r.Context(), from, to, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build top menus report", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// parseWindow reads from/to query params. Missing values default to the
// current day in UTC.
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be RFC3339", nil)
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "to must be RFC3339", nil)
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	if !to.After(from) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "to must be after from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
