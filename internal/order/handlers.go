package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes order endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts order routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Place)
	r.Get("/", h.List)
	r.Post("/combine", h.Combine)
	r.Post("/combine/pay", h.CombinePay)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/pay", h.Pay)
	r.Post("/{id}/cancel", h.Cancel)
}

type placeRequest struct {
	CartID       string `json:"cartId"`
	TableNumber  string `json:"tableNumber"`
	CustomerName string `json:"customerName"`
}

type payRequest struct {
	Method string `json:"method"`
	Amount int64  `json:"amount"`
}

type combineRequest struct {
	OrderIDs []string `json:"orderIds"`
}

type combinePayRequest struct {
	OrderIDs []string `json:"orderIds"`
	Method   string   `json:"method"`
	Amount   int64    `json:"amount"`
	Confirm  []string `json:"confirm"`
}

// Place converts a cart into an order.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.CartID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId is required", nil)
		return
	}
	cashierID, _ := common.CashierID(r.Context())
	view, err := h.Svc.Place(r.Context(), PlaceInput{
		CartID:       req.CartID,
		CashierID:    cashierID,
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// List returns orders filtered by status and date range.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	q := r.URL.Query()
	f := ListFilter{Status: strings.ToUpper(strings.TrimSpace(q.Get("status")))}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be RFC3339", nil)
			return
		}
		f.From = &t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "to must be RFC3339", nil)
			return
		}
		f.To = &t
	}
	page, perPage := common.ParsePagination(r, 20)
	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	views, total, err := h.Svc.List(r.Context(), f)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	if views == nil {
		views = []View{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"meta": common.PageMeta(page, perPage, total),
	})
}

// Get returns one order with recomputed totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Pay settles an open order.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	view, err := h.Svc.Pay(r.Context(), chi.URLParam(r, "id"), req.Method, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Cancel voids an open order.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	if err := h.Svc.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"canceled": true}})
}

// Combine previews a merged ticket for several open orders.
func (h *Handler) Combine(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req combineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	view, err := h.Svc.Combine(r.Context(), req.OrderIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// CombinePay settles a merged ticket atomically.
func (h *Handler) CombinePay(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req combinePayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	view, err := h.Svc.CombinePay(r.Context(), CombinePayInput{
		OrderIDs: req.OrderIDs,
		Method:   req.Method,
		Tendered: req.Amount,
		Confirm:  req.Confirm,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNotOpen):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "order is not open", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order operation failed", nil)
	}
}
