package discount

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes administrative discount management endpoints.
type Handler struct {
	Store    *Store
	Validate *validator.Validate
}

// Routes mounts the discount admin routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/menus/{menuId}", h.Attach)
	r.Delete("/{id}/menus/{menuId}", h.Detach)
}

// Active returns the active discounts for the cashier picker, optionally
// narrowed to one scope.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	discounts, err := h.Store.ListActive(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discounts", nil)
		return
	}
	scope := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("scope")))
	out := []Discount{}
	for _, d := range discounts {
		if scope != "" && d.Scope != scope {
			continue
		}
		out = append(out, d)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// List returns every discount rule.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	discounts, err := h.Store.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discounts", nil)
		return
	}
	if discounts == nil {
		discounts = []Discount{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": discounts})
}

// Get returns a single discount.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	d, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Create inserts a new discount rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	d, err := h.Store.Create(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create discount", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": d})
}

// Update replaces an existing discount rule.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	d, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Delete removes a discount rule.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// Attach links a discount to a menu. Position controls which MENU discount
// wins when several are attached.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	position := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("position")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid position", nil)
			return
		}
		position = parsed
	}
	err := h.Store.AttachToMenu(r.Context(), chi.URLParam(r, "menuId"), chi.URLParam(r, "id"), position)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to attach discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"attached": true}})
}

// Detach unlinks a discount from a menu.
func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	err := h.Store.DetachFromMenu(r.Context(), chi.URLParam(r, "menuId"), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "attachment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to detach discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"detached": true}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Input{}, false
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Kind = strings.ToUpper(strings.TrimSpace(in.Kind))
	in.Scope = strings.ToUpper(strings.TrimSpace(in.Scope))
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err), nil)
			return Input{}, false
		}
	}
	if in.Kind == "PERCENTAGE" && in.Value > 100 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "percentage value must be between 0 and 100", nil)
		return Input{}, false
	}
	return in, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return strings.ToLower(f.Field()) + " failed " + f.Tag() + " validation"
	}
	return "invalid payload"
}
