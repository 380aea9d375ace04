package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the public menu board and administrative catalog endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// PublicRoutes mounts read-only catalog routes.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/board", h.Board)
	r.Get("/menus", h.ListMenus)
	r.Get("/menus/{id}", h.GetMenu)
	r.Get("/bundles", h.ListBundles)
}

// AdminRoutes mounts catalog management routes.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/menus", h.CreateMenu)
	r.Put("/menus/{id}", h.UpdateMenu)
	r.Delete("/menus/{id}", h.DeleteMenu)
	r.Put("/menus/{id}/ingredients", h.SetMenuIngredients)

	r.Get("/modifier-categories", h.ListModifierCategories)
	r.Post("/modifier-categories", h.CreateModifierCategory)
	r.Put("/modifier-categories/{id}", h.UpdateModifierCategory)
	r.Delete("/modifier-categories/{id}", h.DeleteModifierCategory)

	r.Get("/modifiers", h.ListModifiers)
	r.Post("/modifiers", h.CreateModifier)
	r.Put("/modifiers/{id}", h.UpdateModifier)
	r.Delete("/modifiers/{id}", h.DeleteModifier)

	r.Get("/ingredients", h.ListIngredients)
	r.Post("/ingredients", h.CreateIngredient)
	r.Put("/ingredients/{id}", h.UpdateIngredient)
	r.Delete("/ingredients/{id}", h.DeleteIngredient)

	r.Post("/bundles", h.CreateBundle)
	r.Get("/bundles/{id}", h.GetBundle)
	r.Put("/bundles/{id}", h.UpdateBundle)
	r.Delete("/bundles/{id}", h.DeleteBundle)
}

// Board returns the active menu board with modifiers and discounts attached.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	board, err := h.Svc.ListBoard(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load menu board", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": board})
}

// ListMenus returns all menus including inactive ones.
func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	includeInactive := strings.EqualFold(r.URL.Query().Get("all"), "true")
	menus, err := h.Svc.Store.ListMenus(r.Context(), includeInactive)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list menus", nil)
		return
	}
	if menus == nil {
		menus = []Menu{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": menus})
}

// GetMenu returns a single menu.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	m, err := h.Svc.Store.GetMenu(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "menu")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": m})
}

// CreateMenu inserts a new menu.
func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.Svc.Store.CreateMenu(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create menu", nil)
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

// UpdateMenu replaces an existing menu.
func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.Svc.Store.UpdateMenu(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeStoreError(w, err, "menu")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": m})
}

// DeleteMenu removes a menu.
func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.Svc.Store.DeleteMenu(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "menu")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// SetMenuIngredients replaces a menu's recipe.
func (h *Handler) SetMenuIngredients(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var usage map[string]int64
	if err := json.NewDecoder(r.Body).Decode(&usage); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	for _, qty := range usage {
		if qty <= 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "quantities must be positive", nil)
			return
		}
	}
	if err := h.Svc.Store.SetMenuIngredients(r.Context(), chi.URLParam(r, "id"), usage); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to set ingredients", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updated": true}})
}

// ListModifierCategories returns all modifier categories.
func (h *Handler) ListModifierCategories(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	categories, err := h.Svc.Store.ListModifierCategories(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list modifier categories", nil)
		return
	}
	if categories == nil {
		categories = []ModifierCategory{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// CreateModifierCategory inserts a modifier category.
func (h *Handler) CreateModifierCategory(w http.ResponseWriter, r *http.Request) {
	var in ModifierCategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.Svc.Store.CreateModifierCategory(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create modifier category", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// UpdateModifierCategory replaces a modifier category.
func (h *Handler) UpdateModifierCategory(w http.ResponseWriter, r *http.Request) {
	var in ModifierCategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.Svc.Store.UpdateModifierCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeStoreError(w, err, "modifier category")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// DeleteModifierCategory removes a modifier category.
func (h *Handler) DeleteModifierCategory(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.Svc.Store.DeleteModifierCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "modifier category")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// ListModifiers returns modifiers, optionally filtered by category.
func (h *Handler) ListModifiers(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	modifiers, err := h.Svc.Store.ListModifiers(r.Context(), strings.TrimSpace(r.URL.Query().Get("categoryId")))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list modifiers", nil)
		return
	}
	if modifiers == nil {
		modifiers = []Modifier{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": modifiers})
}

// CreateModifier inserts a modifier.
func (h *Handler) CreateModifier(w http.ResponseWriter, r *http.Request) {
	var in ModifierInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.Svc.Store.CreateModifier(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create modifier", nil)
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

// UpdateModifier replaces a modifier.
func (h *Handler) UpdateModifier(w http.ResponseWriter, r *http.Request) {
	var in ModifierInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.Svc.Store.UpdateModifier(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeStoreError(w, err, "modifier")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": m})
}

// DeleteModifier removes a modifier.
func (h *Handler) DeleteModifier(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.Svc.Store.DeleteModifier(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "modifier")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// ListIngredients returns all ingredients.
func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	ingredients, err := h.Svc.Store.ListIngredients(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list ingredients", nil)
		return
	}
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ingredients})
}

// CreateIngredient inserts an ingredient.
func (h *Handler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var in IngredientInput
	if !h.decode(w, r, &in) {
		return
	}
	ing, err := h.Svc.Store.CreateIngredient(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create ingredient", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": ing})
}

// UpdateIngredient replaces an ingredient.
func (h *Handler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	var in IngredientInput
	if !h.decode(w, r, &in) {
		return
	}
	ing, err := h.Svc.Store.UpdateIngredient(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeStoreError(w, err, "ingredient")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ing})
}

// DeleteIngredient removes an ingredient.
func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.Svc.Store.DeleteIngredient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "ingredient")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// ListBundles returns active bundles.
func (h *Handler) ListBundles(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	includeInactive := strings.EqualFold(r.URL.Query().Get("all"), "true")
	bundles, err := h.Svc.Store.ListBundles(r.Context(), includeInactive)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list bundles", nil)
		return
	}
	if bundles == nil {
		bundles = []Bundle{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": bundles})
}

// GetBundle returns one bundle.
func (h *Handler) GetBundle(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	b, err := h.Svc.Store.GetBundle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "bundle")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// CreateBundle inserts a bundle.
func (h *Handler) CreateBundle(w http.ResponseWriter, r *http.Request) {
	var in BundleInput
	if !h.decode(w, r, &in) {
		return
	}
	for _, item := range in.Items {
		if item.Qty <= 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bundle item qty must be positive", nil)
			return
		}
	}
	b, err := h.Svc.Store.CreateBundle(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create bundle", nil)
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": b})
}

// UpdateBundle replaces a bundle and its item list.
func (h *Handler) UpdateBundle(w http.ResponseWriter, r *http.Request) {
	var in BundleInput
	if !h.decode(w, r, &in) {
		return
	}
	for _, item := range in.Items {
		if item.Qty <= 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bundle item qty must be positive", nil)
			return
		}
	}
	b, err := h.Svc.Store.UpdateBundle(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeStoreError(w, err, "bundle")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": b})
}

// DeleteBundle removes a bundle.
func (h *Handler) DeleteBundle(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	if err := h.Svc.Store.DeleteBundle(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "bundle")
		return
	}
	h.Svc.InvalidateBoard(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err), nil)
			return false
		}
	}
	return true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, entity string) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", entity+" not found", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load "+entity, nil)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return strings.ToLower(f.Field()) + " failed " + f.Tag() + " validation"
	}
	return "invalid payload"
}
