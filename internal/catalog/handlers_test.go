package catalog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestCreateMenuRejectsInvalidPayload(t *testing.T) {
	h := &Handler{Svc: &Service{Store: &Store{}}, Validate: validator.New()}

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"price":25000}`},
		{"negative price", `{"name":"Kopi","price":-1}`},
		{"bad category id", `{"name":"Kopi","price":25000,"modifierCategoryIds":["nope"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/menus", strings.NewReader(tc.body))
			h.CreateMenu(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateBundleRejectsEmptyItems(t *testing.T) {
	h := &Handler{Svc: &Service{Store: &Store{}}, Validate: validator.New()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bundles",
		strings.NewReader(`{"name":"Paket Hemat","price":40000,"items":[]}`))
	h.CreateBundle(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBundleRejectsBadInput(t *testing.T) {
	h := &Handler{Svc: &Service{Store: &Store{}}, Validate: validator.New()}

	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"name":"Paket Hemat","price":40000,"items":[]}`},
		{"zero qty item", `{"name":"Paket Hemat","price":40000,"items":[{"menuId":"3a0c3a37-8a72-4a3c-9a33-111111111111","qty":0}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/bundles/b1", strings.NewReader(tc.body))
			h.UpdateBundle(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAdminRoutesCoverBundleLifecycle(t *testing.T) {
	h := &Handler{Svc: &Service{Store: &Store{}}, Validate: validator.New()}
	r := chi.NewRouter()
	r.Route("/", h.AdminRoutes)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		path := "/bundles/0d9f2c1e-0000-0000-0000-000000000000"
		if method == http.MethodPost {
			path = "/bundles"
		}
		rctx := chi.NewRouteContext()
		require.True(t, r.Match(rctx, method, path), "%s %s not routed", method, path)
	}
}

func TestSetMenuIngredientsRejectsNonPositiveQty(t *testing.T) {
	h := &Handler{Svc: &Service{Store: &Store{}}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/menus/m1/ingredients",
		strings.NewReader(`{"3a0c3a37-8a72-4a3c-9a33-111111111111":0}`))
	h.SetMenuIngredients(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlersGuardMissingService(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.Board(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
