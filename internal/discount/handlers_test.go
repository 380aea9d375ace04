package discount

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func TestRuleConversion(t *testing.T) {
	d := Discount{ID: "d1", Kind: pricing.KindPercentage, Scope: pricing.ScopeMenu, Value: 10, Active: true}
	rule := d.Rule()
	require.Equal(t, "d1", rule.ID)
	require.Equal(t, pricing.KindPercentage, rule.Kind)
	require.Equal(t, pricing.ScopeMenu, rule.Scope)
	require.Equal(t, pricing.Money(10), rule.Value)
	require.True(t, rule.Active)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	h := &Handler{Store: &Store{}, Validate: validator.New()}

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"kind":"NORMAL","scope":"MENU","value":1000}`},
		{"unknown kind", `{"name":"promo","kind":"BOGO","scope":"MENU","value":1000}`},
		{"unknown scope", `{"name":"promo","kind":"NORMAL","scope":"LINE","value":1000}`},
		{"negative value", `{"name":"promo","kind":"NORMAL","scope":"MENU","value":-5}`},
		{"percentage over 100", `{"name":"promo","kind":"PERCENTAGE","scope":"TOTAL","value":150}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			h.Create(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDecodeNormalizesCase(t *testing.T) {
	h := &Handler{Validate: validator.New()}
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"name":" Promo ","kind":"percentage","scope":"menu","value":10}`))
	in, ok := h.decode(httptest.NewRecorder(), req)
	require.True(t, ok)
	require.Equal(t, "Promo", in.Name)
	require.Equal(t, "PERCENTAGE", in.Kind)
	require.Equal(t, "MENU", in.Scope)
}

func TestHandlersGuardMissingStore(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
