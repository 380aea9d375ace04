package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *memStore) Insert(_ context.Context, e Entry) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return e.ID, nil
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.entries) {
		return []Entry{}, nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], nil
}

func TestRecordBuildsEntryFromRequest(t *testing.T) {
	store := &memStore{}
	svc := Service{Store: store, Enabled: true}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/discounts/abc?force=1", nil)
	req.Header.Set("User-Agent", "pos-terminal")
	ctx := obs.WithRoutePattern(req.Context(), "/api/v1/admin/discounts/{id}")
	req = req.WithContext(ctx)

	cashier := "kasir-1"
	err := svc.Record(req.Context(), Actor{Kind: ActorKindCashier, CashierID: &cashier}, "", "", "abc", req, http.StatusCreated, nil)
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	require.Equal(t, "cashier", e.ActorKind)
	require.Equal(t, "kasir-1", *e.CashierID)
	require.Equal(t, "POST /api/v1/admin/discounts/{id}", e.Action)
	require.Equal(t, "admin.discounts.{id}", e.ResourceType)
	require.Equal(t, "abc", *e.ResourceID)
	require.Equal(t, http.StatusCreated, e.Status)
	require.Equal(t, "pos-terminal", *e.UserAgent)
	require.JSONEq(t, `{"query":"force=1"}`, string(e.Metadata))
}

func TestRecordDisabledIsNoop(t *testing.T) {
	store := &memStore{}
	svc := Service{Store: store, Enabled: false}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/menus/x", nil)
	require.NoError(t, svc.Record(req.Context(), Actor{}, "", "", "", req, 0, nil))
	require.Empty(t, store.entries)
}

func TestMiddlewareRecordsCashierActor(t *testing.T) {
	store := &memStore{}
	rec := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}

	handler := rec.Middleware(HTTPConfig{ResourceType: "discounts"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/discounts/d1", nil)
	req = req.WithContext(common.WithCashierID(req.Context(), "kasir-7"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, store.entries, 1)
	require.Equal(t, "cashier", store.entries[0].ActorKind)
	require.Equal(t, "kasir-7", *store.entries[0].CashierID)
	require.Equal(t, http.StatusNoContent, store.entries[0].Status)
}

func TestMiddlewareAnonymousWithoutHeader(t *testing.T) {
	store := &memStore{}
	rec := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}

	handler := rec.Middleware(HTTPConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", nil))

	require.Len(t, store.entries, 1)
	require.Equal(t, "anonymous", store.entries[0].ActorKind)
	require.Nil(t, store.entries[0].CashierID)
}
