package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/cache"
	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

type stubOrders struct {
	views []order.View
	calls int
}

func (s *stubOrders) List(_ context.Context, f order.ListFilter) ([]order.View, int64, error) {
	s.calls++
	if f.Offset >= len(s.views) {
		return nil, int64(len(s.views)), nil
	}
	return s.views, int64(len(s.views)), nil
}

func paidView(subtotal, menuDisc, totalDisc, tax, gratuity, total int64) order.View {
	return order.View{
		Order: order.Order{Status: order.StatusPaid},
		Totals: pricing.Totals{
			Subtotal:      subtotal,
			MenuDiscount:  menuDisc,
			TotalDiscount: totalDisc,
			Tax:           tax,
			Gratuity:      gratuity,
			Total:         total,
		},
	}
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute)
}

func TestSalesAggregatesPaidOrders(t *testing.T) {
	src := &stubOrders{views: []order.View{
		paidView(100000, 0, 0, 10000, 2000, 112000),
		paidView(50000, 5000, 5000, 4500, 900, 50400),
	}}
	svc := &Service{Orders: src, Cache: testCache(t)}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	out, err := svc.Sales(context.Background(), from, to)
	require.NoError(t, err)

	require.Equal(t, 2, out.OrderCount)
	require.Equal(t, int64(150000), out.Subtotal)
	require.Equal(t, int64(5000), out.MenuDiscount)
	require.Equal(t, int64(5000), out.TotalDiscount)
	require.Equal(t, int64(14500), out.Tax)
	require.Equal(t, int64(2900), out.Gratuity)
	require.Equal(t, int64(162400), out.Revenue)
}

func TestSalesServedFromCache(t *testing.T) {
	src := &stubOrders{views: []order.View{paidView(100000, 0, 0, 10000, 2000, 112000)}}
	svc := &Service{Orders: src, Cache: testCache(t)}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	first, err := svc.Sales(context.Background(), from, to)
	require.NoError(t, err)
	calls := src.calls

	second, err := svc.Sales(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, calls, src.calls)
}

func TestSalesEmptyWindow(t *testing.T) {
	svc := &Service{Orders: &stubOrders{}, Cache: testCache(t)}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out, err := svc.Sales(context.Background(), from, from.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, out.OrderCount)
	require.Zero(t, out.Revenue)
}

func newRouter(svc *Service) *chi.Mux {
	r := chi.NewRouter()
	h := &Handler{Svc: svc}
	r.Route("/reports", h.Routes)
	return r
}

func TestSalesHandlerRejectsBadWindow(t *testing.T) {
	r := newRouter(&Service{Orders: &stubOrders{}, Cache: testCache(t)})

	req := httptest.NewRequest(http.MethodGet, "/reports/sales?from=not-a-time", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/reports/sales?from=2025-06-02T00:00:00Z&to=2025-06-01T00:00:00Z", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopMenusHandlerRejectsBadLimit(t *testing.T) {
	r := newRouter(&Service{Orders: &stubOrders{}, Cache: testCache(t)})

	req := httptest.NewRequest(http.MethodGet, "/reports/top-menus?limit=0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerNilService(t *testing.T) {
	r := chi.NewRouter()
	h := &Handler{}
	r.Route("/reports", h.Routes)

	req := httptest.NewRequest(http.MethodGet, "/reports/sales", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
