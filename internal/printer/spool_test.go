package printer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/queue"
)

type stubOrders struct {
	views map[string]order.View
}

func (s *stubOrders) Get(_ context.Context, id string) (order.View, error) {
	v, ok := s.views[id]
	if !ok {
		return order.View{}, errors.New("not found")
	}
	return v, nil
}

func testView(id string) order.View {
	o := order.Order{
		ID:     id,
		Status: order.StatusPaid,
		Items:  []order.Item{{Name: "Kopi Susu", Qty: 2, UnitPrice: 25000}},
	}
	return order.View{Order: o, Totals: pricing.Compute(o.Lines(), nil, pricing.DefaultTaxRateBps, pricing.DefaultGratuityRateBps)}
}

func newSpooler(t *testing.T, orders *stubOrders) (Spooler, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Spooler{
		Q:      queue.Enqueuer{R: client, Prefix: "spool", DedupTTL: time.Minute},
		Orders: orders,
		Log:    zerolog.Nop(),
	}, client
}

func TestSpoolerEnqueuesReceiptOnPaid(t *testing.T) {
	const id = "a1b2c3d4-0000-0000-0000-000000000000"
	sp, client := newSpooler(t, &stubOrders{views: map[string]order.View{id: testView(id)}})

	err := sp.Notify(context.Background(), events.Event{Topic: events.TopicOrderPaid, AggregateID: id})
	require.NoError(t, err)

	depth, err := client.ZCard(context.Background(), "spool:queue:receipt").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)
}

func TestSpoolerEnqueuesKitchenTicketOnPlaced(t *testing.T) {
	const id = "a1b2c3d4-0000-0000-0000-000000000001"
	sp, client := newSpooler(t, &stubOrders{views: map[string]order.View{id: testView(id)}})

	err := sp.Notify(context.Background(), events.Event{Topic: events.TopicOrderCreated, AggregateID: id})
	require.NoError(t, err)

	depth, err := client.ZCard(context.Background(), "spool:queue:kitchen").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)
}

func TestSpoolerFansOutCombinedReceipts(t *testing.T) {
	ids := []string{
		"a1b2c3d4-0000-0000-0000-000000000002",
		"a1b2c3d4-0000-0000-0000-000000000003",
	}
	views := map[string]order.View{}
	for _, id := range ids {
		views[id] = testView(id)
	}
	sp, client := newSpooler(t, &stubOrders{views: views})

	payload, err := json.Marshal(map[string]any{"memberIds": ids})
	require.NoError(t, err)
	err = sp.Notify(context.Background(), events.Event{Topic: events.TopicOrderCombinedPaid, Payload: payload})
	require.NoError(t, err)

	depth, err := client.ZCard(context.Background(), "spool:queue:receipt").Result()
	require.NoError(t, err)
	require.Equal(t, int64(2), depth)
}

func TestSpoolerIgnoresOtherTopics(t *testing.T) {
	sp, client := newSpooler(t, &stubOrders{})
	err := sp.Notify(context.Background(), events.Event{Topic: events.TopicOrderCancelled, AggregateID: "x"})
	require.NoError(t, err)

	keys, err := client.Keys(context.Background(), "spool:*").Result()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestHandlerPostsToBridge(t *testing.T) {
	var got printRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cl := NewClient(srv.URL, time.Second)
	cl.HTTP.Client = srv.Client()
	handler := Handler(cl, zerolog.Nop())

	raw, err := json.Marshal(printJob{Kind: KindReceipt, OrderID: "o1", Content: "RECEIPT"})
	require.NoError(t, err)
	err = handler(context.Background(), queue.Job{Kind: KindReceipt, Payload: raw, Attempt: 1, MaxAttempts: 5})
	require.NoError(t, err)
	require.Equal(t, KindReceipt, got.Kind)
	require.Equal(t, "RECEIPT", got.Content)
}

func TestHandlerReturnsBridgeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cl := NewClient(srv.URL, time.Second)
	cl.HTTP.Client = srv.Client()
	handler := Handler(cl, zerolog.Nop())

	raw, err := json.Marshal(printJob{Kind: KindKitchen, Content: "TICKET"})
	require.NoError(t, err)
	err = handler(context.Background(), queue.Job{Kind: KindKitchen, Payload: raw, Attempt: 1, MaxAttempts: 5})
	require.Error(t, err)
}

func TestHandlerDropsMalformedPayload(t *testing.T) {
	cl := NewClient("http://bridge.local", time.Second)
	handler := Handler(cl, zerolog.Nop())
	err := handler(context.Background(), queue.Job{Kind: KindReceipt, Payload: []byte("not json")})
	require.NoError(t, err)
}
