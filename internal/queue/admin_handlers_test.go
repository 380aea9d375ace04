package queue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/queue"
)

func TestReplayDLQByID(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryStore()
	msg := map[string]any{
		"kind":         "receipt",
		"key":          "job-1",
		"payload":      []byte("body"),
		"attempt":      3,
		"max_attempts": 3,
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	id, err := store.InsertDLQ(context.Background(), queue.DLQEntry{
		Kind:           "receipt",
		IdempotencyKey: "job-1",
		Payload:        raw,
		Attempts:       3,
	})
	require.NoError(t, err)

	h := &queue.AdminHandler{
		Store: store,
		Queue: queue.Enqueuer{R: client, Prefix: "admin"},
	}

	body := strings.NewReader(`{"ids":["` + id.String() + `"]}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/queue/dlq/replay", body)
	rec := httptest.NewRecorder()
	h.ReplayDLQ(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	count, err := store.CountDLQ(context.Background(), "receipt")
	require.NoError(t, err)
	require.Zero(t, count)

	depth, err := client.ZCard(context.Background(), "admin:queue:receipt").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), depth)
}

func TestListDLQFiltersByKind(t *testing.T) {
	store := newMemoryStore()
	for _, kind := range []string{"receipt", "receipt", "kitchen"} {
		raw, err := json.Marshal(map[string]any{"kind": kind, "payload": []byte("x"), "attempt": 5, "max_attempts": 5})
		require.NoError(t, err)
		_, err = store.InsertDLQ(context.Background(), queue.DLQEntry{Kind: kind, Payload: raw, Attempts: 5})
		require.NoError(t, err)
	}

	h := &queue.AdminHandler{Store: store, Queue: queue.Enqueuer{}}
	req := httptest.NewRequest(http.MethodGet, "/admin/queue/dlq?kind=receipt", nil)
	rec := httptest.NewRecorder()
	h.ListDLQ(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []map[string]any `json:"data"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, int64(2), resp.Total)
}

func TestReplayDLQRequiresTarget(t *testing.T) {
	h := &queue.AdminHandler{
		Store: newMemoryStore(),
		Queue: queue.Enqueuer{R: redis.NewClient(&redis.Options{Addr: "localhost:0"})},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/queue/dlq/replay", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ReplayDLQ(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
