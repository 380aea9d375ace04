package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestStatusRecorderCapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := NewStatusRecorder(rec)
	sr.WriteHeader(http.StatusTeapot)
	n, err := sr.Write([]byte("short and stout"))
	require.NoError(t, err)
	require.Equal(t, 15, n)
	require.Equal(t, http.StatusTeapot, sr.Status())
	require.Equal(t, int64(15), sr.BytesWritten())
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	sr := NewStatusRecorder(httptest.NewRecorder())
	require.Equal(t, http.StatusOK, sr.Status())
}

func TestRoutePatternMiddleware(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Use(RoutePatternMiddleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = RoutePatternFromContext(req.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "/orders/{id}", got)
}

func TestHTTPObsMiddlewarePassthroughWithoutMetrics(t *testing.T) {
	called := false
	h := HTTPObs{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}
